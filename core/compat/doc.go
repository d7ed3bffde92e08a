// Package compat holds the predicates deciding whether a ship can be berthed
// at a dock for a given interval: weather suitability, tide window coverage,
// physical fit, berth space and double booking.
//
// All functions are pure and safe for concurrent use.
package compat
