// Package store provides the SQLite repository and the YAML seed loader.
package store
