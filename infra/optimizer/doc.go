// Package optimizer talks to the external allocation model service.
//
// Client implements the request/response contract of the service and
// RemoteStrategy adapts it to allocation.Strategy so it can head a
// FallbackChain. Server is a reference implementation of the service that
// solves the LP relaxation of the assignment problem with gonum and rounds
// it while re-checking every berth rule.
package optimizer
