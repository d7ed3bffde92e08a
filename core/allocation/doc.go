// Package allocation decides which ship goes to which dock and when.
//
// A Strategy turns a Request into a Result. LocalStrategy is the greedy
// first-fit heuristic; remote strategies (see infra/optimizer) delegate to an
// external optimization service. FallbackChain tries strategies in order and
// falls through to the next one whenever a strategy is unavailable or fails,
// so the local strategy always has the last word. Engine fetches weather,
// applies threshold overrides and runs the chain.
package allocation
