package events

// StrategyEvent is emitted when the fallback chain tries or abandons a strategy.
// Action can be "attempt", "unavailable", "failure" or "fallback".
type StrategyEvent struct {
	Strategy string
	Action   string
	Err      error
}
