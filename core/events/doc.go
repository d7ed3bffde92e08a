// Package events defines the allocation related events emitted on the event bus.
//
// Available event types:
//   - RunEvent: an allocation run completed
//   - StrategyEvent: strategy selection and fallback information
//   - WeatherEvent: weather conditions used by a run
package events
