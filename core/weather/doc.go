// Package weather defines how the allocation engine obtains weather
// conditions. Providers return a model.WeatherState; FallbackProvider degrades
// to DefaultState whenever the wrapped feed fails so that a run never blocks on
// an unreachable weather service.
package weather
