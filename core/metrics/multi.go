package metrics

import "errors"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAllocationRun forwards the record to all sinks. Every sink is tried;
// the errors are joined.
func (m *MultiSink) RecordAllocationRun(rec RunRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordAllocationRun(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordFallback forwards fallback events to sinks supporting them.
func (m *MultiSink) RecordFallback(ev FallbackEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(FallbackRecorder); ok {
			if err := rec.RecordFallback(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordWeather forwards weather snapshots to sinks supporting them.
func (m *MultiSink) RecordWeather(ws WeatherSnapshot) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(WeatherRecorder); ok {
			if err := rec.RecordWeather(ws); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
