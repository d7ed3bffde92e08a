package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/berthplan/core/metrics"
)

// PromSink records allocation runs and weather in Prometheus metrics. Run
// duration and fallback counters are owned by the allocation package.
type PromSink struct {
	runs        *prometheus.CounterVec
	allocated   prometheus.Counter
	unassigned  *prometheus.CounterVec
	utilization prometheus.Gauge
	tide        *prometheus.GaugeVec
	wind        *prometheus.GaugeVec
}

// NewPromSink registers allocation metrics on the default Prometheus registerer.
// The Prometheus server is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// register adds c to reg, reusing an already registered collector of the
// same type.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var err error
	s := &PromSink{}
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_runs_total",
		Help: "Allocation runs by strategy and weather warning",
	}, []string{"strategy", "weather_warning"})); err != nil {
		return nil, err
	}
	if s.allocated, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ships_allocated_total",
		Help: "Ships given a berth",
	})); err != nil {
		return nil, err
	}
	if s.unassigned, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ships_unassigned_total",
		Help: "Ships left without a berth by reason",
	}, []string{"reason"})); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dock_utilization_ratio",
		Help: "Dock utilization of the last run",
	})); err != nil {
		return nil, err
	}
	if s.tide, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tide_level_meters",
		Help: "Last observed tide level",
	}, []string{"location"})); err != nil {
		return nil, err
	}
	if s.wind, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wind_speed_knots",
		Help: "Last observed wind speed",
	}, []string{"location"})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordAllocationRun updates the run counters.
func (s *PromSink) RecordAllocationRun(rec coremetrics.RunRecord) error {
	s.runs.WithLabelValues(rec.Strategy, strconv.FormatBool(rec.WeatherWarning)).Inc()
	s.allocated.Add(float64(rec.Allocated))
	for reason, n := range rec.Unassigned {
		s.unassigned.WithLabelValues(reason).Add(float64(n))
	}
	s.utilization.Set(rec.Utilization)
	return nil
}

// RecordWeather sets the weather gauges.
func (s *PromSink) RecordWeather(ws coremetrics.WeatherSnapshot) error {
	s.tide.WithLabelValues(ws.Location).Set(ws.TideLevel)
	s.wind.WithLabelValues(ws.Location).Set(ws.WindSpeed)
	return nil
}
