package telemetry

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink exports numeric and boolean values as gauges labelled by table and key. Other
// values are counted as dropped.
type PrometheusSink struct {
	values  *prometheus.GaugeVec
	dropped *prometheus.CounterVec
}

// NewPrometheusSink registers the sink's collectors with reg under namespace.
func NewPrometheusSink(reg prometheus.Registerer, namespace string) (*PrometheusSink, error) {
	s := &PrometheusSink{
		values: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "telemetry",
				Name:      "value",
				Help:      "Latest published telemetry value",
			},
			[]string{"table", "key"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "telemetry",
				Name:      "dropped_total",
				Help:      "Published values that are not numeric",
			},
			[]string{"table"},
		),
	}
	for _, c := range []prometheus.Collector{s.values, s.dropped} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering telemetry collector")
		}
	}
	return s, nil
}

// Publish implements Sink.
func (s *PrometheusSink) Publish(table, key string, value interface{}) {
	f, ok := AsFloat(value)
	if !ok {
		s.dropped.WithLabelValues(table).Inc()
		return
	}
	s.values.WithLabelValues(table, key).Set(f)
}
