package status

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exports increments as a counter vector labelled by metric name
type Prometheus struct {
	counters *prometheus.CounterVec
}

// NewPrometheus registers "<namespace>_terminal_events_total{name}" on reg
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	counters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "terminal",
		Name:      "events_total",
		Help:      "Terminal adapter diagnostic events by name.",
	}, []string{"name"})
	if err := reg.Register(counters); err != nil {
		return nil, fmt.Errorf("register terminal counters: %w", err)
	}
	return &Prometheus{counters: counters}, nil
}

// Inc implements Sink
func (p *Prometheus) Inc(name string) {
	p.counters.WithLabelValues(name).Inc()
}
