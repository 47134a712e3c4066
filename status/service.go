package status

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes exported metric names when none is configured
const DefaultNamespace = "termbridge"

// StatusService wraps Registry as a Service and fans increments out to
// an optional Prometheus exporter. It satisfies terminal.Metrics, so it can
// be handed to components before Init wires the exporter.
type StatusService struct {
	registry *Registry
	sink     atomic.Pointer[Fanout]
}

// NewService creates a new status service with initialized registry
func NewService() *StatusService {
	s := &StatusService{
		registry: NewRegistry(),
	}
	s.sink.Store(&Fanout{s.registry})
	return s
}

// Name implements Service
func (s *StatusService) Name() string {
	return "status"
}

// Dependencies implements Service
func (s *StatusService) Dependencies() []string {
	return nil
}

// Init implements Service. A prometheus.Registerer arg enables export;
// a string arg overrides the metric namespace.
func (s *StatusService) Init(args ...any) error {
	var reg prometheus.Registerer
	namespace := DefaultNamespace
	for _, arg := range args {
		switch v := arg.(type) {
		case prometheus.Registerer:
			reg = v
		case string:
			if v != "" {
				namespace = v
			}
		default:
			return fmt.Errorf("status init: unexpected argument %T", arg)
		}
	}

	if reg == nil {
		return nil
	}
	prom, err := NewPrometheus(reg, namespace)
	if err != nil {
		return fmt.Errorf("status init: %w", err)
	}
	s.sink.Store(&Fanout{s.registry, prom})
	return nil
}

// Start implements Service
func (s *StatusService) Start() error {
	return nil
}

// Stop implements Service
func (s *StatusService) Stop() error {
	return nil
}

// Inc forwards an increment to the registry and any exporter
func (s *StatusService) Inc(name string) {
	s.sink.Load().Inc(name)
}

// Registry returns the underlying metrics registry
func (s *StatusService) Registry() *Registry {
	return s.registry
}
