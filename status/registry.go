package status

import "sync/atomic"

// Registry is the in-process diagnostics facade.
// It satisfies terminal.Metrics: components report through Inc and
// diagnostic tools read the counters back with Counter or Range.
type Registry struct {
	Counters *MetricMap[atomic.Int64]
	Labels   *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Counters: NewMetricMap[atomic.Int64](),
		Labels:   NewMetricMap[AtomicString](),
	}
}

// Inc increments the named counter
func (r *Registry) Inc(name string) {
	r.Counters.Get(name).Add(1)
}

// Counter returns the current value of a counter, 0 if never incremented
func (r *Registry) Counter(name string) int64 {
	if !r.Counters.Has(name) {
		return 0
	}
	return r.Counters.Get(name).Load()
}

// SetLabel stores a short descriptive value (last event, current size)
func (r *Registry) SetLabel(name, val string) {
	r.Labels.Get(name).Store(val)
}

// Label returns a stored label, "" if unset
func (r *Registry) Label(name string) string {
	if !r.Labels.Has(name) {
		return ""
	}
	return r.Labels.Get(name).Load()
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Counters.Count() + r.Labels.Count()
}
