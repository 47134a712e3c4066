package terminal

// Metrics receives diagnostic counter increments.
// Implementations must be safe for concurrent use; the resize notifier
// reports from its own goroutine.
type Metrics interface {
	Inc(name string)
}

// Counter names reported through Metrics
const (
	MetricPolls              = "polls"
	MetricEventsDecoded      = "events_decoded"
	MetricSequencesDiscarded = "sequences_discarded"
	MetricResizes            = "resize_notifications"
	MetricListenerFailures   = "listener_failures"
	MetricTeardownFailures   = "teardown_failures"
)

type nopMetrics struct{}

func (nopMetrics) Inc(string) {}
