// @focus: #sys { term } #events { resize }
package terminal

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ResizeListener receives the new terminal size after a window change
type ResizeListener interface {
	OnResize(Size) error
}

// ResizeListenerFunc adapts a function to ResizeListener
type ResizeListenerFunc func(Size) error

// OnResize implements ResizeListener
func (f ResizeListenerFunc) OnResize(s Size) error {
	return f(s)
}

// ListenerHandle identifies a registration for Remove
type ListenerHandle uint64

type listenerEntry struct {
	handle   ListenerHandle
	listener ResizeListener
}

// ResizeNotifier dispatches window-size changes to listeners in registration order.
// The registry is safe for concurrent use; notification iterates a copy, so
// listeners may add or remove registrations from inside OnResize.
type ResizeNotifier struct {
	size    func() Size
	log     *slog.Logger
	metrics Metrics

	mu        sync.Mutex
	listeners []listenerEntry
	nextID    ListenerHandle

	// signal watch state, see resize_unix.go
	watchMu     sync.Mutex
	stopCh      chan struct{}
	doneCh      chan struct{}
	dispatching atomic.Bool
}

// NewResizeNotifier creates a notifier querying ch for the size
func NewResizeNotifier(ch Channel, opts ...Option) *ResizeNotifier {
	o := buildOptions(opts)
	fallback := o.fallbackSize
	return newResizeNotifier(func() Size { return querySize(ch, fallback) }, o)
}

func newResizeNotifier(size func() Size, o options) *ResizeNotifier {
	return &ResizeNotifier{
		size:    size,
		log:     o.logger.With("component", "resize"),
		metrics: o.metrics,
	}
}

// Add registers a listener. Registering the same listener twice yields two
// independent registrations, each notified.
func (n *ResizeNotifier) Add(l ResizeListener) ListenerHandle {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.listeners = append(n.listeners, listenerEntry{handle: n.nextID, listener: l})
	return n.nextID
}

// Remove unregisters a listener; unknown handles are ignored
func (n *ResizeNotifier) Remove(h ListenerHandle) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, e := range n.listeners {
		if e.handle == h {
			// Fresh slice so an in-flight Notify copy is unaffected
			next := make([]listenerEntry, 0, len(n.listeners)-1)
			next = append(next, n.listeners[:i]...)
			n.listeners = append(next, n.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registrations
func (n *ResizeNotifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}

// Size returns the current size, with the fallback applied per dimension
func (n *ResizeNotifier) Size() Size {
	return n.size()
}

// Notify queries the size and calls every listener in registration order.
// A failing or panicking listener is logged and does not stop the others.
func (n *ResizeNotifier) Notify() Size {
	s := n.size()

	n.mu.Lock()
	snapshot := n.listeners
	n.mu.Unlock()

	n.metrics.Inc(MetricResizes)
	n.log.Debug("resize", "columns", s.Columns, "rows", s.Rows, "listeners", len(snapshot))

	for _, e := range snapshot {
		if err := n.call(e.listener, s); err != nil {
			n.metrics.Inc(MetricListenerFailures)
			n.log.Warn("resize listener failed", "handle", e.handle, "error", err)
		}
	}
	return s
}

func (n *ResizeNotifier) call(l ResizeListener, s Size) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return l.OnResize(s)
}
