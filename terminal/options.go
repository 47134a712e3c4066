package terminal

import (
	"context"
	"log/slog"
	"time"
)

// LevelTrace is below slog.LevelDebug; per-byte decoder chatter is logged here
const LevelTrace = slog.Level(-8)

const (
	// DefaultEscapeTimeout is the wait after ESC that separates a standalone
	// Escape keypress from the start of a control sequence
	DefaultEscapeTimeout = 50 * time.Millisecond
	// DefaultSequenceTimeout is the per-byte wait while draining a CSI/SS3/mouse sequence
	DefaultSequenceTimeout = 50 * time.Millisecond
)

// options holds construction-time settings shared by the components
type options struct {
	escapeTimeout   time.Duration
	sequenceTimeout time.Duration
	fallbackSize    Size
	colorMode       ColorMode
	privateTracking MouseTracking
	logger          *slog.Logger
	metrics         Metrics
	now             func() time.Time
}

func defaultOptions() options {
	return options{
		escapeTimeout:   DefaultEscapeTimeout,
		sequenceTimeout: DefaultSequenceTimeout,
		fallbackSize:    DefaultSize,
		colorMode:       ColorModeTrueColor,
		privateTracking: MouseTrackingNormal,
		logger:          slog.New(slog.DiscardHandler),
		metrics:         nopMetrics{},
		now:             time.Now,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a Terminal or one of its components
type Option func(*options)

// WithEscapeTimeout sets the standalone-Escape disambiguation wait
func WithEscapeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.escapeTimeout = d
		}
	}
}

// WithSequenceTimeout sets the per-byte wait inside multi-byte sequences.
// Longer values tolerate fragmented links; shorter values keep a stalled
// sequence from holding up input.
func WithSequenceTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sequenceTimeout = d
		}
	}
}

// WithFallbackSize sets the size reported when the device answers 0x0
func WithFallbackSize(s Size) Option {
	return func(o *options) {
		if s.Columns > 0 && s.Rows > 0 {
			o.fallbackSize = s
		}
	}
}

// WithColorMode selects how RGB colors are encoded
func WithColorMode(m ColorMode) Option {
	return func(o *options) {
		o.colorMode = m
	}
}

// WithPrivateMouseTracking sets the tracking granularity enabled on private-mode entry
func WithPrivateMouseTracking(m MouseTracking) Option {
	return func(o *options) {
		o.privateTracking = m
	}
}

// WithLogger routes component logs; the default discards them
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics installs a diagnostic counter sink
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// traceEnabled avoids formatting trace arguments nobody will see
func traceEnabled(l *slog.Logger) bool {
	return l.Enabled(context.Background(), LevelTrace)
}
