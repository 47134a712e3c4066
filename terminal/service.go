package terminal

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// servicePollInterval bounds each Poll so the loop observes Stop
const servicePollInterval = 100 * time.Millisecond

// TerminalService manages terminal lifecycle and input polling
type TerminalService struct {
	term    *Terminal
	log     *slog.Logger
	eventCh chan Event
	sizeCh  chan Size
	errCh   chan error
	stopCh  chan struct{}
	doneCh  chan struct{}

	deps []string

	mu       sync.Mutex
	running  bool
	stopped  bool
	resizeID ListenerHandle
}

// NewService creates a new terminal service. dependsOn names services that
// must initialize first, typically the one supplied through WithMetrics.
func NewService(dependsOn ...string) *TerminalService {
	return &TerminalService{
		deps:    dependsOn,
		log:     slog.New(slog.DiscardHandler),
		eventCh: make(chan Event, 256),
		sizeCh:  make(chan Size, 1),
		errCh:   make(chan error, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Name implements Service
func (s *TerminalService) Name() string {
	return "terminal"
}

// Dependencies implements Service
func (s *TerminalService) Dependencies() []string {
	return s.deps
}

// Init implements Service: builds the terminal and enters private mode.
// Args may be a Channel (default: the controlling tty), Option or []Option.
func (s *TerminalService) Init(args ...any) error {
	var ch Channel
	var opts []Option
	for _, arg := range args {
		switch v := arg.(type) {
		case Channel:
			ch = v
		case Option:
			opts = append(opts, v)
		case []Option:
			opts = append(opts, v...)
		default:
			return fmt.Errorf("terminal init: unexpected argument %T", arg)
		}
	}

	o := buildOptions(opts)
	s.log = o.logger.With("component", "service")

	if ch == nil {
		var err error
		if ch, err = OpenTTY(); err != nil {
			return fmt.Errorf("terminal init: %w", err)
		}
	}

	t, err := New(ch, opts...)
	if err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	if err := t.EnterPrivateMode(); err != nil {
		t.Close()
		return fmt.Errorf("terminal init: %w", err)
	}
	s.term = t
	return nil
}

// Start implements Service - launches input polling and resize dispatch
func (s *TerminalService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return nil
	}
	if s.term == nil {
		return fmt.Errorf("terminal start: not initialized")
	}
	s.running = true

	s.resizeID = s.term.AddResizeListener(ResizeListenerFunc(func(sz Size) error {
		// Keep only the latest size pending
		select {
		case s.sizeCh <- sz:
		default:
			select {
			case <-s.sizeCh:
			default:
			}
			select {
			case s.sizeCh <- sz:
			default:
			}
		}
		return nil
	}))
	s.term.Resize().Start()

	go s.pollLoop()
	return nil
}

// pollLoop reads input events until stop signal or end of input
func (s *TerminalService) pollLoop() {
	defer close(s.doneCh)
	defer close(s.eventCh)

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("terminal poll crashed", "panic", r, "stack", string(debug.Stack()))
			if err := s.term.Recover(); err != nil {
				s.log.Error("terminal recovery failed", "error", err)
			}
			s.report(fmt.Errorf("terminal poll crashed: %v", r))
		}
	}()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		ev, err := s.term.Poll(servicePollInterval)
		if err != nil {
			s.report(err)
			return
		}
		if ev == nil {
			continue
		}

		select {
		case s.eventCh <- ev:
		case <-s.stopCh:
			return
		}
		if IsEOF(ev) {
			return
		}
	}
}

// report publishes a terminal failure without blocking
func (s *TerminalService) report(err error) {
	s.log.Error("terminal input failed", "error", err)
	select {
	case s.errCh <- err:
	default:
	}
}

// Stop implements Service - signals stop and restores terminal
func (s *TerminalService) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	if wasRunning {
		<-s.doneCh
		s.term.RemoveResizeListener(s.resizeID)
	}

	if s.term != nil {
		return s.term.Close()
	}
	return nil
}

// Terminal returns the wrapped terminal instance
func (s *TerminalService) Terminal() *Terminal {
	return s.term
}

// Events returns the input event channel; closed when polling ends
func (s *TerminalService) Events() <-chan Event {
	return s.eventCh
}

// Resizes delivers the latest terminal size after each window change
func (s *TerminalService) Resizes() <-chan Size {
	return s.sizeCh
}

// Errors delivers the device failure that ended polling, if any
func (s *TerminalService) Errors() <-chan error {
	return s.errCh
}
