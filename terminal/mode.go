// @focus: #sys { term } #lifecycle { mode }
package terminal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// ModeState is the screen/input mode of the terminal
type ModeState uint8

const (
	ModeNormal  ModeState = iota // Cooked line discipline, main screen
	ModePrivate                  // Raw input, alternate screen, mouse reporting
)

// String returns the state name
func (s ModeState) String() string {
	if s == ModePrivate {
		return "private"
	}
	return "normal"
}

// ModeManager owns the line-discipline snapshot and the screen mode.
// The snapshot is captured once at construction and restored verbatim on
// exit from private mode and on Close.
type ModeManager struct {
	ch       Channel
	log      *slog.Logger
	metrics  Metrics
	tracking MouseTracking // granularity enabled on private entry

	mu       sync.Mutex
	snapshot Attributes
	state    ModeState
	current  MouseTracking
	closed   bool
}

// NewModeManager captures the channel's current attributes; state starts Normal
func NewModeManager(ch Channel, opts ...Option) (*ModeManager, error) {
	return newModeManager(ch, buildOptions(opts))
}

func newModeManager(ch Channel, o options) (*ModeManager, error) {
	m := &ModeManager{
		ch:       ch,
		log:      o.logger.With("component", "mode"),
		metrics:  o.metrics,
		tracking: o.privateTracking,
	}
	snap, err := ch.Attributes()
	if err != nil {
		return nil, fmt.Errorf("capture terminal attributes: %w", err)
	}
	m.snapshot = snap
	return m, nil
}

// State returns the current mode
func (m *ModeManager) State() ModeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// MouseTracking returns the last tracking mode written to the terminal
func (m *ModeManager) MouseTracking() MouseTracking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Snapshot returns the attributes captured at construction
func (m *ModeManager) Snapshot() Attributes {
	return m.snapshot
}

// EnterPrivateMode switches to the alternate screen, raw input and mouse reporting.
// No-op when already private. A failure leaves the manager in private state
// so ExitPrivateMode or Close restores the terminal.
func (m *ModeManager) EnterPrivateMode() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.state == ModePrivate {
		return nil
	}
	m.state = ModePrivate

	// Order matters: raw mode after the screen switch, tracking last
	if err := m.write(csiAltScreenEnter); err != nil {
		return fmt.Errorf("enter alternate screen: %w", err)
	}
	if err := m.ch.EnterRawMode(); err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	if err := m.setTracking(m.tracking); err != nil {
		return fmt.Errorf("enable mouse tracking: %w", err)
	}
	if err := m.ch.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	m.log.Debug("entered private mode", "mouse", m.tracking)
	return nil
}

// ExitPrivateMode restores the main screen and the captured attributes.
// No-op when already normal. Every step runs even if an earlier one failed;
// the failures are joined into the returned error.
func (m *ModeManager) ExitPrivateMode() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.state == ModeNormal {
		return nil
	}
	err := m.teardown()
	m.state = ModeNormal
	m.log.Debug("exited private mode", "error", err)
	return err
}

// SetMouseTracking changes the reported mouse granularity
func (m *ModeManager) SetMouseTracking(t MouseTracking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if err := m.setTracking(t); err != nil {
		return err
	}
	return m.ch.Flush()
}

// Close runs the full teardown regardless of state, then releases the channel.
// Safe to call multiple times.
func (m *ModeManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	err := m.teardown()
	m.state = ModeNormal
	if cerr := m.ch.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close channel: %w", cerr))
	}
	return err
}

// teardown restores the terminal; caller holds mu
func (m *ModeManager) teardown() error {
	var errs []error
	step := func(name string, fn func() error) {
		if err := m.guard(fn); err != nil {
			m.metrics.Inc(MetricTeardownFailures)
			m.log.Warn("teardown step failed", "step", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	step("disable mouse", func() error { return m.setTracking(MouseTrackingOff) })
	step("reset attributes", func() error { return m.write(csiSGR0) })
	step("show cursor", func() error { return m.write(csiCursorShow) })
	step("exit alternate screen", func() error { return m.write(csiAltScreenExit) })
	step("clear screen", func() error { return m.write(csiClear) })
	step("flush", m.ch.Flush)
	step("restore attributes", func() error { return m.ch.SetAttributes(m.snapshot) })

	return errors.Join(errs...)
}

// guard converts a panicking step into an error
func (m *ModeManager) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// setTracking clears the active reporting modes then enables t's; caller holds mu.
// Switching to Off always writes every disable sequence.
// The local mode is updated even on write failure; the device state is unknown then.
func (m *ModeManager) setTracking(t MouseTracking) error {
	prev := m.current
	m.current = t
	var err error
	write := func(seq []byte) {
		if err == nil {
			err = m.write(seq)
		}
	}

	if prev != MouseTrackingOff || t == MouseTrackingOff {
		write(csiMouseClickOff)
		write(csiMouseDragOff)
		write(csiMouseMotionOff)
		write(csiMouseSGROff)
	}

	switch t {
	case MouseTrackingNormal:
		write(csiMouseClickOn)
		write(csiMouseDragOn)
		write(csiMouseSGROn)
	case MouseTrackingAny:
		write(csiMouseClickOn)
		write(csiMouseMotionOn)
		write(csiMouseSGROn)
	}
	return err
}

func (m *ModeManager) write(seq []byte) error {
	_, err := m.ch.Write(seq)
	return err
}

// EmergencyReset attempts to restore terminal to sane state
// Call this from panic recovery when Close cannot run normally.
// Escape sequences alone do not restore the line discipline.
func EmergencyReset(w io.Writer) {
	// Disable mouse tracking
	w.Write(csiMouseClickOff)
	w.Write(csiMouseDragOff)
	w.Write(csiMouseMotionOff)
	w.Write(csiMouseSGROff)

	w.Write(csiSGR0)
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiRIS)

	// Flush if it's a file
	if f, ok := w.(*os.File); ok {
		f.Sync()
	}
}
