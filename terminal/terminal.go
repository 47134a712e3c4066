package terminal

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Terminal composes the decoder, encoder, mode manager and resize notifier
// over one channel. Input and output calls belong to the owning goroutine;
// the resize registry and Close are safe from any goroutine.
type Terminal struct {
	ch      Channel
	decoder *Decoder
	encoder *Encoder
	mode    *ModeManager
	resize  *ResizeNotifier

	closeOnce sync.Once
	closeErr  error
}

// New builds a terminal over ch and captures its attributes.
// On failure ch is closed.
func New(ch Channel, opts ...Option) (*Terminal, error) {
	o := buildOptions(opts)

	mode, err := newModeManager(ch, o)
	if err != nil {
		ch.Close()
		return nil, err
	}

	fallback := o.fallbackSize
	t := &Terminal{
		ch:      ch,
		decoder: newDecoder(ch, o),
		encoder: newEncoder(ch, o),
		mode:    mode,
		resize:  newResizeNotifier(func() Size { return querySize(ch, fallback) }, o),
	}
	o.logger.Debug("terminal ready", "color_mode", o.colorMode, "escape_timeout", o.escapeTimeout)
	return t, nil
}

// Open binds a terminal to the controlling tty
func Open(opts ...Option) (*Terminal, error) {
	ch, err := OpenTTY()
	if err != nil {
		return nil, err
	}
	return New(ch, opts...)
}

// Decoder returns the input decoder
func (t *Terminal) Decoder() *Decoder { return t.decoder }

// Encoder returns the output encoder
func (t *Terminal) Encoder() *Encoder { return t.encoder }

// Modes returns the mode manager
func (t *Terminal) Modes() *ModeManager { return t.mode }

// Resize returns the resize notifier
func (t *Terminal) Resize() *ResizeNotifier { return t.resize }

// Poll returns the next event or nil after timeout
func (t *Terminal) Poll(timeout time.Duration) (Event, error) {
	return t.decoder.Poll(timeout)
}

// ReadBlocking waits for the next event
func (t *Terminal) ReadBlocking() (Event, error) {
	return t.decoder.ReadBlocking()
}

// EnterPrivateMode switches to alternate screen, raw input and mouse reporting
func (t *Terminal) EnterPrivateMode() error {
	return t.mode.EnterPrivateMode()
}

// ExitPrivateMode returns to the main screen and restores the captured attributes
func (t *Terminal) ExitPrivateMode() error {
	wasPrivate := t.mode.State() == ModePrivate
	err := t.mode.ExitPrivateMode()
	if wasPrivate {
		// Teardown clears and homes the cursor
		t.encoder.homed()
	}
	return err
}

// SetMouseTracking changes the reported mouse granularity
func (t *Terminal) SetMouseTracking(m MouseTracking) error {
	return t.mode.SetMouseTracking(m)
}

// Size returns the current dimensions, falling back per dimension on 0x0
func (t *Terminal) Size() Size {
	return t.resize.Size()
}

// AddResizeListener registers l for window-size changes
func (t *Terminal) AddResizeListener(l ResizeListener) ListenerHandle {
	return t.resize.Add(l)
}

// RemoveResizeListener unregisters a listener
func (t *Terminal) RemoveResizeListener(h ListenerHandle) bool {
	return t.resize.Remove(h)
}

// Close stops resize dispatch, restores the terminal and releases the channel.
// Safe to call multiple times; later encoder calls fail with ErrClosed.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		t.resize.Stop()
		t.encoder.markClosed()
		if err := t.mode.Close(); err != nil {
			t.closeErr = fmt.Errorf("close terminal: %w", err)
		}
	})
	return t.closeErr
}

// Recover restores the terminal after a panic on a goroutine that cannot
// run Close normally. Best effort: errors are joined and returned.
func (t *Terminal) Recover() error {
	EmergencyReset(channelWriter{ch: t.ch})
	return errors.Join(t.ch.Flush(), t.ch.SetAttributes(t.mode.Snapshot()))
}
