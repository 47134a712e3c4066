package terminal

import (
	"bytes"
	"errors"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// withClock injects a time source
func withClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// chunk is scripted input arriving gap after the previous chunk
type chunk struct {
	gap  time.Duration
	data []byte
}

// fakeChannel replays scripted input against a fake clock and records output.
// Waiting for a gap advances the clock instead of sleeping.
type fakeChannel struct {
	clock  *fakeClock
	script []chunk
	eof    bool // end of script reads as io.EOF; otherwise as timeouts

	out      bytes.Buffer
	ops      []string // write/raw/flush/setattr/close in call order
	flushes  int
	attrs    Attributes
	rawCalls int

	cols, rows int
	sizeErr    error

	writeErr   error
	setAttrErr error
	readErr    error

	closed     bool
	closeCalls int
}

func cookedAttributes() Attributes {
	return Attributes{
		termios: unix.Termios{
			Iflag: unix.ICRNL | unix.IXON,
			Oflag: unix.OPOST,
			Lflag: unix.ICANON | unix.ECHO | unix.ISIG | unix.IEXTEN,
		},
		valid: true,
	}
}

func newFakeChannel(clock *fakeClock) *fakeChannel {
	return &fakeChannel{
		clock: clock,
		attrs: cookedAttributes(),
		cols:  120,
		rows:  40,
	}
}

// feed queues bytes available immediately after the previous chunk
func (c *fakeChannel) feed(s string) *fakeChannel {
	return c.feedAfter(0, s)
}

// feedAfter queues bytes arriving gap after the previous chunk
func (c *fakeChannel) feedAfter(gap time.Duration, s string) *fakeChannel {
	c.script = append(c.script, chunk{gap: gap, data: []byte(s)})
	return c
}

func (c *fakeChannel) ReadByte(timeout time.Duration) (byte, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if c.readErr != nil {
		return 0, c.readErr
	}
	for len(c.script) > 0 && len(c.script[0].data) == 0 {
		c.script = c.script[1:]
	}

	if len(c.script) == 0 {
		if c.eof || timeout < 0 {
			return 0, io.EOF
		}
		c.clock.Advance(timeout)
		return 0, ErrTimeout
	}

	next := &c.script[0]
	if next.gap > 0 {
		if timeout >= 0 && next.gap > timeout {
			c.clock.Advance(timeout)
			next.gap -= timeout
			return 0, ErrTimeout
		}
		c.clock.Advance(next.gap)
		next.gap = 0
	}
	b := next.data[0]
	next.data = next.data[1:]
	return b, nil
}

func (c *fakeChannel) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.ops = append(c.ops, "write "+string(p))
	return c.out.Write(p)
}

func (c *fakeChannel) Flush() error {
	if c.closed {
		return ErrClosed
	}
	c.flushes++
	c.ops = append(c.ops, "flush")
	return nil
}

func (c *fakeChannel) Attributes() (Attributes, error) {
	if c.closed {
		return Attributes{}, ErrClosed
	}
	return c.attrs, nil
}

func (c *fakeChannel) SetAttributes(a Attributes) error {
	if c.closed {
		return ErrClosed
	}
	if c.setAttrErr != nil {
		return c.setAttrErr
	}
	c.attrs = a
	c.ops = append(c.ops, "setattr")
	return nil
}

func (c *fakeChannel) EnterRawMode() error {
	if c.closed {
		return ErrClosed
	}
	c.rawCalls++
	c.ops = append(c.ops, "raw")
	c.attrs.termios.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG | unix.IEXTEN
	c.attrs.termios.Iflag &^= unix.ICRNL | unix.IXON
	c.attrs.termios.Oflag &^= unix.OPOST
	return nil
}

func (c *fakeChannel) Size() (int, int, error) {
	if c.closed {
		return 0, 0, ErrClosed
	}
	return c.cols, c.rows, c.sizeErr
}

func (c *fakeChannel) Close() error {
	c.closeCalls++
	c.closed = true
	c.ops = append(c.ops, "close")
	return nil
}

// takeOps returns and clears the recorded operations
func (c *fakeChannel) takeOps() []string {
	ops := c.ops
	c.ops = nil
	return ops
}

// takeOutput returns and clears the recorded output
func (c *fakeChannel) takeOutput() string {
	s := c.out.String()
	c.out.Reset()
	c.ops = nil
	return s
}

var errDevice = errors.New("device failure")

// countingMetrics records increments by name
type countingMetrics map[string]int

func (m countingMetrics) Inc(name string) { m[name]++ }
