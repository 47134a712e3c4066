//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package terminal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// pollSlice bounds a single poll(2) wait so Close is observed by blocked readers
const pollSlice = 100 * time.Millisecond

// ttyChannel implements Channel over a tty file descriptor.
// Descriptor access goes through the files' raw connections so Close cannot
// release the descriptor number while a poll or read is still using it.
type ttyChannel struct {
	in      *os.File
	out     *os.File
	inConn  syscall.RawConn
	outConn syscall.RawConn
	owned   bool // Close closes the files

	buf     [256]byte
	pending []byte // read from the device, not yet returned

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// OpenTTY opens the controlling terminal (/dev/tty) for reading and writing.
// Works even when stdin/stdout are redirected.
func OpenTTY() (Channel, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}
	ch, err := newTTYChannel(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	ch.owned = true
	return ch, nil
}

// NewChannel binds a channel to already-open files, typically os.Stdin and os.Stdout.
// The files are not closed by Close.
func NewChannel(in, out *os.File) (Channel, error) {
	return newTTYChannel(in, out)
}

func newTTYChannel(in, out *os.File) (*ttyChannel, error) {
	if !term.IsTerminal(int(in.Fd())) {
		return nil, fmt.Errorf("%s: %w", in.Name(), ErrNotTerminal)
	}
	inConn, err := in.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name(), err)
	}
	outConn, err := out.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", out.Name(), err)
	}
	return &ttyChannel{
		in:      in,
		out:     out,
		inConn:  inConn,
		outConn: outConn,
	}, nil
}

// control runs fn with the descriptor held open
func (c *ttyChannel) control(conn syscall.RawConn, fn func(fd int) error) error {
	var opErr error
	if err := conn.Control(func(fd uintptr) { opErr = fn(int(fd)) }); err != nil {
		if c.closed.Load() {
			return ErrClosed
		}
		return err
	}
	return opErr
}

// ReadByte implements Channel
func (c *ttyChannel) ReadByte(timeout time.Duration) (byte, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	if len(c.pending) > 0 {
		b := c.pending[0]
		c.pending = c.pending[1:]
		return b, nil
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if c.closed.Load() {
			return 0, ErrClosed
		}

		wait := pollSlice
		if timeout >= 0 {
			remaining := time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
			if remaining < wait {
				wait = remaining
			}
		}
		// Round up so sub-millisecond waits still block briefly
		ms := int((wait + time.Millisecond - 1) / time.Millisecond)

		// One poll slice and at most one read per hold of the descriptor
		var ready, rn int
		var pollErr, readErr error
		err := c.inConn.Read(func(fd uintptr) bool {
			fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
			ready, pollErr = unix.Poll(fds, ms)
			if pollErr != nil || ready == 0 || c.closed.Load() {
				return true
			}
			rn, readErr = unix.Read(int(fd), c.buf[:])
			return true
		})
		if err != nil {
			if c.closed.Load() {
				return 0, ErrClosed
			}
			return 0, fmt.Errorf("read: %w", err)
		}

		if pollErr != nil {
			if pollErr == unix.EINTR {
				continue
			}
			return 0, fmt.Errorf("poll: %w", pollErr)
		}
		if ready == 0 {
			if timeout >= 0 && !time.Now().Before(deadline) {
				return 0, ErrTimeout
			}
			continue
		}
		if c.closed.Load() {
			return 0, ErrClosed
		}

		if readErr != nil {
			switch readErr {
			case unix.EINTR, unix.EAGAIN:
				continue
			case unix.EIO:
				// Hangup: the other side of the line went away
				return 0, io.EOF
			}
			return 0, fmt.Errorf("read: %w", readErr)
		}
		if rn == 0 {
			return 0, io.EOF
		}

		c.pending = c.buf[1:rn]
		return c.buf[0], nil
	}
}

// Write implements Channel
func (c *ttyChannel) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	return c.out.Write(p)
}

// Flush implements Channel; writes go straight to the descriptor
func (c *ttyChannel) Flush() error {
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Attributes implements Channel
func (c *ttyChannel) Attributes() (Attributes, error) {
	if c.closed.Load() {
		return Attributes{}, ErrClosed
	}
	var a Attributes
	err := c.control(c.inConn, func(fd int) error {
		var err error
		a, err = getAttributes(fd)
		return err
	})
	if err != nil {
		if err == ErrClosed {
			return Attributes{}, err
		}
		return Attributes{}, fmt.Errorf("get termios: %w", err)
	}
	return a, nil
}

// SetAttributes implements Channel
func (c *ttyChannel) SetAttributes(a Attributes) error {
	if c.closed.Load() {
		return ErrClosed
	}
	err := c.control(c.inConn, func(fd int) error { return setAttributes(fd, a) })
	if err != nil {
		if err == ErrClosed {
			return err
		}
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

// EnterRawMode implements Channel
func (c *ttyChannel) EnterRawMode() error {
	if c.closed.Load() {
		return ErrClosed
	}
	// The returned state is discarded: the mode manager owns the snapshot
	err := c.control(c.inConn, func(fd int) error {
		_, err := term.MakeRaw(fd)
		return err
	})
	if err != nil {
		if err == ErrClosed {
			return err
		}
		return fmt.Errorf("make raw: %w", err)
	}
	return nil
}

// Size implements Channel
func (c *ttyChannel) Size() (int, int, error) {
	if c.closed.Load() {
		return 0, 0, ErrClosed
	}
	var cols, rows int
	err := c.control(c.outConn, func(fd int) error {
		var err error
		cols, rows, err = term.GetSize(fd)
		return err
	})
	return cols, rows, err
}

// Close implements Channel
func (c *ttyChannel) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.owned {
			c.closeErr = c.in.Close()
			if c.out != c.in {
				if err := c.out.Close(); err != nil && c.closeErr == nil {
					c.closeErr = err
				}
			}
		}
	})
	return c.closeErr
}
