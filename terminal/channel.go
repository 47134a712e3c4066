package terminal

import (
	"errors"
	"time"
)

var (
	// ErrTimeout is returned by Channel.ReadByte when no byte arrived in time
	ErrTimeout = errors.New("terminal: read timeout")
	// ErrClosed is returned by operations on a closed channel or terminal
	ErrClosed = errors.New("terminal: closed")
	// ErrNotTerminal is returned when the device is not a tty
	ErrNotTerminal = errors.New("terminal: not a terminal")
)

// Channel abstracts the raw terminal device.
// The unix implementation binds to a tty file descriptor; tests substitute
// scripted fakes.
type Channel interface {
	// ReadByte returns the next input byte, waiting at most timeout.
	// A negative timeout blocks until data, end of stream, or Close.
	// Returns ErrTimeout when nothing arrived and io.EOF at end of stream.
	ReadByte(timeout time.Duration) (byte, error)

	// Write writes raw bytes to the terminal output
	Write(p []byte) (int, error)

	// Flush pushes any buffered output to the device
	Flush() error

	// Attributes captures the current line discipline
	Attributes() (Attributes, error)

	// SetAttributes applies a previously captured line discipline
	SetAttributes(Attributes) error

	// EnterRawMode disables canonical input, echo and signal generation
	EnterRawMode() error

	// Size returns the device dimensions, 0x0 when the device does not know
	Size() (cols, rows int, err error)

	// Close releases the device. Safe to call multiple times.
	Close() error
}

// Size is a terminal dimension in character cells
type Size struct {
	Columns int
	Rows    int
}

// DefaultSize is reported when the device answers 0x0 (dumb or non-interactive terminals)
var DefaultSize = Size{Columns: 80, Rows: 25}

// withFallback replaces non-positive dimensions with the fallback's
func (s Size) withFallback(fallback Size) Size {
	if s.Columns <= 0 {
		s.Columns = fallback.Columns
	}
	if s.Rows <= 0 {
		s.Rows = fallback.Rows
	}
	return s
}

// querySize asks the channel for its size, substituting fallback on 0x0 or error
func querySize(ch Channel, fallback Size) Size {
	cols, rows, err := ch.Size()
	if err != nil {
		return fallback
	}
	return Size{Columns: cols, Rows: rows}.withFallback(fallback)
}
