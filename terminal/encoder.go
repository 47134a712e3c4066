// @focus: #sys { term } #render { output }
package terminal

import (
	"bufio"
	"log/slog"
	"unicode/utf8"
)

// Attr represents text attributes (bitmask)
type Attr uint8

const (
	AttrNone          Attr = 0
	AttrBold          Attr = 1 << 0
	AttrDim           Attr = 1 << 1
	AttrItalic        Attr = 1 << 2
	AttrUnderline     Attr = 1 << 3
	AttrBlink         Attr = 1 << 4
	AttrReverse       Attr = 1 << 5
	AttrStrikethrough Attr = 1 << 6
)

// AttrStyle masks every attribute the encoder knows how to emit
const AttrStyle Attr = AttrBold | AttrDim | AttrItalic | AttrUnderline | AttrBlink | AttrReverse | AttrStrikethrough

// attrCodes lists SGR on/off parameters in bit order
var attrCodes = [...]struct {
	attr    Attr
	on, off int
}{
	{AttrBold, 1, 22},
	{AttrDim, 2, 22},
	{AttrItalic, 3, 23},
	{AttrUnderline, 4, 24},
	{AttrBlink, 5, 25},
	{AttrReverse, 7, 27},
	{AttrStrikethrough, 9, 29},
}

// Position is a zero-based cursor location
type Position struct {
	Column int
	Row    int
}

// channelWriter adapts Channel to io.Writer for bufio
type channelWriter struct {
	ch Channel
}

func (w channelWriter) Write(p []byte) (int, error) {
	return w.ch.Write(p)
}

// Encoder writes terminal control sequences and tracks the cursor locally.
// Every call flushes; the cursor model is never re-queried from the device.
// Not safe for concurrent use.
type Encoder struct {
	ch        Channel
	w         *bufio.Writer
	colorMode ColorMode
	log       *slog.Logger

	pos    Position
	closed bool
}

// NewEncoder creates an encoder writing to ch
func NewEncoder(ch Channel, opts ...Option) *Encoder {
	return newEncoder(ch, buildOptions(opts))
}

func newEncoder(ch Channel, o options) *Encoder {
	return &Encoder{
		ch:        ch,
		w:         bufio.NewWriterSize(channelWriter{ch: ch}, 4096),
		colorMode: o.colorMode,
		log:       o.logger.With("component", "encoder"),
	}
}

// CursorPosition returns the locally tracked cursor
func (e *Encoder) CursorPosition() Position {
	return e.pos
}

// ColorMode returns the color encoding in use
func (e *Encoder) ColorMode() ColorMode {
	return e.colorMode
}

// MoveCursor positions the cursor (0-indexed); negative coordinates clamp to 0
func (e *Encoder) MoveCursor(col, row int) error {
	if e.closed {
		return ErrClosed
	}
	col, row = max(col, 0), max(row, 0)
	writeCursorPos(e.w, col, row)
	if err := e.flush(); err != nil {
		return err
	}
	e.pos = Position{Column: col, Row: row}
	return nil
}

// SetCursorVisible shows or hides the cursor
func (e *Encoder) SetCursorVisible(visible bool) error {
	if e.closed {
		return ErrClosed
	}
	if visible {
		e.w.Write(csiCursorShow)
	} else {
		e.w.Write(csiCursorHide)
	}
	return e.flush()
}

// ClearScreen erases the display and homes the cursor
func (e *Encoder) ClearScreen() error {
	if e.closed {
		return ErrClosed
	}
	e.w.Write(csiClear)
	if err := e.flush(); err != nil {
		return err
	}
	e.pos = Position{}
	return nil
}

// PutChar writes one character and advances the tracked column
func (e *Encoder) PutChar(r rune) error {
	if e.closed {
		return ErrClosed
	}
	e.w.WriteRune(r)
	if err := e.flush(); err != nil {
		return err
	}
	e.pos.Column++
	return nil
}

// PutText writes s and advances the tracked column by its rune count.
// No wrapping or control-character interpretation is modeled.
func (e *Encoder) PutText(s string) error {
	if e.closed {
		return ErrClosed
	}
	if s == "" {
		return nil
	}
	e.w.WriteString(s)
	if err := e.flush(); err != nil {
		return err
	}
	e.pos.Column += utf8.RuneCountInString(s)
	return nil
}

// SetForeground sets the text color
func (e *Encoder) SetForeground(c Color) error {
	return e.setColor(c, 30)
}

// SetBackground sets the cell background color
func (e *Encoder) SetBackground(c Color) error {
	return e.setColor(c, 40)
}

// setColor emits the SGR for c; base is 30 (fg) or 40 (bg)
func (e *Encoder) setColor(c Color, base int) error {
	if e.closed {
		return ErrClosed
	}
	// Extended color selector: 38 (fg) or 48 (bg)
	ext := base + 8

	switch v := c.(type) {
	case ANSIColor:
		p, ok := v.sgr(base)
		if !ok {
			return nil
		}
		writeSGR(e.w, p)
	case RGB:
		if e.colorMode == ColorMode256 {
			writeSGR(e.w, ext, 5, int(RGBTo256(v)))
		} else {
			writeSGR(e.w, ext, 2, int(v.R), int(v.G), int(v.B))
		}
	case Indexed:
		writeSGR(e.w, ext, 5, int(v))
	default:
		e.log.Debug("unsupported color ignored", "color", c)
		return nil
	}
	return e.flush()
}

// EnableAttribute turns on every known attribute in a; unknown bits are ignored
func (e *Encoder) EnableAttribute(a Attr) error {
	return e.setAttribute(a, true)
}

// DisableAttribute turns off every known attribute in a.
// Bold and Dim share their off code, so disabling either clears both.
func (e *Encoder) DisableAttribute(a Attr) error {
	return e.setAttribute(a, false)
}

func (e *Encoder) setAttribute(a Attr, on bool) error {
	if e.closed {
		return ErrClosed
	}
	if a&AttrStyle == 0 {
		return nil
	}

	var params [len(attrCodes)]int
	n := 0
	for _, ac := range attrCodes {
		if a&ac.attr == 0 {
			continue
		}
		code := ac.off
		if on {
			code = ac.on
		}
		// Bold and Dim both map to 22 when turning off
		if n > 0 && params[n-1] == code {
			continue
		}
		params[n] = code
		n++
	}
	writeSGR(e.w, params[:n]...)
	return e.flush()
}

// ResetAttributes clears all colors and attributes (SGR 0)
func (e *Encoder) ResetAttributes() error {
	if e.closed {
		return ErrClosed
	}
	e.w.Write(csiSGR0)
	return e.flush()
}

// Bell emits BEL
func (e *Encoder) Bell() error {
	if e.closed {
		return ErrClosed
	}
	e.w.Write(bel)
	return e.flush()
}

// Flush pushes pending output to the device
func (e *Encoder) Flush() error {
	if e.closed {
		return ErrClosed
	}
	return e.flush()
}

func (e *Encoder) flush() error {
	if err := e.w.Flush(); err != nil {
		return err
	}
	return e.ch.Flush()
}

// homed records a clear-and-home issued outside the encoder
func (e *Encoder) homed() {
	e.pos = Position{}
}

// markClosed makes every later call fail with ErrClosed
func (e *Encoder) markClosed() {
	e.closed = true
}
