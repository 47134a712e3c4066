package terminal

import (
	"fmt"
	"strings"
)

// Event is a decoded input event: CharacterEvent, SpecialEvent or MouseEvent
// Events are values; the decoder never retains or reuses them
type Event interface {
	eventMarker()
	String() string
}

// CharacterEvent is a printable or control character
// Control bytes are reported as their caret letter (0x01 -> 'A') with Ctrl set
type CharacterEvent struct {
	Rune  rune
	Ctrl  bool
	Alt   bool
	Shift bool
}

func (CharacterEvent) eventMarker() {}

// SpecialEvent is a named non-character key
type SpecialEvent struct {
	Key   Key
	Ctrl  bool
	Alt   bool
	Shift bool
}

func (SpecialEvent) eventMarker() {}

// MouseEvent is a decoded SGR mouse report with 0-based cell coordinates
type MouseEvent struct {
	Action MouseAction
	Button int
	Column int
	Row    int
	Ctrl   bool
	Alt    bool
	Shift  bool
}

func (MouseEvent) eventMarker() {}

// IsEOF reports whether ev marks the end of the input stream
func IsEOF(ev Event) bool {
	s, ok := ev.(SpecialEvent)
	return ok && s.Key == KeyEOF
}

func modPrefix(ctrl, alt, shift bool) string {
	var b strings.Builder
	if ctrl {
		b.WriteString("C-")
	}
	if alt {
		b.WriteString("M-")
	}
	if shift {
		b.WriteString("S-")
	}
	return b.String()
}

func (e CharacterEvent) String() string {
	return fmt.Sprintf("char(%s%q)", modPrefix(e.Ctrl, e.Alt, e.Shift), e.Rune)
}

func (e SpecialEvent) String() string {
	return fmt.Sprintf("key(%s%s)", modPrefix(e.Ctrl, e.Alt, e.Shift), e.Key)
}

func (e MouseEvent) String() string {
	return fmt.Sprintf("mouse(%s%s btn=%d col=%d row=%d)", modPrefix(e.Ctrl, e.Alt, e.Shift), e.Action, e.Button, e.Column, e.Row)
}

// setModifiers applies an xterm modifier mask to a key event
func (e *SpecialEvent) setModifiers(m modifier) {
	e.Shift = m&modShift != 0
	e.Alt = m&modAlt != 0
	e.Ctrl = m&modCtrl != 0
}
