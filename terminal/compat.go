package terminal

import (
	"github.com/gdamore/tcell/v2"
)

// Conversions between terminal and tcell types, for consumers whose
// windowing layer is built on tcell.

var tcellKeys = map[Key]tcell.Key{
	KeyEnter:     tcell.KeyEnter,
	KeyBackspace: tcell.KeyBackspace2,
	KeyTab:       tcell.KeyTab,
	KeyBackTab:   tcell.KeyBacktab,
	KeyEscape:    tcell.KeyEscape,
	KeyUp:        tcell.KeyUp,
	KeyDown:      tcell.KeyDown,
	KeyLeft:      tcell.KeyLeft,
	KeyRight:     tcell.KeyRight,
	KeyHome:      tcell.KeyHome,
	KeyEnd:       tcell.KeyEnd,
	KeyInsert:    tcell.KeyInsert,
	KeyDelete:    tcell.KeyDelete,
	KeyPageUp:    tcell.KeyPgUp,
	KeyPageDown:  tcell.KeyPgDn,
	KeyF1:        tcell.KeyF1,
	KeyF2:        tcell.KeyF2,
	KeyF3:        tcell.KeyF3,
	KeyF4:        tcell.KeyF4,
	KeyF5:        tcell.KeyF5,
	KeyF6:        tcell.KeyF6,
	KeyF7:        tcell.KeyF7,
	KeyF8:        tcell.KeyF8,
	KeyF9:        tcell.KeyF9,
	KeyF10:       tcell.KeyF10,
	KeyF11:       tcell.KeyF11,
	KeyF12:       tcell.KeyF12,
}

func tcellMod(ctrl, alt, shift bool) tcell.ModMask {
	var m tcell.ModMask
	if shift {
		m |= tcell.ModShift
	}
	if alt {
		m |= tcell.ModAlt
	}
	if ctrl {
		m |= tcell.ModCtrl
	}
	return m
}

// ToTcellEvent converts a decoded event; returns nil for EOF and unmapped keys
func ToTcellEvent(ev Event) tcell.Event {
	switch e := ev.(type) {
	case CharacterEvent:
		mod := tcellMod(e.Ctrl, e.Alt, e.Shift)
		// Caret letters map onto tcell's control block starting at KeyCtrlSpace (Ctrl+@)
		if e.Ctrl && e.Rune >= '@' && e.Rune <= '_' {
			return tcell.NewEventKey(tcell.KeyCtrlSpace+tcell.Key(e.Rune-'@'), e.Rune, mod)
		}
		return tcell.NewEventKey(tcell.KeyRune, e.Rune, mod)

	case SpecialEvent:
		k, ok := tcellKeys[e.Key]
		if !ok {
			return nil
		}
		return tcell.NewEventKey(k, 0, tcellMod(e.Ctrl, e.Alt, e.Shift))

	case MouseEvent:
		var btn tcell.ButtonMask
		switch e.Action {
		case MouseScrollUp:
			btn = tcell.WheelUp
		case MouseScrollDown:
			btn = tcell.WheelDown
		case MouseClickDown, MouseDrag:
			btn = tcellButton(e.Button)
		}
		// Release and bare motion carry no pressed buttons
		return tcell.NewEventMouse(e.Column, e.Row, btn, tcellMod(e.Ctrl, e.Alt, e.Shift))
	}
	return nil
}

// tcellButton maps xterm numbering (1 left, 2 middle, 3 right)
func tcellButton(b int) tcell.ButtonMask {
	switch b {
	case MouseButtonLeft:
		return tcell.ButtonPrimary
	case MouseButtonMiddle:
		return tcell.ButtonMiddle
	case MouseButtonRight:
		return tcell.ButtonSecondary
	}
	return tcell.ButtonNone
}

// ColorFromTcell converts a tcell color to an encoder color.
// Invalid colors return nil, which the encoder ignores.
func ColorFromTcell(c tcell.Color) Color {
	switch {
	case c == tcell.ColorDefault:
		return ColorDefault
	case c&tcell.ColorIsRGB != 0:
		r, g, b := c.RGB()
		return RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
	case c&tcell.ColorValid != 0:
		idx := int(c - tcell.ColorValid)
		if idx < 16 {
			return ANSIColor(idx)
		}
		return Indexed(idx)
	}
	return nil
}

// ColorToTcell converts an encoder color to tcell
func ColorToTcell(c Color) tcell.Color {
	switch v := c.(type) {
	case ANSIColor:
		if v == ColorDefault || v > BrightWhite {
			return tcell.ColorDefault
		}
		return tcell.PaletteColor(int(v))
	case RGB:
		return tcell.NewRGBColor(int32(v.R), int32(v.G), int32(v.B))
	case Indexed:
		return tcell.PaletteColor(int(v))
	}
	return tcell.ColorDefault
}

// attrTcell pairs each attribute with its tcell counterpart
var attrTcell = [...]struct {
	attr Attr
	mask tcell.AttrMask
}{
	{AttrBold, tcell.AttrBold},
	{AttrDim, tcell.AttrDim},
	{AttrItalic, tcell.AttrItalic},
	{AttrUnderline, tcell.AttrUnderline},
	{AttrBlink, tcell.AttrBlink},
	{AttrReverse, tcell.AttrReverse},
	{AttrStrikethrough, tcell.AttrStrikeThrough},
}

// AttrToTcell converts terminal.Attr to tcell.AttrMask
func AttrToTcell(a Attr) tcell.AttrMask {
	mask := tcell.AttrNone
	for _, p := range attrTcell {
		if a&p.attr != 0 {
			mask |= p.mask
		}
	}
	return mask
}

// AttrFromTcell converts tcell.AttrMask to terminal.Attr; unsupported bits are dropped
func AttrFromTcell(mask tcell.AttrMask) Attr {
	var a Attr
	for _, p := range attrTcell {
		if mask&p.mask != 0 {
			a |= p.attr
		}
	}
	return a
}
