package terminal

// MouseAction represents the type of mouse event
type MouseAction uint8

const (
	MouseClickDown MouseAction = iota
	MouseClickRelease
	MouseDrag
	MouseMove
	MouseScrollUp
	MouseScrollDown
)

// MouseTracking controls which mouse events the terminal reports
type MouseTracking uint8

const (
	MouseTrackingOff    MouseTracking = iota
	MouseTrackingNormal               // Press/release and drags (?1000 + ?1002)
	MouseTrackingAny                  // Every motion (?1000 + ?1003)
)

// Button numbers reported on MouseEvent
const (
	MouseButtonLeft       = 1
	MouseButtonMiddle     = 2
	MouseButtonRight      = 3
	MouseButtonWheelUp    = 4
	MouseButtonWheelDown  = 5
	sgrMotionBit          = 0x20
	sgrScrollBit          = 0x40
	sgrModifierBits       = 0x04 | 0x08 | 0x10
	sgrNoButtonMotionCode = 35 // motion bit + button bits 3 (no button held)
)

// String returns human-readable action name
func (a MouseAction) String() string {
	switch a {
	case MouseClickDown:
		return "ClickDown"
	case MouseClickRelease:
		return "ClickRelease"
	case MouseDrag:
		return "Drag"
	case MouseMove:
		return "Move"
	case MouseScrollUp:
		return "ScrollUp"
	case MouseScrollDown:
		return "ScrollDown"
	default:
		return "None"
	}
}

// String returns the tracking mode name
func (m MouseTracking) String() string {
	switch m {
	case MouseTrackingNormal:
		return "normal"
	case MouseTrackingAny:
		return "any"
	default:
		return "off"
	}
}

// ParseMouseTracking resolves a tracking mode name
func ParseMouseTracking(name string) (MouseTracking, bool) {
	switch name {
	case "off", "":
		return MouseTrackingOff, true
	case "normal":
		return MouseTrackingNormal, true
	case "any":
		return MouseTrackingAny, true
	}
	return MouseTrackingOff, false
}

// decodeSGRMouse turns the body of ESC [ < body (M|m) into an event
// body is "button;column;row" with 1-based coordinates
func decodeSGRMouse(body []byte, final byte) (MouseEvent, bool) {
	params, ok := parseParams(body)
	if !ok || len(params) != 3 {
		return MouseEvent{}, false
	}
	code, col, row := params[0], params[1], params[2]
	if col < 1 || row < 1 {
		return MouseEvent{}, false
	}

	ev := MouseEvent{
		Column: col - 1,
		Row:    row - 1,
		Shift:  code&0x04 != 0,
		Alt:    code&0x08 != 0,
		Ctrl:   code&0x10 != 0,
	}
	base := code &^ sgrModifierBits

	if base&sgrScrollBit != 0 {
		switch base {
		case sgrScrollBit:
			ev.Action, ev.Button = MouseScrollUp, MouseButtonWheelUp
		case sgrScrollBit + 1:
			ev.Action, ev.Button = MouseScrollDown, MouseButtonWheelDown
		default:
			// Horizontal wheel and extended buttons are not modeled
			return MouseEvent{}, false
		}
		if final == 'm' {
			ev.Action = MouseClickRelease
		}
		return ev, true
	}

	ev.Button = (base&^sgrMotionBit)%3 + 1
	switch {
	case final == 'm':
		ev.Action = MouseClickRelease
	case base == sgrNoButtonMotionCode:
		ev.Action = MouseMove
	case base&sgrMotionBit != 0:
		ev.Action = MouseDrag
	default:
		ev.Action = MouseClickDown
	}
	return ev, true
}
