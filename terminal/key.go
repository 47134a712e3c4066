// @focus: #sys { io } #input { keys }
package terminal

// Key identifies a non-character key carried by SpecialEvent
type Key uint8

const (
	KeyNone Key = iota

	// Control keys
	KeyEnter
	KeyBackspace
	KeyTab
	KeyBackTab // Shift+Tab (CSI Z)
	KeyEscape

	// Navigation
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyInsert
	KeyDelete
	KeyPageUp
	KeyPageDown

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// KeyEOF marks the end of the input stream
	KeyEOF
)

// keyToName maps Key constants to canonical string names
var keyToName = map[Key]string{
	KeyEnter:     "enter",
	KeyBackspace: "backspace",
	KeyTab:       "tab",
	KeyBackTab:   "backtab",
	KeyEscape:    "escape",

	KeyUp:       "up",
	KeyDown:     "down",
	KeyLeft:     "left",
	KeyRight:    "right",
	KeyHome:     "home",
	KeyEnd:      "end",
	KeyInsert:   "insert",
	KeyDelete:   "delete",
	KeyPageUp:   "page_up",
	KeyPageDown: "page_down",

	KeyF1:  "f1",
	KeyF2:  "f2",
	KeyF3:  "f3",
	KeyF4:  "f4",
	KeyF5:  "f5",
	KeyF6:  "f6",
	KeyF7:  "f7",
	KeyF8:  "f8",
	KeyF9:  "f9",
	KeyF10: "f10",
	KeyF11: "f11",
	KeyF12: "f12",

	KeyEOF: "eof",
}

// nameToKey is the reverse lookup, built from keyToName
var nameToKey map[string]Key

func init() {
	nameToKey = make(map[string]Key, len(keyToName)+1)
	for k, v := range keyToName {
		nameToKey[v] = k
	}
	nameToKey["shift_tab"] = KeyBackTab
}

// String returns the canonical key name, "none" for unknown keys
func (k Key) String() string {
	if name, ok := keyToName[k]; ok {
		return name
	}
	return "none"
}

// KeyByName resolves a canonical name to a Key constant
func KeyByName(name string) (Key, bool) {
	k, ok := nameToKey[name]
	return k, ok
}

// modifier is the xterm modifier bitmask (parameter value minus one)
type modifier uint8

const (
	modShift modifier = 1 << 0
	modAlt   modifier = 1 << 1
	modCtrl  modifier = 1 << 2
)

// finalKeys maps CSI final bytes to keys (ESC [ X or ESC [ 1 ; m X)
var finalKeys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
	'Z': KeyBackTab,
	'P': KeyF1,
	'Q': KeyF2,
	'R': KeyF3,
	'S': KeyF4,
}

// tildeKeys maps the numeric parameter of ESC [ n ~ to keys
var tildeKeys = map[int]Key{
	1:  KeyHome,
	2:  KeyInsert,
	3:  KeyDelete,
	4:  KeyEnd,
	5:  KeyPageUp,
	6:  KeyPageDown,
	7:  KeyHome,
	8:  KeyEnd,
	11: KeyF1,
	12: KeyF2,
	13: KeyF3,
	14: KeyF4,
	15: KeyF5,
	17: KeyF6,
	18: KeyF7,
	19: KeyF8,
	20: KeyF9,
	21: KeyF10,
	23: KeyF11,
	24: KeyF12,
}

// ss3Keys maps ESC O X to keys; A-F cover application cursor mode
var ss3Keys = map[byte]Key{
	'P': KeyF1,
	'Q': KeyF2,
	'R': KeyF3,
	'S': KeyF4,
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
}

// lookupCSI resolves the bytes after ESC [ (parameters plus final byte)
func lookupCSI(seq []byte) (Key, modifier, bool) {
	if len(seq) == 0 {
		return KeyNone, 0, false
	}
	final := seq[len(seq)-1]
	params, ok := parseParams(seq[:len(seq)-1])
	if !ok || len(params) > 2 {
		return KeyNone, 0, false
	}

	var key Key
	if final == '~' {
		if len(params) == 0 {
			return KeyNone, 0, false
		}
		key, ok = tildeKeys[params[0]]
	} else {
		// Letter finals only accept an empty or "1" leading parameter
		if len(params) > 0 && params[0] != 1 {
			return KeyNone, 0, false
		}
		key, ok = finalKeys[final]
		// Unmodified ESC [ P..S are not function keys on xterm
		if ok && len(params) == 0 && key >= KeyF1 && key <= KeyF4 {
			ok = false
		}
	}
	if !ok {
		return KeyNone, 0, false
	}

	var mod modifier
	if len(params) == 2 {
		if params[1] < 1 || params[1] > 16 {
			return KeyNone, 0, false
		}
		mod = modifier(params[1] - 1)
	}
	if key == KeyBackTab {
		mod |= modShift
	}
	return key, mod, true
}

// lookupSS3 resolves the byte after ESC O
func lookupSS3(b byte) (Key, bool) {
	k, ok := ss3Keys[b]
	return k, ok
}

// parseParams splits "n;n;..." into integers; empty input yields no params
func parseParams(data []byte) ([]int, bool) {
	if len(data) == 0 {
		return nil, true
	}
	params := make([]int, 0, 2)
	val := 0
	digits := 0
	for _, b := range data {
		switch {
		case b >= '0' && b <= '9':
			val = val*10 + int(b-'0')
			digits++
			if val > 9999 { // Sanity limit
				return nil, false
			}
		case b == ';':
			if digits == 0 {
				return nil, false
			}
			params = append(params, val)
			val, digits = 0, 0
		default:
			return nil, false
		}
	}
	if digits == 0 {
		return nil, false
	}
	return append(params, val), true
}
