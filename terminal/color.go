package terminal

import (
	"os"
	"strings"
)

// ColorMode indicates terminal color capability
type ColorMode uint8

const (
	ColorMode256       ColorMode = iota // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
)

// String returns the config name of the mode
func (m ColorMode) String() string {
	if m == ColorMode256 {
		return "256"
	}
	return "truecolor"
}

// ParseColorMode resolves a config name; "auto" probes the environment
func ParseColorMode(name string) (ColorMode, bool) {
	switch strings.ToLower(name) {
	case "", "auto":
		return DetectColorMode(), true
	case "truecolor", "24bit":
		return ColorModeTrueColor, true
	case "256":
		return ColorMode256, true
	}
	return ColorModeTrueColor, false
}

// Color is a foreground or background color: ANSIColor, RGB or Indexed
type Color interface {
	colorMarker()
}

// ANSIColor is one of the 16 basic terminal colors, or the terminal default
type ANSIColor uint8

const (
	Black ANSIColor = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
	BrightBlack
	BrightRed
	BrightGreen
	BrightYellow
	BrightBlue
	BrightMagenta
	BrightCyan
	BrightWhite
	ColorDefault
)

func (ANSIColor) colorMarker() {}

// sgr returns the SGR parameter for the color; base is 30 (fg) or 40 (bg)
func (c ANSIColor) sgr(base int) (int, bool) {
	switch {
	case c <= White:
		return base + int(c), true
	case c <= BrightWhite:
		return base + 60 + int(c-BrightBlack), true
	case c == ColorDefault:
		return base + 9, true
	}
	return 0, false
}

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

func (RGB) colorMarker() {}

// RGBBlack is the zero value black color
var RGBBlack = RGB{0, 0, 0}

// Equal returns true if colors match
func (c RGB) Equal(other RGB) bool {
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// Indexed is an xterm 256-palette index
type Indexed uint8

func (Indexed) colorMarker() {}

// DetectColorMode determines terminal color capability from environment
func DetectColorMode() ColorMode {
	// 1. Check COLORTERM (highest priority, set by modern terminals)
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return ColorModeTrueColor
	}

	// 2. Check terminal-specific env vars
	for _, env := range []string{
		"KITTY_WINDOW_ID",
		"KONSOLE_VERSION",
		"ITERM_SESSION_ID",
		"ALACRITTY_WINDOW_ID",
		"ALACRITTY_LOG",
		"WEZTERM_PANE",
	} {
		if os.Getenv(env) != "" {
			return ColorModeTrueColor
		}
	}

	// 3. Check TERM for known true color terminals
	termLower := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(termLower, "truecolor") ||
		strings.Contains(termLower, "24bit") ||
		strings.Contains(termLower, "direct") {
		return ColorModeTrueColor
	}

	// 4. Default to 256-color
	return ColorMode256
}
