//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package terminal

import (
	"golang.org/x/sys/unix"
)

// Attributes is an opaque snapshot of the terminal line discipline (termios)
type Attributes struct {
	termios unix.Termios
	valid   bool
}

// Valid reports whether the snapshot holds captured state
func (a Attributes) Valid() bool {
	return a.valid
}

// Equal reports whether two snapshots describe the same line discipline
func (a Attributes) Equal(b Attributes) bool {
	return a.valid == b.valid && a.termios == b.termios
}

// Raw reports whether canonical input and echo are both disabled
func (a Attributes) Raw() bool {
	return a.valid && a.termios.Lflag&(unix.ICANON|unix.ECHO) == 0
}

// getAttributes reads the termios of fd
func getAttributes(fd int) (Attributes, error) {
	t, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return Attributes{}, err
	}
	return Attributes{termios: *t, valid: true}, nil
}

// setAttributes writes a captured termios back to fd
func setAttributes(fd int, a Attributes) error {
	if !a.valid {
		return nil
	}
	t := a.termios
	return unix.IoctlSetTermios(fd, ioctlWriteTermios, &t)
}
