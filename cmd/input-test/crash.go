package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/lixenwraith/termbridge/terminal"
)

// handleCrash restores the terminal and prints the panic with its stack trace
func handleCrash(term *terminal.Terminal, r any) {
	if r == nil {
		return
	}

	if term != nil {
		if err := term.Recover(); err != nil {
			terminal.EmergencyReset(os.Stdout)
		}
	} else {
		terminal.EmergencyReset(os.Stdout)
	}
	os.Stdout.Sync()

	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	os.Stderr.Sync()

	os.Exit(1)
}
