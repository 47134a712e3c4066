// @focus: #sys { term }
// Package terminal adapts a raw, byte-oriented terminal connection into a
// structured event/command interface.
//
// Features:
//   - Input decoding: C0 controls, UTF-8 text, CSI/SS3 keys, SGR mouse reports
//   - Timeout-based disambiguation of a bare ESC from a sequence start
//   - Output encoding: cursor addressing, SGR colors/attributes, bell
//   - Local cursor bookkeeping (the device is never queried for position)
//   - Private mode: alternate screen, raw input, mouse tracking, symmetric teardown
//   - SIGWINCH resize notification to an ordered listener registry
//
// This package bypasses terminfo/termcap entirely, emitting direct ANSI sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
