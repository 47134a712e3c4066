package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lixenwraith/termbridge/config"
	"github.com/lixenwraith/termbridge/service"
	"github.com/lixenwraith/termbridge/status"
	"github.com/lixenwraith/termbridge/terminal"
)

const (
	headerRows = 3
	footerRows = 2
)

var (
	titleColor  = terminal.RGB{R: 120, G: 200, B: 255}
	statusColor = terminal.Indexed(245)
	eventColor  = terminal.ColorDefault
	mouseColor  = terminal.Green
	keyColor    = terminal.Yellow
)

// session is the interactive state of one run
type session struct {
	svc      *terminal.TerminalService
	term     *terminal.Terminal
	registry *status.Registry
	log      *slog.Logger

	size     terminal.Size
	tracking terminal.MouseTracking
	events   []string
}

func run(cfg *config.Config, debug bool) (err error) {
	log, logFile, err := setupLogging(cfg.Log, debug)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	statusSvc := status.NewService()
	termSvc := terminal.NewService(statusSvc.Name())

	statusArgs := []any{cfg.Metrics.Namespace}
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		stop, err := serveMetrics(cfg.Metrics.Addr, reg, log)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		defer stop()
		statusArgs = append(statusArgs, prometheus.Registerer(reg))
	}

	ch, err := cfg.OpenChannel()
	if err != nil {
		return err
	}

	hub := service.NewHub()
	if err := hub.Register(statusSvc, statusArgs...); err != nil {
		ch.Close()
		return err
	}
	if err := hub.Register(termSvc, ch, cfg.Options(log, statusSvc)); err != nil {
		ch.Close()
		return err
	}
	if err := hub.InitAll(); err != nil {
		ch.Close()
		return err
	}
	defer func() {
		if serr := hub.StopAll(); serr != nil {
			err = errors.Join(err, serr)
		}
	}()

	tracking, _ := terminal.ParseMouseTracking(cfg.MouseTracking)
	s := &session{
		svc:      termSvc,
		term:     termSvc.Terminal(),
		registry: statusSvc.Registry(),
		log:      log,
		tracking: tracking,
	}

	defer func() {
		if r := recover(); r != nil {
			handleCrash(s.term, r)
		}
	}()

	if err := hub.StartAll(); err != nil {
		return err
	}
	return s.loop()
}

func (s *session) loop() error {
	s.size = s.term.Size()
	if err := s.render(); err != nil {
		return err
	}

	for {
		select {
		case sz := <-s.svc.Resizes():
			s.size = sz
			s.registry.SetLabel("size", fmt.Sprintf("%dx%d", sz.Columns, sz.Rows))
			s.record(fmt.Sprintf("RESIZE: %dx%d", sz.Columns, sz.Rows))

		case err := <-s.svc.Errors():
			return err

		case ev, ok := <-s.svc.Events():
			if !ok {
				// Polling ended; an error, if any, is already queued
				select {
				case err := <-s.svc.Errors():
					return err
				default:
					return nil
				}
			}
			s.registry.SetLabel("last_event", ev.String())
			quit, err := s.handle(ev)
			if err != nil || quit {
				return err
			}
		}

		if err := s.render(); err != nil {
			return err
		}
	}
}

// handle applies one event; reports true when the session should end
func (s *session) handle(ev terminal.Event) (bool, error) {
	if terminal.IsEOF(ev) {
		s.log.Info("input closed")
		return true, nil
	}

	if c, ok := ev.(terminal.CharacterEvent); ok && !c.Alt {
		switch {
		case c.Ctrl && c.Rune == 'C', !c.Ctrl && c.Rune == 'q':
			return true, nil
		case !c.Ctrl && c.Rune == 'm':
			s.tracking = (s.tracking + 1) % 3
			s.record("MOUSE TRACKING: " + s.tracking.String())
			return false, s.term.SetMouseTracking(s.tracking)
		case !c.Ctrl && c.Rune == 'b':
			s.record("BELL")
			return false, s.term.Encoder().Bell()
		}
	}

	s.record(eventLine(ev))
	return false, nil
}

// eventLine describes ev, adding tcell's name for key events
func eventLine(ev terminal.Event) string {
	line := ev.String()
	if k, ok := terminal.ToTcellEvent(ev).(*tcell.EventKey); ok {
		line += "  [tcell " + k.Name() + "]"
	}
	return line
}

func (s *session) record(line string) {
	limit := max(s.size.Rows-headerRows-footerRows, 1)
	s.events = append(s.events, line)
	if len(s.events) > limit {
		s.events = s.events[len(s.events)-limit:]
	}
}

// render redraws the whole screen through the encoder
func (s *session) render() error {
	enc := s.term.Encoder()
	var err error
	do := func(fn func() error) {
		if err == nil {
			err = fn()
		}
	}
	line := func(row int, fg terminal.Color, text string) {
		do(func() error { return enc.MoveCursor(0, row) })
		do(func() error { return enc.SetForeground(fg) })
		do(func() error { return enc.PutText(truncate(text, s.size.Columns)) })
	}

	do(enc.ResetAttributes)
	do(enc.ClearScreen)

	do(func() error { return enc.EnableAttribute(terminal.AttrBold) })
	line(0, titleColor, "Input Test - q or Ctrl+C quits, m cycles mouse tracking, b rings the bell")
	do(enc.ResetAttributes)

	pos := enc.CursorPosition()
	line(1, statusColor, fmt.Sprintf("size %dx%d | mouse %s | color %s | cursor (%d,%d)",
		s.size.Columns, s.size.Rows, s.tracking, enc.ColorMode(), pos.Column, pos.Row))

	for i, ev := range s.events {
		fg := terminal.Color(eventColor)
		switch {
		case strings.HasPrefix(ev, "mouse("):
			fg = mouseColor
		case strings.HasPrefix(ev, "key("):
			fg = keyColor
		}
		line(headerRows+i, fg, ev)
	}

	footer := fmt.Sprintf("polls %d | events %d | discarded %d | resizes %d",
		s.registry.Counter(terminal.MetricPolls),
		s.registry.Counter(terminal.MetricEventsDecoded),
		s.registry.Counter(terminal.MetricSequencesDiscarded),
		s.registry.Counter(terminal.MetricResizes))
	line(max(s.size.Rows-1, headerRows), statusColor, footer)
	do(enc.ResetAttributes)
	return err
}

func truncate(s string, cols int) string {
	r := []rune(s)
	if cols <= 0 || len(r) <= cols {
		return s
	}
	return string(r[:cols])
}
