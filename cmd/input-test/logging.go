package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lixenwraith/termbridge/config"
)

const (
	logDir      = "logs"
	logFileName = "input-test.log"
)

// setupLogging returns a file-backed logger when debug is set or a log file is
// configured, and a discarding logger otherwise. Output never goes to the
// terminal under test. The returned file is nil when logging is disabled.
func setupLogging(cfg config.LogConfig, debug bool) (*slog.Logger, *os.File, error) {
	if !debug && cfg.File == "" {
		return slog.New(slog.DiscardHandler), nil, nil
	}

	path := cfg.File
	if path == "" {
		path = filepath.Join(logDir, logFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := rotateLog(path, cfg.MaxSize); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	level, _ := config.ParseLevel(cfg.Level)
	if debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(io.Writer(f), &slog.HandlerOptions{Level: level}))
	return logger, f, nil
}

// rotateLog renames path to a timestamped sibling once it exceeds maxSize bytes
func rotateLog(path string, maxSize int64) error {
	if maxSize <= 0 {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() < maxSize {
		return nil
	}
	ext := filepath.Ext(path)
	rotated := fmt.Sprintf("%s.%s%s", path[:len(path)-len(ext)], time.Now().Format("20060102-150405"), ext)
	if err := os.Rename(path, rotated); err != nil {
		return fmt.Errorf("rotate log: %w", err)
	}
	return nil
}
