// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package logging configures the process-wide slog logger.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ParseLevel normalizes a log level string into slog.Level.
// Unknown values return slog.LevelInfo with an error.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level")
	}
}

// Options controls logger formatting
type Options struct {
	Level  string
	Format string // auto, json, or text
	Writer io.Writer
}

// New builds a logger. The auto format writes text to a terminal and JSON
// everywhere else.
func New(opt Options) (*slog.Logger, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, err
	}

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}

	json, err := useJSON(opt.Format, w)
	if err != nil {
		return nil, err
	}

	ho := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}
	if json {
		return slog.New(slog.NewJSONHandler(w, ho)), nil
	}
	return slog.New(slog.NewTextHandler(w, ho)), nil
}

// Setup builds a logger and installs it as the slog default
func Setup(opt Options) error {
	lg, err := New(opt)
	if err != nil {
		return err
	}
	slog.SetDefault(lg)
	return nil
}

func useJSON(format string, w io.Writer) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(format)) {
	case "json":
		return true, nil
	case "text":
		return false, nil
	case "", "auto":
		f, ok := w.(*os.File)
		if !ok {
			return true, nil
		}
		fd := f.Fd()
		return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd), nil
	default:
		return false, errors.New("invalid log format")
	}
}
