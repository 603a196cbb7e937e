// Package logging builds the logrus logger shared by the CLI, the TUI and
// the dev server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Config selects level, format and destination
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
	Output string `mapstructure:"output"` // stdout, stderr, file or discard
	File   string `mapstructure:"file"`
}

// New returns a configured logger and a cleanup func that closes any log file
func New(c Config) (*logrus.Logger, func(), error) {
	l := logrus.New()
	cleanup := func() {}

	level := logrus.InfoLevel
	if c.Level != "" {
		parsed, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, cleanup, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}
	l.SetLevel(level)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, cleanup, fmt.Errorf("unknown log format %q", c.Format)
	}

	switch c.Output {
	case "stdout":
		l.SetOutput(os.Stdout)
	case "", "stderr":
		l.SetOutput(os.Stderr)
	case "discard":
		l.SetOutput(io.Discard)
	case "file":
		if c.File == "" {
			return nil, cleanup, fmt.Errorf("log output is file but no log file is set")
		}
		if err := os.MkdirAll(filepath.Dir(c.File), 0755); err != nil {
			return nil, cleanup, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to open log file: %w", err)
		}
		l.SetOutput(f)
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
		if c.Format == "json" {
			l.SetFormatter(&logrus.JSONFormatter{})
		}
		cleanup = func() { _ = f.Close() }
	default:
		return nil, cleanup, fmt.Errorf("unknown log output %q", c.Output)
	}

	return l, cleanup, nil
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
