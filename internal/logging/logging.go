// Package logging builds the process logger.
//
// Logs go to stderr because stdout carries the MCP protocol. Output is
// coloured with tint when stderr is a terminal and plain otherwise.
//
// # Testing
//
// Tests use testify's require for preconditions and assert for checks.
// Packages written for matching use testify; the image-processing packages
// keep plain testing.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// ParseLevel maps debug, info, warn/warning and error (any case) to a slog
// level. Unknown values map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger writing to w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.DateTime,
		NoColor:    !isTerminal(w),
	}))
}

// NewStderr is New(os.Stderr, level).
func NewStderr(level string) *slog.Logger {
	return New(os.Stderr, level)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
