// Package logging configures the process-wide slog handler: a plain JSON
// handler when PYMANAGER_DEBUG is set, otherwise a console handler that is
// colorized only when the writer is a terminal or PYTHON_COLORS forces it.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Setup installs the process-wide slog handler according to environment
// variables: PYMANAGER_VERBOSE raises the level to Debug, PYMANAGER_DEBUG
// switches to JSON output, PYTHON_COLORS forces color on ("1"/"always") or
// off ("0").
func Setup(w io.Writer) {
	level := slog.LevelInfo
	if os.Getenv("PYMANAGER_VERBOSE") != "" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if os.Getenv("PYMANAGER_DEBUG") != "" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = NewConsoleHandler(w, level, colorEnabled(w))
	}
	slog.SetDefault(slog.New(handler))
}

// colorEnabled decides whether the console handler should emit ANSI color,
// honoring PYTHON_COLORS before falling back to a TTY + color-profile check.
func colorEnabled(w io.Writer) bool {
	switch strings.ToLower(os.Getenv("PYTHON_COLORS")) {
	case "0", "false", "no":
		return false
	case "1", "always", "true", "yes":
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return termenv.NewOutput(f).Profile() != termenv.Ascii
}

// ConsoleHandler renders slog records as "LEVEL message key=value ..."
// lines, colorizing the level badge when color is enabled.
type ConsoleHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Level
	color bool
	attrs []slog.Attr
	group string
}

// NewConsoleHandler builds a ConsoleHandler writing to w at the given
// minimum level.
func NewConsoleHandler(w io.Writer, level slog.Level, useColor bool) *ConsoleHandler {
	return &ConsoleHandler{mu: &sync.Mutex{}, w: w, level: level, color: useColor}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.badge(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", h.qualifiedKey(a.Key), a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", h.qualifiedKey(a.Key), a.Value)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *ConsoleHandler) badge(level slog.Level) string {
	label := level.String()
	if !h.color {
		return "[" + label + "]"
	}
	var c *color.Color
	switch {
	case level >= slog.LevelError:
		c = color.New(color.FgRed, color.Bold)
	case level >= slog.LevelWarn:
		c = color.New(color.FgYellow, color.Bold)
	case level >= slog.LevelInfo:
		c = color.New(color.FgCyan)
	default:
		c = color.New(color.FgHiBlack)
	}
	return c.Sprintf("[%s]", label)
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	next := *h
	if h.group == "" {
		next.group = name
	} else {
		next.group = h.group + "." + name
	}
	return &next
}

func (h *ConsoleHandler) qualifiedKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}
