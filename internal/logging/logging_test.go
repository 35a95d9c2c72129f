package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleHandlerWritesLevelAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(&buf, slog.LevelInfo, false)
	logger := slog.New(h)

	logger.Info("install starting", "id", "PythonCore-3.13")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "install starting")
	assert.Contains(t, out, "id=PythonCore-3.13")
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(&buf, slog.LevelWarn, false)
	logger := slog.New(h)

	logger.Debug("noisy")
	logger.Warn("surfaced")

	out := buf.String()
	assert.NotContains(t, out, "noisy")
	assert.Contains(t, out, "surfaced")
}

func TestWithAttrsAndGroupQualifiesKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewConsoleHandler(&buf, slog.LevelInfo, false)
	grouped := h.WithGroup("install").WithAttrs([]slog.Attr{slog.String("id", "x")})
	logger := slog.New(grouped)

	logger.Info("done")

	assert.Contains(t, buf.String(), "install.id=x")
}
