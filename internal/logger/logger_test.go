package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiHandler_FansOut(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	log := slog.New(h).With("component", "test")

	log.Debug("debug only")
	log.Info("both")

	assert.Contains(t, debugBuf.String(), "debug only")
	assert.Contains(t, debugBuf.String(), "both")
	assert.NotContains(t, infoBuf.String(), "debug only")
	assert.Contains(t, infoBuf.String(), "component=test")
}

func TestMultiHandler_Enabled(t *testing.T) {
	h := NewMultiHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestNew_WithoutOtel(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, false).WithGroup("req").Info("hello", "path", "/login")
	assert.Contains(t, buf.String(), "req.path=/login")
}
