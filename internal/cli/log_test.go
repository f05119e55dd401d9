package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo, false))

	logger.Debug("hidden")
	logger.With("dir", "model").Info("loaded", "files", 2)
	logger.WithGroup("onnx").Warn("no runtime")

	assert.Equal(t, "loaded: dir=model files=2\n[onnx] no runtime\n", buf.String())
}

func TestHandler_Color(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo, true))

	logger.Error("failed")
	assert.Equal(t, colorRed+"failed"+colorReset+"\n", buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"error":   slog.LevelError,
		"warn":    slog.LevelWarn,
		"unknown": slog.LevelWarn,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
