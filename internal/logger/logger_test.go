package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/toolguide/internal/env"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(env.Production, WithOutput(&buf))

	log.Info("Request served", "status", 200)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Request served", rec["msg"])
	assert.EqualValues(t, 200, rec["status"])
}

func TestNew_DevelopmentUsesTint(t *testing.T) {
	var buf bytes.Buffer
	log := New(env.Test, WithOutput(&buf), WithLevel(slog.LevelWarn))

	log.Info("Hidden")
	log.Warn("Visible", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "Hidden")
	assert.Contains(t, out, "Visible")
	assert.Contains(t, out, "key=value")
}

func TestNew_FileTee(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	log := New(env.Test, WithOutput(&buf), WithLogToFile(true), WithLogFile(path))
	log.Error("Vendor failed", "provider", "gemini")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"provider":"gemini"`))
	assert.Contains(t, buf.String(), "Vendor failed")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nope"))
}
