package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONIncludesStaticKeys(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", JSON: true, Output: &buf, StaticKeys: []any{"service", "phishsim"}})
	l.Debug("hello", "request_id", "r-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "phishsim", line["service"])
	assert.Equal(t, "r-1", line["request_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "a***@acme.test", RedactEmail("alice@acme.test"))
	assert.Equal(t, "***", RedactEmail("not-an-email"))
	assert.Equal(t, "***", RedactEmail("@acme.test"))
}
