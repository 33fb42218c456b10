package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetWriter(&buf)
	SetColor(false)
	prev := GetLevel()
	t.Cleanup(func() {
		SetLevel(prev)
		SetColor(true)
		SetWriter(os.Stderr)
	})
	return &buf
}

func TestLevelsFilterOutput(t *testing.T) {
	buf := captureLogs(t)
	SetLevel(WARN)

	Info("hidden")
	Warn("shown", 3)
	Error("failed", errors.New("boom"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] logger_test.go")
	assert.Contains(t, out, "shown 3")
	assert.Contains(t, out, "failed boom")
}

func TestComplexArgumentsAreJSON(t *testing.T) {
	buf := captureLogs(t)
	SetLevel(DEBUG)

	Debug("payload", map[string]int{"saves": 4})
	out := buf.String()
	assert.Contains(t, out, "[Object of type map[string]int]")
	assert.Contains(t, out, `"saves": 4`)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, WARN, l)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSetLogOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	require.NoError(t, SetLogOutput('f', path))
	SetColor(false)
	t.Cleanup(func() {
		SetColor(true)
		Close()
		SetWriter(os.Stderr)
	})

	Warn("to file")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")

	assert.Error(t, SetLogOutput('x', path))
}
