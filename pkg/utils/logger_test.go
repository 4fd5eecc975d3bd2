package utils

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() {
		SetLogOutput(os.Stderr)
		SetLogLevel("info")
	})

	SetLogLevel("warn")
	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "shown 2")
	assert.Equal(t, "warn", LogLevel())
}

func TestSetLogLevelFallback(t *testing.T) {
	t.Cleanup(func() {
		SetLogLevel("info")
	})

	SetLogLevel("chatty")
	assert.Equal(t, "info", LogLevel())

	SetLogLevel("DEBUG")
	assert.Equal(t, "debug", LogLevel())
}
