package utils

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	SetStatusOutput(&buf)
	t.Cleanup(func() { SetStatusOutput(os.Stdout) })

	ProgressSuccess("Uploaded: a.txt")
	ProgressError("Error deleting file b.txt: denied")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Uploaded: a.txt")
	assert.Contains(t, lines[1], "Error deleting file b.txt")
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar("a.txt", 2000)
	bar.writer = &buf

	bar.Add(1000)
	assert.Contains(t, buf.String(), "50.0%")

	bar.Add(1000)
	bar.Finish()
	assert.Contains(t, buf.String(), "100.0%")
	assert.Contains(t, buf.String(), "2.0 kB/2.0 kB")
}

func TestProgressBarUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar("a.txt", 0)
	bar.writer = &buf

	bar.Add(1500)
	assert.Contains(t, buf.String(), "1.5 kB")
}
