package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	statusMu  sync.Mutex
	statusOut io.Writer = os.Stdout
)

// SetStatusOutput redirects the user-facing status lines
func SetStatusOutput(w io.Writer) {
	statusMu.Lock()
	defer statusMu.Unlock()
	statusOut = w
}

func printStatus(icon, message string) {
	statusMu.Lock()
	defer statusMu.Unlock()
	fmt.Fprintf(statusOut, "%s %s\n", icon, message)
}

// ProgressSuccess prints a success line
func ProgressSuccess(message string) {
	printStatus("✅", message)
}

// ProgressError prints a failure line
func ProgressError(message string) {
	printStatus("❌", message)
}

// ProgressWarning prints a warning line
func ProgressWarning(message string) {
	printStatus("⚠️ ", message)
}

// ProgressInfo prints an informational line
func ProgressInfo(message string) {
	printStatus("ℹ️ ", message)
}

// ProgressStep prints the start of a step
func ProgressStep(message string) {
	printStatus("🔄", message)
}

// ProgressDone prints the end of a step
func ProgressDone(message string) {
	printStatus("✔️ ", message)
}

// ProgressBar renders byte progress for a single transfer
type ProgressBar struct {
	mu        sync.Mutex
	label     string
	total     int64
	current   int64
	width     int
	startTime time.Time
	writer    io.Writer
}

// NewProgressBar creates a progress bar; total may be 0 when unknown
func NewProgressBar(label string, total int64) *ProgressBar {
	return &ProgressBar{
		label:     label,
		total:     total,
		width:     30,
		startTime: time.Now(),
		writer:    os.Stderr,
	}
}

// Add advances the bar by n bytes
func (p *ProgressBar) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	p.render()
}

// render draws the bar
func (p *ProgressBar) render() {
	speed := ""
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		speed = humanize.Bytes(uint64(float64(p.current)/elapsed)) + "/s"
	}

	if p.total <= 0 {
		fmt.Fprintf(p.writer, "\r%s %s %s", p.label, humanize.Bytes(uint64(p.current)), speed)
		return
	}

	ratio := float64(p.current) / float64(p.total)
	if ratio > 1 {
		ratio = 1
	}
	filled := int(float64(p.width) * ratio)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	fmt.Fprintf(p.writer, "\r%s [%s] %5.1f%% %s/%s %s",
		p.label, bar, ratio*100,
		humanize.Bytes(uint64(p.current)), humanize.Bytes(uint64(p.total)), speed)
}

// Finish ends the bar line
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.writer)
}
