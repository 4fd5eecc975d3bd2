package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	SetLogOutput(os.Stderr)
	SetLogLevel("info")
}

// SetLogOutput redirects log lines to w using the console format
func SetLogOutput(w io.Writer) {
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}).With().Timestamp().Logger().Level(logger.GetLevel())
}

// SetLogLevel sets the log level ("debug", "info", "warn", "error").
// Unknown levels fall back to info.
func SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	logger = logger.Level(lvl)
}

// LogLevel returns the current level name
func LogLevel() string {
	return logger.GetLevel().String()
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	logger.Debug().Msg(fmt.Sprintf(format, args...))
}

// Info logs an informational message
func Info(format string, args ...interface{}) {
	logger.Info().Msg(fmt.Sprintf(format, args...))
}

// Warn logs a warning
func Warn(format string, args ...interface{}) {
	logger.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs an error
func Error(format string, args ...interface{}) {
	logger.Error().Msg(fmt.Sprintf(format, args...))
}
