// Package testhelpers contains helpers shared by the package tests.
package testhelpers

import (
	"io"
	"log/slog"

	"github.com/myrjola/trainplan/internal/logging"
)

// NewLogger creates a debug level logger writing to logSink such as the one returned by [NewWriter].
func NewLogger(logSink io.Writer) *slog.Logger {
	return logging.NewLogger(logSink, slog.LevelDebug)
}
