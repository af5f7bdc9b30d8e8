package testhelpers

import (
	"io"
	"strings"
	"sync/atomic"
	"testing"
)

// Writer implements io.Writer and forwards every line to t.Log so that logs are only shown for failing tests.
type Writer struct {
	t    *testing.T
	done atomic.Bool
}

// NewWriter creates a Writer bound to t. Writing after the test has finished panics, which surfaces
// goroutines that outlive the test, for example the database optimizer.
func NewWriter(t *testing.T) io.Writer {
	t.Helper()
	w := &Writer{t: t}
	t.Cleanup(func() {
		w.done.Store(true)
	})
	return w
}

// Write implements io.Writer by writing to t.Log.
func (w *Writer) Write(p []byte) (int, error) {
	if w.done.Load() {
		panic("testwriter: attempted to write after test completion")
	}
	if output := strings.TrimSuffix(string(p), "\n"); output != "" {
		w.t.Log(output)
	}
	return len(p), nil
}
