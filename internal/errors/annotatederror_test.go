package errors_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/myrjola/trainplan/internal/errors"
	"github.com/myrjola/trainplan/internal/testhelpers"
)

func TestAnnotatedError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "sentinel",
			err:  errors.NewSentinel("invalid input"),
			want: "invalid input",
		},
		{
			name: "wrapped with attrs",
			err:  errors.Wrap(errors.NewSentinel("invalid input"), "select split", slog.Int("days", 0)),
			want: "select split: invalid input",
		},
		{
			name: "nested",
			err: errors.Wrap(
				errors.Wrap(errors.NewSentinel("invalid input"), "select split"),
				"generate program",
			),
			want: "generate program: select split: invalid input",
		},
		{
			name: "wrap nil",
			err:  errors.Wrap(nil, "only message"),
			want: "only message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAndAs(t *testing.T) {
	sentinel := errors.NewSentinel("not found")
	wrapped := errors.Wrap(fmt.Errorf("query profile: %w", sentinel), "load profile")

	if !errors.Is(wrapped, sentinel) {
		t.Error("Is() = false, want true for wrapped sentinel")
	}
	if errors.Is(wrapped, errors.NewSentinel("not found")) {
		t.Error("Is() = true, want false for a different sentinel with the same message")
	}

	root := &customError{msg: "custom"}
	var target *customError
	if !errors.As(errors.Wrap(root, "context"), &target) {
		t.Fatal("As() = false, want true")
	}
	if target != root {
		t.Errorf("As() target = %v, want %v", target, root)
	}
	if errors.Unwrap(sentinel) != nil {
		t.Error("Unwrap() of a sentinel should be nil")
	}
}

func TestSlogError(t *testing.T) {
	err := errors.Wrap(errors.NewSentinel("invalid input"), "calculate progression",
		slog.Int("exercise_id", 7), slog.Float64("weight_kg", 42.5))
	var buf bytes.Buffer
	logger := testhelpers.NewLogger(&buf)
	logger.Info("test", errors.SlogError(err))
	line := buf.String()
	for _, want := range []string{
		"error.message=\"calculate progression: invalid input\"",
		"error.annotations.exercise_id=7",
		"error.annotations.weight_kg=42.5",
		"annotatederror_test.go:",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q does not contain %q", line, want)
		}
	}
	if strings.Contains(line, "annotatederror.go:") {
		t.Error("source should point at the caller, not at annotatederror.go")
	}

	// None of these may panic.
	errors.SlogError(nil)
	errors.SlogError(errors.Join(nil, errors.NewSentinel("a"), errors.New("b")))
	errors.SlogError(errors.Wrap(errors.Join(nil, nil), "wrap"))
}

func TestDecoratePanic(t *testing.T) {
	defer func() {
		err := errors.DecoratePanic(recover())
		if err == nil {
			t.Fatal("expected error")
		}
		if got, want := err.Error(), "panic: boom"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if got := errors.SlogError(err).String(); !strings.Contains(got, "annotatederror_test.go:") {
			t.Errorf("expected %q to reference the panicking test file", got)
		}
	}()
	panic("boom")
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
