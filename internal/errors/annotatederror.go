// Package errors wraps the standard library errors package with errors that carry structured
// [slog.Attr] annotations and the source location where they were created.
//
// Use [Wrap] instead of fmt.Errorf when the context is worth logging as separate attributes, and
// [SlogError] to log the whole chain in one attribute group.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
)

// annotatedError is an error with a message, optional slog annotations and the source location.
type annotatedError struct {
	msg         string
	cause       error
	annotations []slog.Attr
	file        string
	line        int
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// callerSkip skips runtime.Callers, caller() and the exported constructor.
const callerSkip = 3

func caller() (string, int) {
	pcs := make([]uintptr, 1)
	if runtime.Callers(callerSkip, pcs) == 0 {
		return "", 0
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	return frame.File, frame.Line
}

// NewSentinel creates an error meant to be compared with [Is]. It records no annotations.
func NewSentinel(msg string) error {
	return &annotatedError{msg: msg, cause: nil, annotations: nil, file: "", line: 0}
}

// Wrap annotates err with msg and attrs. The source location of the call is recorded.
//
// Wrapping a nil error produces an error with only the message so that the call site is never lost.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	file, line := caller()
	return &annotatedError{msg: msg, cause: err, annotations: attrs, file: file, line: line}
}

// DecoratePanic turns a recovered panic value into an error with the source location of the panic.
// It returns nil when excp is nil.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	// Skip runtime.Callers, DecoratePanic, the deferred function and runtime.gopanic.
	const panicSkip = 4
	pcs := make([]uintptr, 1)
	var file string
	var line int
	if runtime.Callers(panicSkip, pcs) > 0 {
		frame, _ := runtime.CallersFrames(pcs).Next()
		file, line = frame.File, frame.Line
	}
	var cause error
	if err, ok := excp.(error); ok {
		cause = err
		return &annotatedError{msg: "panic", cause: cause, annotations: nil, file: file, line: line}
	}
	return &annotatedError{msg: fmt.Sprintf("panic: %v", excp), cause: nil, annotations: nil, file: file, line: line}
}

// SlogError returns an attribute group describing err: its message, the annotations of every
// annotated error in the chain and the innermost known source location.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "error", Value: slog.StringValue("<nil>")}
	}

	var (
		annotations []any
		source      string
	)
	walk(err, func(ae *annotatedError) {
		for _, a := range ae.annotations {
			annotations = append(annotations, a)
		}
		if ae.file != "" {
			source = ae.file + ":" + strconv.Itoa(ae.line)
		}
	})

	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Group("error", attrs...)
}

// walk visits annotated errors in the chain, outermost first, following joined errors too.
func walk(err error, visit func(*annotatedError)) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // we walk the chain manually.
		visit(ae)
	}
	switch u := err.(type) { //nolint:errorlint // we walk the chain manually.
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			walk(e, visit)
		}
	case interface{ Unwrap() error }:
		walk(u.Unwrap(), visit)
	}
}

// New is [errors.New].
func New(text string) error {
	return errors.New(text) //nolint:err113 // thin re-export.
}

// Is is [errors.Is].
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is [errors.As].
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join is [errors.Join].
func Join(errs ...error) error {
	return errors.Join(errs...)
}
