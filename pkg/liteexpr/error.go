package liteexpr

import (
	"errors"
	"fmt"
)

// Error reasons are enumerated here to be used in the Err struct,
// the error type shared across all liteexpr APIs.
const (
	ErrUnknown = 0
	ErrSyntax  = 1
	ErrRuntime = 2
	ErrSystem  = 40
	ErrAssert  = 100
)

// Err is the error type returned by compilation and evaluation. Line and
// column are 1-based; a zero line means the error carries no position yet.
type Err struct {
	reason  int
	message string
	line    int
	col     int
}

func (e Err) Error() string {
	if e.line > 0 {
		return fmt.Sprintf("[line %d, col %d] %s", e.line, e.col, e.message)
	}
	return e.message
}

// Reason returns one of the Err* reason constants.
func (e Err) Reason() int {
	return e.reason
}

// Message returns the error text without its position prefix.
func (e Err) Message() string {
	return e.message
}

// Position returns the 1-based line and column of the error, or zeros.
func (e Err) Position() (int, int) {
	return e.line, e.col
}

func (e Err) at(pos position) Err {
	e.line, e.col = pos.line, pos.col
	return e
}

func syntaxErrorf(format string, args ...interface{}) Err {
	return Err{reason: ErrSyntax, message: fmt.Sprintf(format, args...)}
}

func runtimeErrorf(format string, args ...interface{}) Err {
	return Err{reason: ErrRuntime, message: fmt.Sprintf(format, args...)}
}

// IsSyntaxError reports whether err is, or wraps, a syntax Err.
func IsSyntaxError(err error) bool {
	var e Err
	return errors.As(err, &e) && e.reason == ErrSyntax
}

// IsRuntimeError reports whether err is, or wraps, a runtime Err.
func IsRuntimeError(err error) bool {
	var e Err
	return errors.As(err, &e) && e.reason == ErrRuntime
}

// asErr converts any error into an Err, keeping its reason when it already is one.
func asErr(err error) Err {
	var e Err
	if errors.As(err, &e) {
		return e
	}
	return Err{reason: ErrUnknown, message: err.Error()}
}
