package xbrl

import (
	"errors"
	"fmt"

	"github.com/dhamidi/crabrl/arena"
)

var (
	// ErrIO marks failures to obtain the input bytes.
	ErrIO = errors.New("io error")
	// ErrParse marks malformed input. A parse error aborts the whole parse.
	ErrParse = errors.New("parse error")
	// ErrValidation marks a document that failed validation.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an id that could not be resolved.
	ErrNotFound = arena.ErrNotFound
)

// SyntaxError reports malformed input at a byte offset.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrParse }

// Syntax returns a SyntaxError with a formatted message.
func Syntax(offset int, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
