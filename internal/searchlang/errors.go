package searchlang

import (
	"errors"
	"fmt"
)

// Lexer errors.
var (
	ErrUnterminatedString = errors.New("unterminated string")
	ErrInvalidEscape      = errors.New("invalid escape sequence")
)

// Parser errors.
var (
	ErrEmptyQuery      = errors.New("empty query")
	ErrUnmatchedParen  = errors.New("unmatched parenthesis")
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrUnexpectedEOF   = errors.New("unexpected end of query")
)

// Resolver errors.
var (
	ErrUnknownField    = errors.New("unknown field")
	ErrAmbiguousField  = errors.New("ambiguous field")
	ErrInvalidOperator = errors.New("invalid operator for field type")
	ErrInvalidValue    = errors.New("invalid value")
	ErrInvalidDate     = errors.New("invalid date")
	ErrNoGenericFields = errors.New("no free-text fields configured")
)

// ParseError provides detailed error information including position.
type ParseError struct {
	Pos     int    // byte offset in input
	Message string // human-readable error message
	Err     error  // underlying sentinel error (for errors.Is)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// newParseError creates a ParseError with the given position and sentinel error.
func newParseError(pos int, err error, msgFmt string, args ...any) *ParseError {
	return &ParseError{
		Pos:     pos,
		Message: fmt.Sprintf(msgFmt, args...),
		Err:     err,
	}
}

// CompileError reports a term that parsed but could not be resolved against
// the field registry (bad operator for the type, unparseable value, unknown
// field in strict mode). Pos points at the offending term in the input.
type CompileError struct {
	Pos     int    // byte offset in input
	Key     string // search key of the term, if any
	Message string // human-readable error message
	Err     error  // underlying sentinel error (for errors.Is)
}

func (e *CompileError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("compile error at position %d (field %q): %s", e.Pos, e.Key, e.Message)
	}
	return fmt.Sprintf("compile error at position %d: %s", e.Pos, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// newCompileError creates a CompileError with the given position and sentinel error.
func newCompileError(pos int, key string, err error, msgFmt string, args ...any) *CompileError {
	return &CompileError{
		Pos:     pos,
		Key:     key,
		Message: fmt.Sprintf(msgFmt, args...),
		Err:     err,
	}
}
