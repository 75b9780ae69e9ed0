package command

import (
	"errors"
	"fmt"
)

var ErrNoActiveSession = errors.New(`No database initialized. Use "INIT <database_name>" to initialize a database.`)

// SyntaxError is returned for any command text the grammar rejects.
type SyntaxError struct {
	Detail string
	// Pos is the byte offset where parsing stopped, -1 when unknown.
	Pos int
}

func NewSyntaxError(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Detail: fmt.Sprintf(format, args...), Pos: pos}
}

func (e *SyntaxError) Error() string {
	return "You have an error on your command syntax: " + e.Detail
}

// Is matches syntax errors by detail so sentinel values work with errors.Is
// regardless of the position they were raised at.
func (e *SyntaxError) Is(target error) bool {
	t, ok := target.(*SyntaxError)
	return ok && t.Detail == e.Detail
}

// UnsupportedError marks grammar the executor deliberately does not implement.
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported", e.Feature)
}

// EngineError wraps a failure reported by the storage engine.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func IsSyntaxError(err error) bool {
	var syntaxErr *SyntaxError
	return errors.As(err, &syntaxErr)
}
