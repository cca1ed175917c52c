package diag

import (
	"bytes"
	"fmt"
)

// Kind identifies a compile-time or runtime failure class.
type Kind string

const (
	LexError               Kind = "LexError"
	UnexpectedToken        Kind = "UnexpectedToken"
	ArityMismatch          Kind = "ArityMismatch"
	DuplicateBinding       Kind = "DuplicateBinding"
	UndeclaredIdentifier   Kind = "UndeclaredIdentifier"
	TypeMismatch           Kind = "TypeMismatch"
	AmbiguousParameterType Kind = "AmbiguousParameterType"
	BranchTypeMismatch     Kind = "BranchTypeMismatch"
	ArrayTypeMismatch      Kind = "ArrayTypeMismatch"
	MissingElseBranch      Kind = "MissingElseBranch"
	UnknownMember          Kind = "UnknownMember"
	IndexOutOfRange        Kind = "IndexOutOfRange"
	BuiltinError           Kind = "BuiltinError"
)

type Error struct {
	Kind    Kind
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%3d:%2d] %s: %s", e.Line, e.Column, e.Kind, e.Message)
}

// New builds an Error whose position is derived from a byte offset into src.
func New(kind Kind, src string, pos int, format string, args ...any) *Error {
	line, col := LineAndColumn(src, pos)
	return &Error{
		Kind:    kind,
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	}
}

// List accumulates diagnostics the way the parser reports them: parsing and
// resolution continue past the first failure where practical, and the caller
// receives everything at once.
type List struct {
	Diagnostics []*Error
}

func (l *List) Add(e *Error) {
	l.Diagnostics = append(l.Diagnostics, e)
}

func (l *List) HasErrors() bool {
	return len(l.Diagnostics) > 0
}

// Err returns the list as an error, or nil when the list is empty.
func (l *List) Err() error {
	if l == nil || len(l.Diagnostics) == 0 {
		return nil
	}
	return l
}

func (l *List) Error() string {
	var out bytes.Buffer
	for i, d := range l.Diagnostics {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(d.Error())
	}
	return out.String()
}

// LineAndColumn converts a byte offset into 1-based line and column numbers.
func LineAndColumn(src string, pos int) (line int, column int) {
	line = 1
	column = 1
	for i, char := range src {
		if i >= pos {
			break
		}
		if char == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return
}
