package xlcalc

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindSyntax      Kind = "SYNTAX"       // formula text rejected by the parser
	KindCircularRef Kind = "CIRCULAR_REF" // formula would close a dependency cycle
	KindEval        Kind = "EVAL"         // formula accepted but its value cannot be computed
	KindNotFound    Kind = "NOT_FOUND"    // unknown spreadsheet
	KindBadRequest  Kind = "BAD_REQ"      // malformed cell id, sheet name or load input
	KindDB          Kind = "DB"           // store failure
)

// ErrNoSpreadsheet is returned by a Store that has never seen a spreadsheet.
var ErrNoSpreadsheet = errors.New("no such spreadsheet")

// Error is the error type returned by every operation of this package.
type Error struct {
	Kind Kind
	Cell string // affected cell, if any
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Cell != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Cell, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, cell CellID, err error) *Error {
	return &Error{Kind: kind, Cell: cell.String(), Err: err}
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error found in err's tree, or "" if
// there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
