// Package rptx holds the error taxonomy shared across the extractor
// pipeline and the exit codes it maps onto.
package rptx

import "errors"

// Exit codes. This is a stable contract: callers script against these
// numbers, so values are never renumbered once assigned.
const (
	ExitSuccess              = 0
	ExitInvalidArgs          = 1
	ExitFileNotFound         = 2
	ExitInvalidRptFile       = 3
	ExitReadError            = 4
	ExitWriteError           = 5
	ExitInvalidSelectionRule = 6
	ExitNoPagesSelected      = 7
	ExitDecompressionError   = 8
	ExitMemoryError          = 9
	ExitUnknownError         = 10
)

// Kind identifies a failure category so callers can translate it into
// the matching exit code without string-matching error text.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgs
	KindFileNotFound
	KindInvalidRptFile
	KindReadError
	KindWriteError
	KindInvalidSelectionRule
	KindNoPagesSelected
	KindDecompressionError
	KindMemoryError
)

var exitCodes = map[Kind]int{
	KindInvalidArgs:          ExitInvalidArgs,
	KindFileNotFound:         ExitFileNotFound,
	KindInvalidRptFile:       ExitInvalidRptFile,
	KindReadError:            ExitReadError,
	KindWriteError:           ExitWriteError,
	KindInvalidSelectionRule: ExitInvalidSelectionRule,
	KindNoPagesSelected:      ExitNoPagesSelected,
	KindDecompressionError:   ExitDecompressionError,
	KindMemoryError:          ExitMemoryError,
	KindUnknown:              ExitUnknownError,
}

// Error is a typed failure carrying the Kind the CLI needs to pick an
// exit code, and the underlying cause for the stderr message.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for the given kind, operation label and cause.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf is like New but builds the cause from a message.
func Newf(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// ExitCode returns the exit code for err, walking Unwrap chains to find
// a *rptx.Error. Non-typed errors map to ExitUnknownError.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var re *Error
	if errors.As(err, &re) {
		if code, ok := exitCodes[re.Kind]; ok {
			return code
		}
	}
	return ExitUnknownError
}
