package record

import (
	"errors"
	"fmt"
)

// ErrDecode is matched by every DecodeError.
var ErrDecode = errors.New("record decode failed")

// DecodeError reports a line that matched neither a known record
// schema nor the single-key mapping fallback. It is fatal for the
// whole batch.
type DecodeError struct {
	// Line is the 1-based line number, 0 if unknown.
	Line int

	// Reason describes why the fallback could not apply.
	Reason string

	// Err is the underlying JSON error, if any.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode line %d: %s", e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) hold for any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
