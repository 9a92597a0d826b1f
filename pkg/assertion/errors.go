package assertion

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDeclaration is matched by MissingDeclarationError.
	ErrMissingDeclaration = errors.New("missing assertion declaration")

	// ErrUnknownAssertType means no evaluator is registered for an
	// assertion's type.
	ErrUnknownAssertType = errors.New("unknown assert type")
)

// MissingDeclarationError reports an id that was observed at
// runtime but never declared, so its metadata cannot be resolved.
type MissingDeclarationError struct {
	ID string
}

// Error implements the error interface.
func (e *MissingDeclarationError) Error() string {
	return fmt.Sprintf("assertion %q has observations but no declaration", e.ID)
}

// Is makes errors.Is(err, ErrMissingDeclaration) hold.
func (e *MissingDeclarationError) Is(target error) bool {
	return target == ErrMissingDeclaration
}
