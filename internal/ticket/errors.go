package ticket

import (
	"errors"
	"fmt"
)

// ErrMissingField is matched by every AssemblyError
var ErrMissingField = errors.New("missing required alert field")

// AssemblyError reports an alert that lacks data the ticket needs
type AssemblyError struct {
	Field string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *AssemblyError) Unwrap() error {
	return ErrMissingField
}
