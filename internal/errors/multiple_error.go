package errors

import (
	"strings"
)

// Collects several errors found while validating or loading something so
// they can all be reported at once.
type MultipleError struct {
	Errors      []error
	Description string
}

// Returns nil if errs is empty, otherwise a *MultipleError holding a copy
// of errs.
func NewMultipleError(desc string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	errCopy := make([]error, len(errs))
	copy(errCopy, errs)
	return &MultipleError{
		Errors:      errCopy,
		Description: desc,
	}
}

func (m *MultipleError) Error() string {
	strs := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		strs[i] = e.Error()
	}
	return m.Description + ": " + strings.Join(strs, ", ")
}

// Allows errors.Is and errors.As to look through every collected error.
func (m *MultipleError) Unwrap() []error {
	return m.Errors
}
