// Package apierr defines the error kinds shared by the import, enrichment
// and embedding pipelines. Only a store-open failure is fatal to a run;
// everything else degrades to "skip this item and keep going".
package apierr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an external lookup had no match for the key.
	ErrNotFound = errors.New("not found")

	// ErrServiceUnavailable indicates the external collaborator could not
	// be reached at all.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrModelNotFound indicates the embedding service rejected the model
	// name. Distinct from ErrServiceUnavailable so a typo in config does
	// not read as an outage.
	ErrModelNotFound = errors.New("embedding model not found")
)

// MalformedISBNError represents an input ISBN that cannot be normalized
// into a valid ISBN-10 or ISBN-13.
type MalformedISBNError struct {
	ISBN string
}

func (e *MalformedISBNError) Error() string {
	return fmt.Sprintf("malformed ISBN: %q", e.ISBN)
}

// NewMalformedISBNError creates a MalformedISBNError for the given input.
func NewMalformedISBNError(isbn string) *MalformedISBNError {
	return &MalformedISBNError{ISBN: isbn}
}

// IsMalformedISBN reports whether err is a MalformedISBNError (even when wrapped).
func IsMalformedISBN(err error) bool {
	var malformed *MalformedISBNError
	return errors.As(err, &malformed)
}
