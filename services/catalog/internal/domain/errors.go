package domain

import "errors"

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	// ErrConflict means the row is still referenced elsewhere.
	ErrConflict = errors.New("conflict")
)
