package optimistic

import "errors"

// ErrInvalidInput is returned when fields fail validation; nothing is applied.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// ErrEditCanceled is returned when the editor declines or yields invalid fields.
var ErrEditCanceled = errors.New("edit canceled")
