package entity

import "errors"

var (
	// ErrIndexOutOfRange is returned when a positional index does not address an existing row
	ErrIndexOutOfRange = errors.New("habit index out of range")

	// ErrStaleIndex is returned when the row at an index is no longer the habit the caller rendered
	ErrStaleIndex = errors.New("habit index refers to a different habit")
)
