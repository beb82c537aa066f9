package core

import "errors"

// Common errors.
var (
	ErrNotFound     = errors.New("note not found")
	ErrInvalidColor = errors.New("invalid color")
	ErrClosed       = errors.New("store is closed")
)
