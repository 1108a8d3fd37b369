package repository

import "errors"

// Sentinel kinds for store errors. Collections also classify them with the
// matching apperr kind.
var (
	ErrNotFound = errors.New("entity not found")
	ErrConflict = errors.New("entity already exists")
	ErrClosed   = errors.New("store closed")
)
