package cache

import "errors"

// Sentinel errors for this package.
var (
	ErrBackend  = errors.New("cache backend failure")
	ErrNoTags   = errors.New("cache entry needs at least one valid tag")
	ErrNoLoader = errors.New("cache loader is nil")
)
