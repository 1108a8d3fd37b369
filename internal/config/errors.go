package config

import "errors"

var (
	// ErrLoadConfig wraps failures reading the YAML file or environment.
	ErrLoadConfig = errors.New("config: load failed")
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("config: invalid")

	// ErrUnknownBackend marks a store_driver or cache_backend value that
	// names no implementation.
	ErrUnknownBackend = errors.New("unknown backend")
	// ErrWeakSecret marks a jwt_secret that is missing or too short.
	ErrWeakSecret = errors.New("jwt secret too short")
)
