package auth

import "errors"

var (
	ErrInvalidSecret = errors.New("invalid token secret")
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
)
