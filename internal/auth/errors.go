package auth

import "errors"

var (
	// ErrEmptyToken is returned when no bearer token is present.
	ErrEmptyToken = errors.New("auth: empty token")
	// ErrEmptySecret is returned when signing or parsing without a secret.
	ErrEmptySecret = errors.New("auth: empty secret")
	// ErrInvalidToken is returned for malformed, expired or badly signed tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
)
