package auth

import "errors"

var (
	ErrNotFound          = errors.New("auth: not found")
	ErrAlreadyExists     = errors.New("auth: already exists")
	ErrInvalidInput      = errors.New("auth: invalid input")
	ErrInvalidCredential = errors.New("auth: invalid credential")
	ErrUnauthorized      = errors.New("auth: unauthorized")

	// ErrInvalidToken indicates the token is absent, malformed or its signature does not verify.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrTokenExpired indicates a correctly signed token whose expiry has elapsed.
	ErrTokenExpired = errors.New("auth: token expired")
)
