package common

import "errors"

var (
	// ErrorNotFound is returned when a requested record does not exist.
	ErrorNotFound = errors.New("not found")

	// ErrMalformedToken means the token payload could not be decoded. Callers
	// must not treat it as expiration.
	ErrMalformedToken = errors.New("malformed token")
)
