// Package common contains shared constants and sentinel errors used across
// catlog components.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token in the Authorization header value.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName tags every outbound request for server-side tracing.
	RequestIDHeaderName = "X-Request-ID"

	// TokenStorageKey is the fixed metadata key holding the session token.
	TokenStorageKey = "jwtToken"

	// LegacyTokenStorageKey is a secondary, read-only token location left by
	// older clients. It is consulted only as an upload credential fallback.
	LegacyTokenStorageKey = "authToken"
)
