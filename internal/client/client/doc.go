// Package client contains the transport layer of the catlog terminal client.
//
// # Overview
//
// The package provides:
//  1. Resource API contracts (UserAPI, EntryAPI) mirroring the backend's REST
//     endpoints for users and cat entries.
//  2. A concrete HTTP implementation (HTTPClient) that joins paths onto a
//     configured base URL, attaches the default bearer credential, tags each
//     request with an X-Request-ID, and maps HTTP failures to sentinel errors.
//  3. Envelope unwrapping (Unwrap) for responses that may or may not be
//     wrapped in a {"data": ...} object.
//  4. Prometheus instrumentation of outbound requests.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable (request never got a response), ErrUnauthorized
// (401/403), ErrNoCredentials (no token to send) and common.ErrorNotFound
// (404). Any other non-2xx response is a *StatusError. Nothing is retried.
//
// # Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation/timeouts.
package client
