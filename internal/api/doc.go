// Package api is the client for the storefront REST backend.
//
// The Client injects the current bearer token into every request when a
// usable one exists and classifies every response before the caller sees
// it: 2xx yields the payload, 401 fires the registered unauthorized hook
// and returns ErrUnauthorized, any other status becomes a StatusError
// carrying the code and body for diagnostics, and transport failures are
// returned as wrapped errors. Nothing is retried; a failed call ends the
// operation.
//
// Admin endpoints additionally treat 403 as session-invalid, since the
// server rejects either a stale token or a non-admin identity and the
// remedy is the same: re-authenticate.
package api
