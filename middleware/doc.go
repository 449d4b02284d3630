// Package middleware exposes net/http adapters for the authentication and
// authorization gates of an authgate.Engine.
//
// # Guards
//
//   - [Authenticate] reads the Authorization header, runs the full bearer
//     token gate, and injects the resolved identity into the request context.
//   - [RequireRole] runs inside Authenticate and restricts the handler to an
//     allowed set of roles.
//
// Failed requests receive uniform bodies: every authentication failure is the
// same 401 and every authorization failure the same 403, whatever the precise
// reason. The audit stream keeps the detail.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It never parses
// tokens, touches stores, or makes auth decisions itself; all of that is
// delegated to the Engine.
package middleware
