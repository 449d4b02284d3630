// Package authgate provides a self-contained authentication and
// authorization engine: stateless signed bearer tokens, bcrypt credential
// storage, role-gated access checks, and full account lifecycle management
// over a pluggable identity store.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// the [IdentityStore] contract, and value types (Identity, AuthResult,
// AuditEvent, MetricsSnapshot). Ticket encoding, rate limiting, and random
// material generation live under internal/ and are never exported. Store
// implementations live under store/, token and password primitives under
// their own packages; any of them can be replaced without touching the
// engine.
//
// # What this package must NOT do
//
//   - Expose Redis clients, store internals, or ticket encoding details in
//     its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports authgate (no import cycles).
//
// # Performance contract
//
// Authenticate is the hot path: one signature verification plus one identity
// store read per call. Login additionally pays one bcrypt verification, which
// dominates its latency. Account operations are allowed one store round-trip
// per step.
package authgate
