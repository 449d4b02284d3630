// Package rate provides the Redis-backed login throttle used by the engine
// to bound credential-guessing attempts per email and per client IP.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:  — login per-email
//   - ali: — login per-IP
//
// # What this package must NOT do
//
//   - Decide fail-open versus fail-closed on Redis outage (the engine does).
//   - Be imported outside the authgate module.
package rate
