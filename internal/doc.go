// Package internal contains helper utilities that are intentionally private
// to authgate, including secure random generation and the reset-ticket
// packing format.
//
// # Sub-packages
//
//   - rate — Redis-backed fixed-window login throttle primitives
//
// # What this package must NOT do
//
//   - Export types that appear in the public authgate API.
//   - Be imported by any package outside the authgate module.
package internal
