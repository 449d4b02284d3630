// Package token issues and verifies compact stateless bearer tokens signed
// with a single shared HMAC secret, with strict validation semantics suitable
// for low-latency authentication paths.
package token
