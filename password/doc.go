// Package password implements credential hashing and verification with
// salted bcrypt digests.
//
// # Output format
//
// Digests use the standard bcrypt modular crypt encoding:
//
//	$2a$<cost>$<22-char salt><31-char checksum>
//
// Salt and cost are embedded in the digest, so verification needs no
// configuration beyond the digest itself. [Hasher.NeedsRehash] reports
// stored digests whose cost differs from the configured one, letting the
// caller re-hash transparently after the next successful verification.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy
// (minimum length, reuse rules) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve credentials — callers supply plaintext and receive
//     digests.
//   - Import any other authgate package.
//   - Log plaintext passwords.
package password
