package models

import (
	"crypto/sha256"
	"fmt"
)

// DigestContent fingerprints a raw feed payload. This is deliberately
// distinct from the HTTP validators in FeedCache: some feeds serve neither
// ETag nor Last-Modified, and the digest catches byte-identical re-fetches
// regardless.
func DigestContent(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}
