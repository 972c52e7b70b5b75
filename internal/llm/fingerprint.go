package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns a stable 24-hex-char digest over the
// newline-joined fragments. Identical inputs always collide; any
// changed fragment changes the digest.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])[:24]
}

// clip truncates s to at most n bytes. Fingerprint fragments clip long
// free text so unbounded inputs hash in bounded time.
func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
