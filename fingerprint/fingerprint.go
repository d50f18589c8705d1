// Package fingerprint derives stable content identifiers for post
// deduplication. Only the first 500 characters of the body participate in
// the digest, so long near-duplicates collapse onto the same fingerprint
// unless they diverge early.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// contentPrefixLen bounds the influence of long bodies on the digest.
const contentPrefixLen = 500

// fingerprintLen is the number of hex characters kept from the digest.
const fingerprintLen = 32

// Generate returns a deterministic fingerprint over (source, title,
// content prefix). Same inputs always produce the same fingerprint.
func Generate(source, title, content string) string {
	runes := []rune(content)
	if len(runes) > contentPrefixLen {
		content = string(runes[:contentPrefixLen])
	}

	sum := sha256.Sum256([]byte(source + ":" + title + ":" + content))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
