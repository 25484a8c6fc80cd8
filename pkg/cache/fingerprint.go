package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxQueryRunes caps the normalized query that takes part in a fingerprint.
const MaxQueryRunes = 512

// Fingerprint identifies a (content, query) pair. It is a hex SHA-256 digest.
type Fingerprint string

// NormalizeQuery trims, collapses inner whitespace, case-folds and caps the query.
func NormalizeQuery(query string) string {
	q := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if utf8.RuneCountInString(q) <= MaxQueryRunes {
		return q
	}
	runes := []rune(q)
	return strings.TrimSpace(string(runes[:MaxQueryRunes]))
}

// ComputeFingerprint hashes the content length, the content and the normalized query.
// The length prefix keeps content and query bytes from running into each other.
func ComputeFingerprint(content []byte, query string) Fingerprint {
	h := sha256.New()
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(content)))
	h.Write(size[:])
	h.Write(content)
	h.Write([]byte(NormalizeQuery(query)))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// Key is the cache key for one pipeline mode.
func Key(mode string, fp Fingerprint) string {
	// analysis:<MODE>:<FINGERPRINT>
	return fmt.Sprintf("analysis:%s:%s", mode, fp)
}
