package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// keyVersion is folded into every derived key. Bump it when the artifact
// or report encoding changes so stale entries stop matching.
const keyVersion = "v1"

// hashKey derives "<kind>:<sha256>" from the JSON encoding of parts.
// Parts are expected to be plain values (strings, option structs) that
// always marshal; a marshal failure degrades to hashing the kind alone.
func hashKey(kind string, parts ...any) string {
	h := sha256.New()
	h.Write([]byte(keyVersion))
	h.Write([]byte{0})
	if data, err := json.Marshal(parts); err == nil {
		h.Write(data)
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 digest of data. Residual tables are hashed
// through their CSV encoding, so equal tables share cache entries.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
