package imagemeta

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns the SHA-256 hex digest of the file bytes. The hash is
// stored for auditing and future content-based dedup; the unique storage-key
// constraint is what actually prevents duplicate rows.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
