package httputil

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes computes the SHA-256 hash of data as a 64-character hex string.
// Used to derive cache keys from archive content.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
