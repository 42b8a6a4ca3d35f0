package usecase

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the SHA-256 digest of raw as 64 lowercase hex characters.
func Digest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
