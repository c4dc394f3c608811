// Package seed derives deterministic wide-integer seeds from batch codes.
package seed

import (
	"crypto/sha256"
	"math/big"
)

// Derive hashes the UTF-8 bytes of text with SHA-256 and interprets the
// digest as a non-negative big integer. The same text always yields the
// same seed; the seed is owned by a single generation or verification
// call and is never persisted.
func Derive(text string) *big.Int {
	digest := sha256.Sum256([]byte(text))
	return new(big.Int).SetBytes(digest[:])
}
