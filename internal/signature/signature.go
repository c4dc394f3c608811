// Package signature provides symmetric message authentication for
// pattern metadata: HMAC-SHA256 signing, constant-time verification, and
// HKDF derivation of per-manufacturer signing keys from a provisioned
// master secret. Key storage and rotation stay outside this package.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

// MinKeySize is the smallest accepted key length in bytes.
const MinKeySize = 32

// keyDomain separates signing-key derivation from any other use of the
// master secret.
const keyDomain = "latticelock-signing-key-v1"

// Errors
var (
	ErrKeyTooShort = errors.New("signature: key must be at least 32 bytes")
)

// Service signs and verifies data with a shared symmetric key. Safe for
// concurrent use; the key is read-only after construction.
type Service struct {
	key []byte
}

// New creates a signing service from raw key bytes.
func New(key []byte) (*Service, error) {
	if len(key) < MinKeySize {
		return nil, ErrKeyTooShort
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Service{key: k}, nil
}

// Sign computes the HMAC-SHA256 of the UTF-8 bytes of data, encoded as
// base64 for transport.
func (s *Service) Sign(data string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares in constant time. A
// malformed signature encoding simply fails verification.
func (s *Service) Verify(data, sig string) bool {
	got, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(data))
	want := mac.Sum(nil)

	return hmac.Equal(want, got)
}

// DeriveKey expands a master secret into a per-manufacturer signing key
// via HKDF-SHA256 with a domain-separation label. One provisioned secret
// can then serve multiple manufacturer identities without key reuse.
func DeriveKey(master []byte, manufacturerID string) ([]byte, error) {
	if len(master) < MinKeySize {
		return nil, ErrKeyTooShort
	}

	r := hkdf.New(sha256.New, master, []byte(keyDomain), []byte(manufacturerID))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return key, nil
}

// LoadKey reads raw key bytes from a file.
func LoadKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	if len(key) < MinKeySize {
		return nil, ErrKeyTooShort
	}
	return key, nil
}
