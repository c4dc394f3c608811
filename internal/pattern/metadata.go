package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"latticelock/internal/profile"
)

// Errors
var (
	ErrMissingField = errors.New("pattern: metadata missing required field")
	ErrBadGridSize  = errors.New("pattern: grid size out of range")
	ErrBadInkCount  = errors.New("pattern: ink count out of range")
)

// Grid size bounds at the external boundary.
const (
	MinGridSize = 2
	MaxGridSize = 32
)

// Metadata is the immutable plaintext record attached to a generated
// pattern. The pattern hash is computed at generation time and is itself
// covered by the signature over the canonical serialization.
type Metadata struct {
	BatchCode      string `json:"batchCode"`
	GridSize       int    `json:"gridSize"`
	Timestamp      string `json:"timestamp"`
	ManufacturerID string `json:"manufacturerId"`
	PatternHash    string `json:"patternHash"`
	Algorithm      string `json:"algorithm"`
	NumInks        int    `json:"numInks"`
}

// NewMetadata builds the metadata record for a freshly generated pattern.
func NewMetadata(batchCode string, pat []int, gridSize, numInks int, manufacturerID, algorithm string, at time.Time) Metadata {
	return Metadata{
		BatchCode:      batchCode,
		GridSize:       gridSize,
		Timestamp:      at.UTC().Format(time.RFC3339),
		ManufacturerID: manufacturerID,
		PatternHash:    Hash(pat),
		Algorithm:      algorithm,
		NumInks:        profile.ClampInks(numInks),
	}
}

// Canonical returns the serialization the signature covers: compact JSON
// with the field order fixed by this struct. Transport JSON stays
// order-independent; signer and verifier both rebuild this form from the
// typed value.
func (m *Metadata) Canonical() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// Validate checks the required fields of a parsed metadata record.
func (m *Metadata) Validate() error {
	if m.BatchCode == "" {
		return fmt.Errorf("%w: batchCode", ErrMissingField)
	}
	if m.PatternHash == "" {
		return fmt.Errorf("%w: patternHash", ErrMissingField)
	}
	if m.Algorithm == "" {
		return fmt.Errorf("%w: algorithm", ErrMissingField)
	}
	if m.GridSize < MinGridSize || m.GridSize > MaxGridSize {
		return fmt.Errorf("%w: %d", ErrBadGridSize, m.GridSize)
	}
	if m.NumInks < profile.MinInks || m.NumInks > profile.MaxInks {
		return fmt.Errorf("%w: %d", ErrBadInkCount, m.NumInks)
	}
	if _, err := time.Parse(time.RFC3339, m.Timestamp); err != nil {
		return fmt.Errorf("pattern: bad timestamp %q: %w", m.Timestamp, err)
	}
	return nil
}

// Hash computes the content hash of a pattern: SHA-256 over one byte per
// cell, hex-encoded. Every ink ID is below 10 after clamping, so the
// byte-per-cell encoding is unambiguous for a known grid size.
func Hash(pat []int) string {
	buf := make([]byte, len(pat))
	for i, v := range pat {
		buf[i] = byte(v)
	}
	digest := sha256.Sum256(buf)
	return hex.EncodeToString(digest[:])
}
