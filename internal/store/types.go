// Package store provides SQLite-backed persistence for issued patterns
// and verification audit logs.
package store

import "time"

// PatternRecord is a persisted issued pattern together with its signed
// metadata.
type PatternRecord struct {
	ID             int64
	UUID           string
	BatchCode      string
	Algorithm      string
	GridSize       int
	NumInks        int
	Pattern        []int
	PatternHash    string
	ManufacturerID string
	Signature      string
	CreatedAt      time.Time

	storedMAC []byte
}

// VerificationEntry is one row of the verification audit log.
type VerificationEntry struct {
	ID          int64
	UUID        string
	PatternHash string
	Status      string
	Detail      string
	ScannedAt   time.Time
}

// Stats summarizes the pattern table.
type Stats struct {
	TotalPatterns    int64
	UniqueBatchCodes int64
	UniqueAlgorithms int64
	Verifications    int64
}
