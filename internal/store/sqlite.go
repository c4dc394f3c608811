package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Errors
var (
	ErrNotFound    = errors.New("store: record not found")
	ErrDuplicate   = errors.New("store: pattern hash already registered")
	ErrRowTampered = errors.New("store: record integrity check failed")
)

const schema = `
CREATE TABLE IF NOT EXISTS patterns (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid             TEXT NOT NULL UNIQUE,
    batch_code       TEXT NOT NULL,
    algorithm        TEXT NOT NULL,
    grid_size        INTEGER NOT NULL,
    num_inks         INTEGER NOT NULL,
    pattern          TEXT NOT NULL,
    pattern_hash     TEXT NOT NULL UNIQUE,
    manufacturer_id  TEXT,
    signature        TEXT NOT NULL,
    created_at       INTEGER NOT NULL,
    hmac             BLOB
);

CREATE INDEX IF NOT EXISTS idx_patterns_batch ON patterns(batch_code, created_at);
CREATE INDEX IF NOT EXISTS idx_patterns_grid ON patterns(grid_size);

CREATE TABLE IF NOT EXISTS verification_log (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid          TEXT NOT NULL UNIQUE,
    pattern_hash  TEXT NOT NULL,
    status        TEXT NOT NULL,
    detail        TEXT,
    scanned_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verification_time ON verification_log(scanned_at);
`

// Store is the SQLite registry of issued patterns. When opened with an
// HMAC key, every pattern row carries a keyed digest that is checked on
// read, so offline edits to the database file surface as ErrRowTampered.
type Store struct {
	db      *sql.DB
	hmacKey []byte
}

// Open opens or creates the registry database at the given path.
func Open(path string) (*Store, error) {
	return open(path, nil)
}

// OpenSecure opens the registry with per-row integrity protection.
// The key should be derived from the signing key, not the key itself.
func OpenSecure(path string, hmacKey []byte) (*Store, error) {
	if len(hmacKey) < 32 {
		return nil, errors.New("store: HMAC key must be at least 32 bytes")
	}
	return open(path, hmacKey)
}

func open(path string, hmacKey []byte) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := os.Chmod(path, 0600); err != nil {
		db.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}

	return &Store{db: db, hmacKey: hmacKey}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InsertPattern registers an issued pattern. The record's UUID and
// CreatedAt are assigned here; registering the same pattern hash twice
// returns ErrDuplicate.
func (s *Store) InsertPattern(rec *PatternRecord) error {
	if rec.UUID == "" {
		rec.UUID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	patJSON, err := encodePattern(rec.Pattern)
	if err != nil {
		return err
	}

	var mac []byte
	if s.hmacKey != nil {
		mac = s.recordHMAC(rec, patJSON)
	}

	res, err := s.db.Exec(`
		INSERT INTO patterns (uuid, batch_code, algorithm, grid_size, num_inks, pattern, pattern_hash, manufacturer_id, signature, created_at, hmac)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UUID, rec.BatchCode, rec.Algorithm, rec.GridSize, rec.NumInks,
		string(patJSON), rec.PatternHash, rec.ManufacturerID, rec.Signature,
		rec.CreatedAt.UnixNano(), mac,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, rec.PatternHash)
		}
		return fmt.Errorf("insert pattern: %w", err)
	}

	rec.ID, _ = res.LastInsertId()
	return nil
}

// GetByUUID retrieves a pattern record by its UUID.
func (s *Store) GetByUUID(id string) (*PatternRecord, error) {
	return s.getOne(`SELECT `+patternColumns+` FROM patterns WHERE uuid = ?`, id)
}

// GetByHash retrieves a pattern record by its content hash.
func (s *Store) GetByHash(hash string) (*PatternRecord, error) {
	return s.getOne(`SELECT `+patternColumns+` FROM patterns WHERE pattern_hash = ?`, hash)
}

// FindByBatchCode returns the records issued for a batch, newest first.
func (s *Store) FindByBatchCode(batchCode string, limit int) ([]PatternRecord, error) {
	return s.query(`
		SELECT `+patternColumns+` FROM patterns
		WHERE batch_code = ?
		ORDER BY created_at DESC
		LIMIT ?`, batchCode, limit)
}

// ListByGridSize returns all records with the given grid size, newest first.
func (s *Store) ListByGridSize(gridSize int) ([]PatternRecord, error) {
	return s.query(`
		SELECT `+patternColumns+` FROM patterns
		WHERE grid_size = ?
		ORDER BY created_at DESC`, gridSize)
}

// Recent returns recently issued patterns, newest first.
func (s *Store) Recent(limit, offset int) ([]PatternRecord, error) {
	return s.query(`
		SELECT `+patternColumns+` FROM patterns
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
}

// LogVerification appends an entry to the verification audit log.
func (s *Store) LogVerification(entry *VerificationEntry) error {
	if entry.UUID == "" {
		entry.UUID = uuid.NewString()
	}
	if entry.ScannedAt.IsZero() {
		entry.ScannedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(`
		INSERT INTO verification_log (uuid, pattern_hash, status, detail, scanned_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.UUID, entry.PatternHash, entry.Status, entry.Detail, entry.ScannedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	entry.ID, _ = res.LastInsertId()
	return nil
}

// RecentVerifications returns audit log entries, newest first.
func (s *Store) RecentVerifications(limit, offset int) ([]VerificationEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, uuid, pattern_hash, status, detail, scanned_at
		FROM verification_log
		ORDER BY scanned_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query verifications: %w", err)
	}
	defer rows.Close()

	var entries []VerificationEntry
	for rows.Next() {
		var e VerificationEntry
		var detail sql.NullString
		var scannedNs int64
		if err := rows.Scan(&e.ID, &e.UUID, &e.PatternHash, &e.Status, &detail, &scannedNs); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		e.Detail = detail.String
		e.ScannedAt = time.Unix(0, scannedNs).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetStats summarizes the registry.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT batch_code), COUNT(DISTINCT algorithm)
		FROM patterns`).
		Scan(&stats.TotalPatterns, &stats.UniqueBatchCodes, &stats.UniqueAlgorithms)
	if err != nil {
		return nil, fmt.Errorf("pattern stats: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM verification_log`).Scan(&stats.Verifications); err != nil {
		return nil, fmt.Errorf("verification stats: %w", err)
	}
	return stats, nil
}

const patternColumns = `id, uuid, batch_code, algorithm, grid_size, num_inks, pattern, pattern_hash, manufacturer_id, signature, created_at, hmac`

func (s *Store) getOne(query string, args ...any) (*PatternRecord, error) {
	rec, err := scanPattern(s.db.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.checkRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) query(query string, args ...any) ([]PatternRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var recs []PatternRecord
	for rows.Next() {
		rec, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		if err := s.checkRecord(rec); err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (*PatternRecord, error) {
	var rec PatternRecord
	var patJSON string
	var manufacturer sql.NullString
	var createdNs int64
	var mac []byte

	err := row.Scan(&rec.ID, &rec.UUID, &rec.BatchCode, &rec.Algorithm,
		&rec.GridSize, &rec.NumInks, &patJSON, &rec.PatternHash,
		&manufacturer, &rec.Signature, &createdNs, &mac)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(patJSON), &rec.Pattern); err != nil {
		return nil, fmt.Errorf("decode pattern %s: %w", rec.UUID, err)
	}
	rec.ManufacturerID = manufacturer.String
	rec.CreatedAt = time.Unix(0, createdNs).UTC()
	rec.storedMAC = mac
	return &rec, nil
}

func encodePattern(pat []int) ([]byte, error) {
	data, err := json.Marshal(pat)
	if err != nil {
		return nil, fmt.Errorf("encode pattern: %w", err)
	}
	return data, nil
}

func isUniqueViolation(err error) bool {
	// mattn/go-sqlite3 reports constraint violations in the message;
	// matching on the text avoids importing its cgo error types here.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
