// Package label defines the SignedPattern envelope exchanged between the
// generator and verifiers: the pattern, its metadata, and the signature,
// serialized to JSON for the QR/label boundary and the backend record.
//
// Incoming label bytes are validated against a JSON schema before typed
// decoding, so malformed or incomplete records are rejected explicitly
// instead of being optimistically cast.
package label

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"latticelock/internal/pattern"
)

// Errors
var (
	ErrSchemaViolation = errors.New("label: schema validation failed")
	ErrPatternLength   = errors.New("label: pattern length does not match grid size")
)

// SignedPattern is the unit produced once by the generator and consumed
// read-only by verifiers.
type SignedPattern struct {
	Pattern   []int            `json:"pattern"`
	Signature string           `json:"signature"`
	Metadata  pattern.Metadata `json:"metadata"`
}

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "latticelock signed pattern label v1",
  "type": "object",
  "required": ["pattern", "signature", "metadata"],
  "properties": {
    "pattern": {
      "type": "array",
      "items": {"type": "integer", "minimum": 0, "maximum": 9},
      "minItems": 4
    },
    "signature": {"type": "string", "minLength": 1},
    "metadata": {
      "type": "object",
      "required": ["batchCode", "gridSize", "timestamp", "manufacturerId", "patternHash", "algorithm", "numInks"],
      "properties": {
        "batchCode": {"type": "string", "minLength": 1},
        "gridSize": {"type": "integer", "minimum": 2, "maximum": 32},
        "timestamp": {"type": "string"},
        "manufacturerId": {"type": "string"},
        "patternHash": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
        "algorithm": {"type": "string", "minLength": 1},
        "numInks": {"type": "integer", "minimum": 2, "maximum": 10}
      }
    }
  }
}`

var labelSchema = jsonschema.MustCompileString("label-v1.schema.json", schemaJSON)

// Parse validates raw label bytes against the schema, decodes them, and
// checks the structural invariants (metadata fields, pattern length).
func Parse(raw []byte) (*SignedPattern, error) {
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("label: decode JSON: %w", err)
	}

	if err := labelSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	var sp SignedPattern
	if err := json.Unmarshal(raw, &sp); err != nil {
		return nil, fmt.Errorf("label: decode signed pattern: %w", err)
	}

	if err := sp.Metadata.Validate(); err != nil {
		return nil, err
	}

	if len(sp.Pattern) != sp.Metadata.GridSize*sp.Metadata.GridSize {
		return nil, fmt.Errorf("%w: got %d values for grid size %d",
			ErrPatternLength, len(sp.Pattern), sp.Metadata.GridSize)
	}

	return &sp, nil
}

// Save writes the signed pattern to a JSON file.
func Save(sp *SignedPattern, path string) error {
	data, err := json.MarshalIndent(sp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Load reads and parses a signed pattern from a JSON file.
func Load(path string) (*SignedPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("label: read %s: %w", path, err)
	}
	return Parse(data)
}
