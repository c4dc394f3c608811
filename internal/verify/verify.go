// Package verify implements authenticity verification for scanned labels.
//
// A label passes through an ordered series of checks, each mapping a
// specific failure to a specific status:
//
//  1. HMAC signature over the canonical metadata. Failure means the label
//     was not issued by the key holder: Counterfeit.
//  2. Content hash of the scanned pattern against the signed hash. Failure
//     means the label is genuine but the printed pattern was altered:
//     Tampered.
//  3. Deterministic regeneration from the signed metadata. A mismatch here
//     means the record is internally inconsistent: Invalid.
//
// Only a label that clears all three is Authentic. The checks short
// circuit, so a forged signature is always reported as Counterfeit even
// when the pattern is also damaged.
package verify

import (
	"errors"
	"fmt"
	"time"

	"latticelock/internal/label"
	"latticelock/internal/pattern"
	"latticelock/internal/signature"
)

// Status classifies the outcome of a verification.
type Status string

const (
	StatusAuthentic   Status = "authentic"
	StatusCounterfeit Status = "counterfeit"
	StatusTampered    Status = "tampered"
	StatusInvalid     Status = "invalid"
)

var ErrNilLabel = errors.New("verify: nil signed pattern")

// Result reports the verification outcome. BatchCode, ManufacturerID and
// IssuedAt are populated only for authentic labels; Detail carries a
// human-readable explanation for every non-authentic status.
type Result struct {
	Status         Status    `json:"status"`
	BatchCode      string    `json:"batchCode,omitempty"`
	ManufacturerID string    `json:"manufacturerId,omitempty"`
	IssuedAt       time.Time `json:"issuedAt,omitempty"`
	Detail         string    `json:"detail,omitempty"`
	VerifiedAt     time.Time `json:"verifiedAt"`
}

// Authentic reports whether the label passed all checks.
func (r *Result) Authentic() bool {
	return r.Status == StatusAuthentic
}

// Engine verifies signed patterns against a signature service.
type Engine struct {
	sig *signature.Service
}

// NewEngine creates a verification engine bound to a signing key.
func NewEngine(sig *signature.Service) *Engine {
	return &Engine{sig: sig}
}

// Verify runs the ordered checks against a parsed label. The returned
// error is non-nil only for programming errors, never for failed checks;
// check outcomes are reported through Result.Status.
func (e *Engine) Verify(sp *label.SignedPattern) (*Result, error) {
	if sp == nil {
		return nil, ErrNilLabel
	}

	res := &Result{VerifiedAt: time.Now().UTC()}
	md := &sp.Metadata

	if !e.sig.Verify(md.Canonical(), sp.Signature) {
		res.Status = StatusCounterfeit
		res.Detail = "signature does not match metadata"
		return res, nil
	}

	if pattern.Hash(sp.Pattern) != md.PatternHash {
		res.Status = StatusTampered
		res.Detail = "pattern content does not match signed hash"
		return res, nil
	}

	regen, err := regenerate(md)
	if err != nil {
		res.Status = StatusInvalid
		res.Detail = fmt.Sprintf("cannot regenerate pattern: %v", err)
		return res, nil
	}
	if !equalPatterns(regen, sp.Pattern) {
		res.Status = StatusInvalid
		res.Detail = "regenerated pattern does not match label"
		return res, nil
	}

	res.Status = StatusAuthentic
	res.BatchCode = md.BatchCode
	res.ManufacturerID = md.ManufacturerID
	if ts, err := time.Parse(time.RFC3339, md.Timestamp); err == nil {
		res.IssuedAt = ts
	}
	return res, nil
}

// VerifyRaw parses and verifies a serialized label. Labels that fail to
// parse or violate the schema fold into StatusInvalid rather than an
// error, so a scanner can treat any byte stream uniformly.
func (e *Engine) VerifyRaw(raw []byte) (*Result, error) {
	sp, err := label.Parse(raw)
	if err != nil {
		return &Result{
			Status:     StatusInvalid,
			Detail:     fmt.Sprintf("malformed label: %v", err),
			VerifiedAt: time.Now().UTC(),
		}, nil
	}
	return e.Verify(sp)
}

// regenerate reruns the generator with the signed parameters.
func regenerate(md *pattern.Metadata) ([]int, error) {
	strat, err := pattern.Lookup(md.Algorithm)
	if err != nil {
		return nil, err
	}
	return strat.Generate(md.BatchCode, md.GridSize*md.GridSize, md.NumInks)
}

func equalPatterns(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
