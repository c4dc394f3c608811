package verify

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"latticelock/internal/label"
	"latticelock/internal/pattern"
	"latticelock/internal/signature"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

func testEngine(t *testing.T) (*Engine, *signature.Service) {
	t.Helper()
	svc, err := signature.New(testKey)
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(svc), svc
}

// issue generates and signs a label the way the production pipeline does.
func issue(t *testing.T, svc *signature.Service, batchCode string, gridSize, numInks int) *label.SignedPattern {
	t.Helper()

	strat, err := pattern.Lookup(pattern.DefaultAlgorithm)
	if err != nil {
		t.Fatal(err)
	}
	pat, err := strat.Generate(batchCode, gridSize*gridSize, numInks)
	if err != nil {
		t.Fatal(err)
	}

	md := pattern.NewMetadata(batchCode, pat, gridSize, numInks, "ACME", pattern.DefaultAlgorithm, time.Now())
	return &label.SignedPattern{
		Pattern:   pat,
		Signature: svc.Sign(md.Canonical()),
		Metadata:  md,
	}
}

func TestAuthenticLabel(t *testing.T) {
	eng, svc := testEngine(t)
	sp := issue(t, svc, "BATCH-001", 4, 3)

	res, err := eng.Verify(sp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusAuthentic {
		t.Fatalf("status = %s (%s), want authentic", res.Status, res.Detail)
	}
	if !res.Authentic() {
		t.Error("Authentic() = false for authentic result")
	}
	if res.BatchCode != "BATCH-001" || res.ManufacturerID != "ACME" {
		t.Errorf("provenance not reported: batch=%q manufacturer=%q", res.BatchCode, res.ManufacturerID)
	}
	if res.IssuedAt.IsZero() {
		t.Error("IssuedAt not populated")
	}
}

func TestFlippedCellIsTampered(t *testing.T) {
	eng, svc := testEngine(t)
	sp := issue(t, svc, "BATCH-002", 5, 4)

	// Change one cell to a different valid ink ID.
	sp.Pattern[7] = (sp.Pattern[7] + 1) % 4

	res, err := eng.Verify(sp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusTampered {
		t.Errorf("status = %s, want tampered", res.Status)
	}
	if res.BatchCode != "" {
		t.Error("provenance must not be reported for a tampered label")
	}
}

func TestForeignSignatureIsCounterfeit(t *testing.T) {
	eng, _ := testEngine(t)

	otherKey := bytes.Repeat([]byte{0x99}, 32)
	other, err := signature.New(otherKey)
	if err != nil {
		t.Fatal(err)
	}
	sp := issue(t, other, "BATCH-003", 4, 3)

	res, err := eng.Verify(sp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusCounterfeit {
		t.Errorf("status = %s, want counterfeit", res.Status)
	}
}

func TestEditedMetadataIsCounterfeit(t *testing.T) {
	eng, svc := testEngine(t)
	sp := issue(t, svc, "BATCH-004", 4, 3)

	// Relabeling the batch invalidates the signature before any later
	// check runs.
	sp.Metadata.BatchCode = "BATCH-999"

	res, err := eng.Verify(sp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusCounterfeit {
		t.Errorf("status = %s, want counterfeit", res.Status)
	}
}

func TestCounterfeitWinsOverTampered(t *testing.T) {
	eng, _ := testEngine(t)

	otherKey := bytes.Repeat([]byte{0x77}, 32)
	other, err := signature.New(otherKey)
	if err != nil {
		t.Fatal(err)
	}
	sp := issue(t, other, "BATCH-005", 4, 3)
	sp.Pattern[0] = (sp.Pattern[0] + 1) % 3

	res, err := eng.Verify(sp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusCounterfeit {
		t.Errorf("status = %s, want counterfeit to take precedence", res.Status)
	}
}

func TestConsistentForgeryIsInvalid(t *testing.T) {
	eng, svc := testEngine(t)
	sp := issue(t, svc, "BATCH-006", 4, 3)

	// Insider attack: replace the pattern, recompute the hash and
	// re-sign with the real key. Signature and hash both pass; only
	// regeneration catches it.
	for i := range sp.Pattern {
		sp.Pattern[i] = (sp.Pattern[i] + 1) % 3
	}
	sp.Metadata.PatternHash = pattern.Hash(sp.Pattern)
	sp.Signature = svc.Sign(sp.Metadata.Canonical())

	res, err := eng.Verify(sp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusInvalid {
		t.Errorf("status = %s, want invalid", res.Status)
	}
}

func TestUnknownAlgorithmIsInvalid(t *testing.T) {
	eng, svc := testEngine(t)
	sp := issue(t, svc, "BATCH-007", 4, 3)

	sp.Metadata.Algorithm = "rot13"
	sp.Signature = svc.Sign(sp.Metadata.Canonical())

	res, err := eng.Verify(sp)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusInvalid {
		t.Errorf("status = %s, want invalid", res.Status)
	}
}

func TestVerifyRawRoundTrip(t *testing.T) {
	eng, svc := testEngine(t)
	sp := issue(t, svc, "BATCH-008", 4, 3)

	raw, err := json.Marshal(sp)
	if err != nil {
		t.Fatal(err)
	}

	res, err := eng.VerifyRaw(raw)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusAuthentic {
		t.Errorf("status = %s (%s), want authentic", res.Status, res.Detail)
	}
}

func TestVerifyRawMalformed(t *testing.T) {
	eng, _ := testEngine(t)

	for _, raw := range [][]byte{
		[]byte("{{{{"),
		[]byte(`{"pattern": [0,1]}`),
		nil,
	} {
		res, err := eng.VerifyRaw(raw)
		if err != nil {
			t.Fatal(err)
		}
		if res.Status != StatusInvalid {
			t.Errorf("VerifyRaw(%q) status = %s, want invalid", raw, res.Status)
		}
		if res.Detail == "" {
			t.Error("malformed label must carry a detail message")
		}
	}
}

func TestNilLabel(t *testing.T) {
	eng, _ := testEngine(t)
	if _, err := eng.Verify(nil); err != ErrNilLabel {
		t.Errorf("err = %v, want ErrNilLabel", err)
	}
}

func TestAllStrategiesVerifyAuthentic(t *testing.T) {
	eng, svc := testEngine(t)

	for _, name := range pattern.Names() {
		strat, err := pattern.Lookup(name)
		if err != nil {
			t.Fatal(err)
		}
		pat, err := strat.Generate("BATCH-ALL", 16, 5)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		md := pattern.NewMetadata("BATCH-ALL", pat, 4, 5, "ACME", name, time.Now())
		sp := &label.SignedPattern{
			Pattern:   pat,
			Signature: svc.Sign(md.Canonical()),
			Metadata:  md,
		}

		res, err := eng.Verify(sp)
		if err != nil {
			t.Fatal(err)
		}
		if res.Status != StatusAuthentic {
			t.Errorf("%s: status = %s (%s), want authentic", name, res.Status, res.Detail)
		}
	}
}
