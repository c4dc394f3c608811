package signature

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestSignAndVerify(t *testing.T) {
	svc, err := New(newTestKey(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	data := `{"batchCode":"BATCH-001","gridSize":4}`
	sig := svc.Sign(data)

	if !svc.Verify(data, sig) {
		t.Error("signature failed to verify")
	}
	if svc.Verify(data+" ", sig) {
		t.Error("verification passed with modified data")
	}
	if svc.Verify(data, "not-base64!!!") {
		t.Error("verification passed with malformed signature")
	}
}

func TestSignDeterministic(t *testing.T) {
	svc, err := New(newTestKey(t))
	if err != nil {
		t.Fatal(err)
	}
	if svc.Sign("data") != svc.Sign("data") {
		t.Error("same data produced different signatures")
	}
}

func TestTamperSensitivity(t *testing.T) {
	svc, err := New(newTestKey(t))
	if err != nil {
		t.Fatal(err)
	}

	data := `{"batchCode":"BATCH-001","gridSize":4,"numInks":3}`
	sig := svc.Sign(data)

	// Flipping any single character of the signed data must break
	// verification.
	for i := 0; i < len(data); i++ {
		mutated := []byte(data)
		mutated[i] ^= 0x01
		if svc.Verify(string(mutated), sig) {
			t.Fatalf("verification passed after flipping byte %d", i)
		}
	}
}

func TestDifferentKeysDisagree(t *testing.T) {
	a, err := New(newTestKey(t))
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(newTestKey(t))
	if err != nil {
		t.Fatal(err)
	}

	sig := a.Sign("data")
	if b.Verify("data", sig) {
		t.Error("signature from one key verified under another")
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New([]byte("short")); err != ErrKeyTooShort {
		t.Errorf("expected ErrKeyTooShort, got %v", err)
	}
}

func TestDeriveKey(t *testing.T) {
	master := newTestKey(t)

	a, err := DeriveKey(master, "ACME")
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeriveKey(master, "ACME")
	if err != nil {
		t.Fatal(err)
	}
	c, err := DeriveKey(master, "GLOBEX")
	if err != nil {
		t.Fatal(err)
	}

	if string(a) != string(b) {
		t.Error("same manufacturer produced different keys")
	}
	if string(a) == string(c) {
		t.Error("different manufacturers produced the same key")
	}
	if string(a) == string(master[:32]) {
		t.Error("derived key equals master secret")
	}

	if _, err := DeriveKey([]byte("short"), "ACME"); err != ErrKeyTooShort {
		t.Errorf("expected ErrKeyTooShort, got %v", err)
	}
}

func TestLoadKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signing.key")

	key := newTestKey(t)
	if err := os.WriteFile(path, key, 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadKey(path)
	if err != nil {
		t.Fatalf("load key: %v", err)
	}
	if string(loaded) != string(key) {
		t.Error("loaded key differs from written key")
	}

	if _, err := LoadKey(filepath.Join(dir, "missing.key")); err == nil {
		t.Error("expected error for missing key file")
	}

	shortPath := filepath.Join(dir, "short.key")
	if err := os.WriteFile(shortPath, []byte("short"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadKey(shortPath); err != ErrKeyTooShort {
		t.Errorf("expected ErrKeyTooShort, got %v", err)
	}
}

func TestSignatureEncoding(t *testing.T) {
	svc, err := New(newTestKey(t))
	if err != nil {
		t.Fatal(err)
	}
	sig := svc.Sign("data")
	// HMAC-SHA256 is 32 bytes; base64 of 32 bytes is 44 characters.
	if len(sig) != 44 || !strings.HasSuffix(sig, "=") {
		t.Errorf("unexpected signature encoding: %q", sig)
	}
}
