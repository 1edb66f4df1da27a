package keystore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pqkit/pqkit/config"
	"github.com/pqkit/pqkit/falcon"
)

// testConfig uses minimal scrypt cost so the suite stays fast.
func testConfig(dir string) config.KeystoreConfig {
	return config.KeystoreConfig{Dir: dir, ScryptN: 16, ScryptR: 2, ScryptP: 1}
}

func testSeed() []byte {
	s := make([]byte, falcon.MinSeedLen)
	for i := range s {
		s[i] = byte(i * 3)
	}
	return s
}

func TestStoreLoadRoundTrip(t *testing.T) {
	s, err := Open(testConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	fp, err := s.Store(testSeed(), "open sesame")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if fp == "" {
		t.Fatal("empty fingerprint")
	}
	if !s.Has(fp) {
		t.Error("Has = false after Store")
	}

	got, err := s.Load(fp, "open sesame")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, testSeed()) {
		t.Error("loaded seed differs from stored seed")
	}
}

func TestLoadWrongPassphrase(t *testing.T) {
	s, _ := Open(testConfig(t.TempDir()))
	fp, err := s.Store(testSeed(), "right")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := s.Load(fp, "wrong"); !errors.Is(err, ErrWrongPass) {
		t.Errorf("err = %v, want ErrWrongPass", err)
	}
}

func TestLoadUnknownFingerprint(t *testing.T) {
	s, _ := Open(testConfig(t.TempDir()))
	if _, err := s.Load("nope", "pass"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreRejectsDuplicate(t *testing.T) {
	s, _ := Open(testConfig(t.TempDir()))
	if _, err := s.Store(testSeed(), "a"); err != nil {
		t.Fatalf("first Store: %v", err)
	}
	if _, err := s.Store(testSeed(), "b"); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestStoreRejectsShortSeed(t *testing.T) {
	s, _ := Open(testConfig(t.TempDir()))
	if _, err := s.Store(make([]byte, 32), "pass"); !errors.Is(err, falcon.ErrSeedTooShort) {
		t.Errorf("err = %v, want ErrSeedTooShort", err)
	}
}

func TestPersistenceAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(testConfig(dir))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fp, err := first.Store(testSeed(), "durable")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, fp+".json")); err != nil {
		t.Fatalf("envelope file: %v", err)
	}

	second, err := Open(testConfig(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := second.Load(fp, "durable")
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if !bytes.Equal(got, testSeed()) {
		t.Error("seed changed across reopen")
	}
}

func TestOpenRejectsMalformedEnvelope(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(testConfig(dir)); !errors.Is(err, ErrBadEnvelope) {
		t.Errorf("err = %v, want ErrBadEnvelope", err)
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	s, _ := Open(testConfig(dir))
	fp, _ := s.Store(testSeed(), "gone soon")

	if err := s.Delete(fp); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Has(fp) {
		t.Error("Has = true after Delete")
	}
	if _, err := os.Stat(filepath.Join(dir, fp+".json")); !os.IsNotExist(err) {
		t.Error("envelope file survived Delete")
	}
	if err := s.Delete(fp); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestChangePassphrase(t *testing.T) {
	s, _ := Open(testConfig(t.TempDir()))
	fp, _ := s.Store(testSeed(), "old")

	if err := s.ChangePassphrase(fp, "wrong", "new"); !errors.Is(err, ErrWrongPass) {
		t.Fatalf("wrong old pass err = %v, want ErrWrongPass", err)
	}
	if err := s.ChangePassphrase(fp, "old", "new"); err != nil {
		t.Fatalf("ChangePassphrase: %v", err)
	}
	if _, err := s.Load(fp, "old"); !errors.Is(err, ErrWrongPass) {
		t.Error("old passphrase still decrypts")
	}
	got, err := s.Load(fp, "new")
	if err != nil {
		t.Fatalf("Load with new pass: %v", err)
	}
	if !bytes.Equal(got, testSeed()) {
		t.Error("seed changed across passphrase change")
	}
}

func TestFingerprints(t *testing.T) {
	s, _ := Open(testConfig(t.TempDir()))
	if got := s.Fingerprints(); len(got) != 0 {
		t.Fatalf("fresh store lists %d fingerprints", len(got))
	}
	fp, _ := s.Store(testSeed(), "x")
	other := bytes.Repeat([]byte{0xAB}, falcon.MinSeedLen)
	fp2, _ := s.Store(other, "y")

	got := s.Fingerprints()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	seen := map[string]bool{got[0]: true, got[1]: true}
	if !seen[fp] || !seen[fp2] {
		t.Errorf("Fingerprints() = %v, want %q and %q", got, fp, fp2)
	}
}
