// Package keystore stores root seeds encrypted under a passphrase. Seeds are
// sealed with AES-256-GCM under a scrypt-derived key and persisted as one
// JSON envelope per seed, named by the seed's key fingerprint.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/scrypt"

	"github.com/pqkit/pqkit/config"
	"github.com/pqkit/pqkit/falcon"
)

const (
	envelopeVersion = 1
	saltSize        = 32
	sealKeySize     = 32
)

var (
	ErrNotFound      = errors.New("keystore: seed not found")
	ErrWrongPass     = errors.New("keystore: wrong passphrase")
	ErrAlreadyExists = errors.New("keystore: seed already stored")
	ErrBadEnvelope   = errors.New("keystore: malformed envelope")
)

// Envelope is the persisted form of one encrypted seed.
type Envelope struct {
	Fingerprint string `json:"fingerprint"`
	ID          string `json:"id"`
	Version     int    `json:"version"`
	KDF         string `json:"kdf"`
	ScryptN     int    `json:"scryptN"`
	ScryptR     int    `json:"scryptR"`
	ScryptP     int    `json:"scryptP"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	CipherText  []byte `json:"ciphertext"`
}

// Store manages encrypted seeds (thread-safe). Entries live in memory and,
// when a directory is configured, on disk as JSON envelopes.
type Store struct {
	mu   sync.RWMutex
	cfg  config.KeystoreConfig
	dir  string
	keys map[string]*Envelope
}

// Open returns a Store over cfg. When cfg.Dir is non-empty the directory is
// created if needed and existing envelopes are loaded.
func Open(cfg config.KeystoreConfig) (*Store, error) {
	s := &Store{
		cfg:  cfg,
		dir:  cfg.Dir,
		keys: make(map[string]*Envelope),
	}
	if s.dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore: create %s: %w", s.dir, err)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("keystore: read %s: %w", s.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("keystore: read %s: %w", entry.Name(), err)
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadEnvelope, entry.Name())
		}
		s.keys[env.Fingerprint] = &env
	}
	return s, nil
}

// Store seals seed under passphrase and records it keyed by the fingerprint
// of the key pair the seed expands to. The fingerprint is returned.
func (s *Store) Store(seed []byte, passphrase string) (string, error) {
	kp, err := falcon.KeypairFromSeed(seed)
	if err != nil {
		return "", err
	}
	fp := falcon.Fingerprint(kp.PublicKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[fp]; ok {
		return "", fmt.Errorf("%w: %s", ErrAlreadyExists, fp)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("keystore: salt: %w", err)
	}
	sealKey, err := s.deriveSealKey(passphrase, salt)
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(sealKey)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("keystore: nonce: %w", err)
	}

	id, err := newUUIDv4()
	if err != nil {
		return "", err
	}
	env := &Envelope{
		Fingerprint: fp,
		ID:          id,
		Version:     envelopeVersion,
		KDF:         "scrypt",
		ScryptN:     s.cfg.ScryptN,
		ScryptR:     s.cfg.ScryptR,
		ScryptP:     s.cfg.ScryptP,
		Salt:        salt,
		Nonce:       nonce,
		CipherText:  gcm.Seal(nil, nonce, seed, []byte(fp)),
	}
	if err := s.persist(env); err != nil {
		return "", err
	}
	s.keys[fp] = env
	return fp, nil
}

// Load decrypts and returns the seed for fingerprint.
func (s *Store) Load(fingerprint, passphrase string) ([]byte, error) {
	s.mu.RLock()
	env, ok := s.keys[fingerprint]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fingerprint)
	}

	sealKey, err := scrypt.Key([]byte(passphrase), env.Salt,
		env.ScryptN, env.ScryptR, env.ScryptP, sealKeySize)
	if err != nil {
		return nil, fmt.Errorf("keystore: scrypt: %w", err)
	}
	gcm, err := newGCM(sealKey)
	if err != nil {
		return nil, err
	}
	seed, err := gcm.Open(nil, env.Nonce, env.CipherText, []byte(env.Fingerprint))
	if err != nil {
		return nil, ErrWrongPass
	}
	return seed, nil
}

// Has reports whether a seed is stored for fingerprint.
func (s *Store) Has(fingerprint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[fingerprint]
	return ok
}

// Fingerprints returns the fingerprints of all stored seeds.
func (s *Store) Fingerprints() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fps := make([]string, 0, len(s.keys))
	for fp := range s.keys {
		fps = append(fps, fp)
	}
	return fps
}

// Delete removes the seed for fingerprint from memory and disk.
func (s *Store) Delete(fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[fingerprint]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, fingerprint)
	}
	if s.dir != "" {
		if err := os.Remove(s.envelopePath(fingerprint)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("keystore: remove envelope: %w", err)
		}
	}
	delete(s.keys, fingerprint)
	return nil
}

// ChangePassphrase re-seals the seed for fingerprint under newPass.
func (s *Store) ChangePassphrase(fingerprint, oldPass, newPass string) error {
	seed, err := s.Load(fingerprint, oldPass)
	if err != nil {
		return err
	}
	if err := s.Delete(fingerprint); err != nil {
		return err
	}
	_, err = s.Store(seed, newPass)
	return err
}

func (s *Store) deriveSealKey(passphrase string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt,
		s.cfg.ScryptN, s.cfg.ScryptR, s.cfg.ScryptP, sealKeySize)
	if err != nil {
		return nil, fmt.Errorf("keystore: scrypt: %w", err)
	}
	return key, nil
}

func (s *Store) persist(env *Envelope) error {
	if s.dir == "" {
		return nil
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("keystore: encode envelope: %w", err)
	}
	path := s.envelopePath(env.Fingerprint)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("keystore: write envelope: %w", err)
	}
	return nil
}

func (s *Store) envelopePath(fingerprint string) string {
	return filepath.Join(s.dir, fingerprint+".json")
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keystore: gcm: %w", err)
	}
	return gcm, nil
}

func newUUIDv4() (string, error) {
	var uuid [16]byte
	if _, err := rand.Read(uuid[:]); err != nil {
		return "", fmt.Errorf("keystore: uuid: %w", err)
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16]), nil
}
