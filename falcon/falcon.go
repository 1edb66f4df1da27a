// Package falcon implements deterministic, Falcon-512-shaped key material
// derivation and a deterministic stand-in signature engine.
//
// The derivation chain (root seeds, passphrase stretching, one-level child
// seeds, keypair materialization) and the stand-in engine are pure functions
// of their inputs: the same seed always yields the same keypair, and the same
// (message, key) pair always yields the same signature. The engine honors the
// Falcon-512 byte-length contracts but carries no cryptographic security;
// callers needing real lattice signing go through falcon/native behind the
// backend selector.
package falcon

import (
	"errors"
	"fmt"
)

// Byte-length contracts shared by every backend.
const (
	// MinSeedLen is the minimum length for master and child seeds.
	MinSeedLen = 48

	// PubKeySize is the Falcon-512 public key size.
	PubKeySize = 897

	// SecKeySize is the Falcon-512 secret key size.
	SecKeySize = 1281

	// SigSize is the signature encoding size.
	SigSize = 666
)

// Errors returned by derivation and signing operations. All input-validation
// failures wrap ErrInvalidInput so callers can match the whole class.
var (
	ErrInvalidInput    = errors.New("falcon: invalid input")
	ErrSeedTooShort    = fmt.Errorf("%w: seed shorter than %d bytes", ErrInvalidInput, MinSeedLen)
	ErrEmptyPassphrase = fmt.Errorf("%w: empty passphrase", ErrInvalidInput)
	ErrShortSalt       = fmt.Errorf("%w: salt shorter than 8 bytes", ErrInvalidInput)
	ErrZeroIterations  = fmt.Errorf("%w: iterations must be positive", ErrInvalidInput)
	ErrEmptySecretKey  = fmt.Errorf("%w: empty secret key", ErrInvalidInput)
	ErrInvalidMnemonic = fmt.Errorf("%w: malformed mnemonic", ErrInvalidInput)
)

// KeyPair holds a Falcon-512-shaped key pair.
type KeyPair struct {
	PublicKey []byte
	SecretKey []byte
}

// Constants describes the byte-length contract of the published surface.
type Constants struct {
	MinSeedLength   int
	PublicKeyLength int
	SecretKeyLength int
	SignatureLength int
}

// Sizes returns the byte-length contract. It is identical for every backend.
func Sizes() Constants {
	return Constants{
		MinSeedLength:   MinSeedLen,
		PublicKeyLength: PubKeySize,
		SecretKeyLength: SecKeySize,
		SignatureLength: SigSize,
	}
}

// Backend is the operation surface every signing backend satisfies. All
// methods except GenerateSeed are pure functions of their inputs and are safe
// for concurrent use. Verify is total: malformed input yields false, never an
// error.
type Backend interface {
	// Name identifies the backend ("fallback", "native", ...).
	Name() string

	// GenerateSeed returns MinSeedLen bytes of best-effort randomness.
	GenerateSeed() ([]byte, error)

	// KeypairFromSeed expands a seed into a fixed-size key pair.
	KeypairFromSeed(seed []byte) (*KeyPair, error)

	// SeedFromPassphrase stretches passphrase+salt into a seed.
	SeedFromPassphrase(passphrase, salt []byte, iterations uint32) ([]byte, error)

	// DeriveChildSeed derives the child seed at index under a master seed.
	DeriveChildSeed(master []byte, index uint32) ([]byte, error)

	// Sign produces a SigSize-byte signature over msg.
	Sign(msg, secretKey []byte) ([]byte, error)

	// Verify reports whether sig is a valid signature of msg under publicKey.
	Verify(msg, sig, publicKey []byte) bool
}

// Engine is the deterministic stand-in backend built on the byte mixer.
// The zero value is ready to use.
type Engine struct{}

// Name implements Backend.
func (e *Engine) Name() string { return "fallback" }

// GenerateSeed implements Backend.
func (e *Engine) GenerateSeed() ([]byte, error) { return GenerateSeed() }

// KeypairFromSeed implements Backend.
func (e *Engine) KeypairFromSeed(seed []byte) (*KeyPair, error) {
	return KeypairFromSeed(seed)
}

// SeedFromPassphrase implements Backend.
func (e *Engine) SeedFromPassphrase(passphrase, salt []byte, iterations uint32) ([]byte, error) {
	return SeedFromPassphrase(passphrase, salt, iterations)
}

// DeriveChildSeed implements Backend.
func (e *Engine) DeriveChildSeed(master []byte, index uint32) ([]byte, error) {
	return DeriveChildSeed(master, index)
}

// Sign implements Backend.
func (e *Engine) Sign(msg, secretKey []byte) ([]byte, error) {
	return Sign(msg, secretKey)
}

// Verify implements Backend.
func (e *Engine) Verify(msg, sig, publicKey []byte) bool {
	return Verify(msg, sig, publicKey)
}
