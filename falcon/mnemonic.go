package falcon

import (
	"github.com/tyler-smith/go-bip39"
)

// NewMnemonic generates a fresh 24-word BIP-39 mnemonic backed by 256 bits
// of entropy. The mnemonic is an exchange format for seeds, not a seed
// itself; feed it through SeedFromMnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// SeedFromMnemonic derives a master seed from a BIP-39 mnemonic and an
// optional password. The same (mnemonic, password) pair always yields the
// same seed.
func SeedFromMnemonic(mnemonic, password string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	// BIP-39 stretches to 64 bytes; the derivation chain needs MinSeedLen.
	full := bip39.NewSeed(mnemonic, password)
	return full[:MinSeedLen], nil
}
