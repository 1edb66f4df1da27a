package falcon

// patternOffset is where the key-material digest is re-readable inside a
// secret key. Sign recovers the digest from this offset instead of from the
// originating seed, so the offset is load-bearing: changing it breaks every
// existing secret key.
const patternOffset = 100

// KeypairFromSeed expands a seed into a Falcon-512-shaped key pair. The
// expansion is referentially transparent: the same seed yields byte-identical
// key pairs on every call, and the pair has no lifecycle of its own.
func KeypairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) < MinSeedLen {
		return nil, ErrSeedTooShort
	}

	h := Mix(seed)

	pub := make([]byte, PubKeySize)
	for i := range pub {
		pub[i] = h[i%mixSize]
	}

	sec := make([]byte, SecKeySize)
	for i := range sec {
		sec[i] = h[(i+patternOffset)%mixSize]
	}

	return &KeyPair{PublicKey: pub, SecretKey: sec}, nil
}
