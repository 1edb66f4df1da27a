package falcon

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"time"
)

// maxStretchRounds is the ceiling on mixer applications during passphrase
// stretching. It is a fixed surface contract, not a performance shortcut:
// requesting more iterations has no further effect on the output.
const maxStretchRounds = 1000

// GenerateSeed returns MinSeedLen bytes from the system entropy source.
//
// If the system source fails the seed is filled from a time-seeded PRNG
// instead. The surface does not report which path ran, so callers relying on
// unguessability must not treat a returned seed as proof of a healthy
// entropy source.
func GenerateSeed() ([]byte, error) {
	seed := make([]byte, MinSeedLen)
	if _, err := rand.Read(seed); err != nil {
		r := mrand.New(mrand.NewSource(time.Now().UnixNano()))
		for i := range seed {
			seed[i] = byte(r.Intn(256))
		}
	}
	return seed, nil
}

// SeedFromPassphrase stretches passphrase and salt into a MinSeedLen-byte
// seed by repeated mixing, capped at maxStretchRounds applications.
// The same (passphrase, salt, iterations) triple always yields the same seed.
func SeedFromPassphrase(passphrase, salt []byte, iterations uint32) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if len(salt) < 8 {
		return nil, ErrShortSalt
	}
	if iterations == 0 {
		return nil, ErrZeroIterations
	}

	rounds := iterations
	if rounds > maxStretchRounds {
		rounds = maxStretchRounds
	}

	buf := make([]byte, 0, len(passphrase)+len(salt))
	buf = append(buf, passphrase...)
	buf = append(buf, salt...)
	for i := uint32(0); i < rounds; i++ {
		buf = Mix(buf)
	}

	seed := make([]byte, MinSeedLen)
	for i := range seed {
		seed[i] = buf[i%len(buf)]
	}
	return seed, nil
}

// DeriveChildSeed derives the child seed at index under master by mixing
// master with the big-endian encoding of index. Derivation is a pure
// function of (master, index); distinct indices are expected, though not
// guaranteed, to yield distinct children.
func DeriveChildSeed(master []byte, index uint32) ([]byte, error) {
	if len(master) < MinSeedLen {
		return nil, ErrSeedTooShort
	}

	data := make([]byte, 0, len(master)+4)
	data = append(data, master...)
	data = binary.BigEndian.AppendUint32(data, index)
	h := Mix(data)

	seed := make([]byte, MinSeedLen)
	for i := range seed {
		seed[i] = h[i%len(h)]
	}
	return seed, nil
}
