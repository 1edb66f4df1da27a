// Package native implements the in-process lattice backend: Falcon-style
// hash-then-sign over Z_q[X]/(X^N+1) with q=12289, SHAKE-256 expansion, and
// deterministic signatures. It satisfies the same operation surface and
// byte-length contracts as the deterministic stand-in engine, but its outputs
// are unrelated to it; the two backends are interchangeable only in shape.
package native

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"

	"github.com/pqkit/pqkit/falcon"
)

// Encoding layout constants.
const (
	pubKeyHeader = 0x08 // log2(latticeN)
	secKeyHeader = 0x58 // 0x50 | pubKeyHeader

	// Secret key: header || f || g, both centered int16 LE, zero padded.
	skFOffset = 1
	skGOffset = 1 + 2*latticeN

	// Signature: nonce || binding digest || z (centered int16 LE), zero
	// padded to falcon.SigSize.
	nonceSize   = 40
	bindingSize = 32
	sigZOffset  = nonceSize + bindingSize

	// maxStretchRounds mirrors the stand-in engine's stretching ceiling.
	maxStretchRounds = 1000
)

// Domain separation tags for SHAKE-256 expansion.
var (
	tagKeygen    = []byte("pqkit-falcon-keygen")
	tagMask      = []byte("pqkit-falcon-mask")
	tagChallenge = []byte("pqkit-falcon-challenge")
	tagBinding   = []byte("pqkit-falcon-binding")
	tagChild     = []byte("pqkit-falcon-child")
)

// Errors specific to the native backend.
var (
	ErrKeyGen       = errors.New("native: key generation failed")
	ErrBadSecretKey = fmt.Errorf("%w: malformed native secret key", falcon.ErrInvalidInput)
)

// Engine is the native lattice backend. The zero value is ready to use.
type Engine struct{}

// New returns a native backend instance.
func New() *Engine { return &Engine{} }

// Name implements falcon.Backend.
func (e *Engine) Name() string { return "native" }

// GenerateSeed implements falcon.Backend using the system entropy source.
func (e *Engine) GenerateSeed() ([]byte, error) {
	seed := make([]byte, falcon.MinSeedLen)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("native: entropy source: %w", err)
	}
	return seed, nil
}

// SeedFromPassphrase implements falcon.Backend via PBKDF2-SHA3-256. The
// round count honors the same 1000-application ceiling as the stand-in
// engine so both backends are cap-equivalent at the surface.
func (e *Engine) SeedFromPassphrase(passphrase, salt []byte, iterations uint32) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, falcon.ErrEmptyPassphrase
	}
	if len(salt) < 8 {
		return nil, falcon.ErrShortSalt
	}
	if iterations == 0 {
		return nil, falcon.ErrZeroIterations
	}
	rounds := iterations
	if rounds > maxStretchRounds {
		rounds = maxStretchRounds
	}
	return pbkdf2.Key(passphrase, salt, int(rounds), falcon.MinSeedLen, sha3.New256), nil
}

// DeriveChildSeed implements falcon.Backend via SHAKE-256 over the master
// seed and the big-endian index.
func (e *Engine) DeriveChildSeed(master []byte, index uint32) ([]byte, error) {
	if len(master) < falcon.MinSeedLen {
		return nil, falcon.ErrSeedTooShort
	}
	h := sha3.NewShake256()
	h.Write(master)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	h.Write(idx[:])
	h.Write(tagChild)

	seed := make([]byte, falcon.MinSeedLen)
	h.Read(seed)
	return seed, nil
}

// KeypairFromSeed implements falcon.Backend. Key generation expands the seed
// with SHAKE-256, samples short polynomials f and g, and publishes
// h = g * f^{-1} mod q. The expansion is deterministic: the same seed yields
// the same key pair, retrying with a bumped attempt counter when f is not
// invertible.
func (e *Engine) KeypairFromSeed(seed []byte) (*falcon.KeyPair, error) {
	if len(seed) < falcon.MinSeedLen {
		return nil, falcon.ErrSeedTooShort
	}

	for attempt := 0; attempt < 16; attempt++ {
		sh := sha3.NewShake256()
		sh.Write(seed)
		sh.Write(tagKeygen)
		sh.Write([]byte{byte(attempt)})

		fPoly := sampleShort(func(b []byte) { sh.Read(b) })
		gPoly := sampleShort(func(b []byte) { sh.Read(b) })

		// f must be odd at the constant term for invertibility heuristics.
		if fPoly[0]%2 == 0 {
			fPoly[0] = modQ(fPoly[0] + 1)
		}

		fNTT := ntt(fPoly)
		fInvNTT := make([]int32, latticeN)
		invertible := true
		for i := 0; i < latticeN; i++ {
			if fNTT[i] == 0 {
				invertible = false
				break
			}
			fInvNTT[i] = modInverse(fNTT[i], latticeQ)
		}
		if !invertible {
			continue
		}

		gNTT := ntt(gPoly)
		hNTT := make([]int32, latticeN)
		for i := 0; i < latticeN; i++ {
			hNTT[i] = mulMod(gNTT[i], fInvNTT[i])
		}
		hPoly := intt(hNTT)

		pub := make([]byte, falcon.PubKeySize)
		pub[0] = pubKeyHeader
		for i := 0; i < latticeN; i++ {
			binary.LittleEndian.PutUint16(pub[1+2*i:], uint16(hPoly[i]))
		}

		sec := make([]byte, falcon.SecKeySize)
		sec[0] = secKeyHeader
		for i := 0; i < latticeN; i++ {
			binary.LittleEndian.PutUint16(sec[skFOffset+2*i:], uint16(int16(centerMod(fPoly[i]))))
			binary.LittleEndian.PutUint16(sec[skGOffset+2*i:], uint16(int16(centerMod(gPoly[i]))))
		}

		return &falcon.KeyPair{PublicKey: pub, SecretKey: sec}, nil
	}
	return nil, ErrKeyGen
}

// Sign implements falcon.Backend: hash-then-sign with a deterministic nonce,
// z = s + c*f, and a binding digest over h*z that ties the signature to the
// public polynomial.
func (e *Engine) Sign(msg, secretKey []byte) ([]byte, error) {
	if len(secretKey) == 0 {
		return nil, falcon.ErrEmptySecretKey
	}
	if len(secretKey) != falcon.SecKeySize || secretKey[0] != secKeyHeader {
		return nil, ErrBadSecretKey
	}
	if len(msg) == 0 {
		msg = []byte{0x00}
	}

	fPoly := decodePoly(secretKey[skFOffset:], latticeN)
	gPoly := decodePoly(secretKey[skGOffset:], latticeN)

	// Recompute h = g * f^{-1}; a corrupted f shows up here.
	fNTT := ntt(fPoly)
	fInvNTT := make([]int32, latticeN)
	for i := 0; i < latticeN; i++ {
		if fNTT[i] == 0 {
			return nil, ErrBadSecretKey
		}
		fInvNTT[i] = modInverse(fNTT[i], latticeQ)
	}
	gNTT := ntt(gPoly)
	hNTT := make([]int32, latticeN)
	for i := 0; i < latticeN; i++ {
		hNTT[i] = mulMod(gNTT[i], fInvNTT[i])
	}
	hPoly := intt(hNTT)

	// Deterministic nonce from sk || msg.
	nh := sha3.NewShake256()
	nh.Write(secretKey)
	nh.Write(msg)
	nonce := make([]byte, nonceSize)
	nh.Read(nonce)

	cPoly := deriveChallenge(nonce, msg)

	// Masking noise, then z = s + c*f.
	mh := sha3.NewShake256()
	mh.Write(nonce)
	mh.Write(msg)
	mh.Write(tagMask)
	sPoly := sampleShort(func(b []byte) { mh.Read(b) })

	cf := nttMul(cPoly, fPoly)
	zPoly := make([]int32, latticeN)
	for i := 0; i < latticeN; i++ {
		zPoly[i] = modQ(sPoly[i] + cf[i])
	}

	binding := bindingDigest(nttMul(hPoly, zPoly), cPoly)

	sig := make([]byte, falcon.SigSize)
	copy(sig[:nonceSize], nonce)
	copy(sig[nonceSize:sigZOffset], binding)
	for i := 0; i < latticeN; i++ {
		binary.LittleEndian.PutUint16(sig[sigZOffset+2*i:], uint16(int16(centerMod(zPoly[i]))))
	}
	return sig, nil
}

// Verify implements falcon.Backend. It is total: malformed input yields
// false. A signature passes when z is short, and the binding digest over
// h*z matches under the challenge reconstructed from the nonce.
func (e *Engine) Verify(msg, sig, publicKey []byte) bool {
	if len(sig) != falcon.SigSize || len(publicKey) != falcon.PubKeySize {
		return false
	}
	if publicKey[0] != pubKeyHeader {
		return false
	}
	if len(msg) == 0 {
		msg = []byte{0x00}
	}

	hPoly := make([]int32, latticeN)
	for i := 0; i < latticeN; i++ {
		hPoly[i] = modQ(int32(binary.LittleEndian.Uint16(publicKey[1+2*i:])))
	}

	nonce := sig[:nonceSize]
	binding := sig[nonceSize:sigZOffset]
	zPoly := decodePoly(sig[sigZOffset:], latticeN)

	// Norm bound on z.
	normSq := int64(0)
	for i := 0; i < latticeN; i++ {
		v := int64(centerMod(zPoly[i]))
		normSq += v * v
	}
	if normSq > sigNormBound || normSq == 0 {
		return false
	}

	for i := range zPoly {
		zPoly[i] = modQ(zPoly[i])
	}

	cPoly := deriveChallenge(nonce, msg)
	expected := bindingDigest(nttMul(hPoly, zPoly), cPoly)
	for i := range binding {
		if binding[i] != expected[i] {
			return false
		}
	}
	return true
}

// deriveChallenge maps (nonce, msg) to a sparse polynomial with
// challengeWeight coefficients in {-1, +1}.
func deriveChallenge(nonce, msg []byte) []int32 {
	h := sha3.NewShake256()
	h.Write(nonce)
	h.Write(msg)
	h.Write(tagChallenge)

	c := make([]int32, latticeN)
	buf := make([]byte, 2)
	for i := 0; i < challengeWeight; i++ {
		h.Read(buf)
		pos := int(binary.LittleEndian.Uint16(buf)) % latticeN
		if buf[0]&1 == 0 {
			c[pos] = 1
		} else {
			c[pos] = latticeQ - 1 // -1 mod q
		}
	}
	return c
}

// bindingDigest hashes w = h*z together with the challenge into the 32-byte
// digest embedded in every signature. Both signer and verifier can compute
// it, but only with the correct public polynomial.
func bindingDigest(w, c []int32) []byte {
	h := sha3.NewShake256()
	buf := make([]byte, 2)
	for i := 0; i < latticeN; i++ {
		binary.LittleEndian.PutUint16(buf, uint16(modQ(w[i])))
		h.Write(buf)
	}
	for i := 0; i < latticeN; i++ {
		binary.LittleEndian.PutUint16(buf, uint16(modQ(c[i])))
		h.Write(buf)
	}
	h.Write(tagBinding)

	out := make([]byte, bindingSize)
	h.Read(out)
	return out
}

// decodePoly reads n centered int16 LE coefficients.
func decodePoly(b []byte, n int) []int32 {
	poly := make([]int32, n)
	for i := 0; i < n; i++ {
		poly[i] = int32(int16(binary.LittleEndian.Uint16(b[2*i:])))
	}
	return poly
}
