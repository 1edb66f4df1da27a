package falcon

// patternShift is where the signing pattern reappears in a public key.
// A secret key carries the key-material digest rotated by
// (2*patternOffset) mod 32 positions relative to the public key prefix, so
// the verifier reads the same 32 bytes starting at this offset.
const patternShift = (2 * patternOffset) % mixSize

// Sign produces a deterministic SigSize-byte signature over msg. The 32-byte
// pattern embedded at patternOffset in the secret key stands in for the
// originating seed; the signature is a pure function of (msg, secretKey).
func Sign(msg, secretKey []byte) ([]byte, error) {
	if len(secretKey) == 0 {
		return nil, ErrEmptySecretKey
	}

	pattern := make([]byte, mixSize)
	for j := range pattern {
		pattern[j] = secretKey[(patternOffset+j)%len(secretKey)]
	}

	data := make([]byte, 0, len(msg)+mixSize)
	data = append(data, msg...)
	data = append(data, pattern...)
	h := Mix(data)

	sig := make([]byte, SigSize)
	for i := range sig {
		sig[i] = h[i%mixSize] ^ byte(i&0xFF)
	}
	return sig, nil
}

// Verify reports whether sig is the signature Sign would produce for msg
// under the secret key paired with publicKey. It is total: empty inputs or a
// signature of the wrong length yield false without any mixing, and no input
// can make it return an error.
func Verify(msg, sig, publicKey []byte) bool {
	if len(sig) != SigSize || len(publicKey) == 0 {
		return false
	}

	pattern := make([]byte, mixSize)
	for j := range pattern {
		pattern[j] = publicKey[(patternShift+j)%len(publicKey)]
	}

	data := make([]byte, 0, len(msg)+mixSize)
	data = append(data, msg...)
	data = append(data, pattern...)
	h := Mix(data)

	for i := range sig {
		if sig[i] != h[i%mixSize]^byte(i&0xFF) {
			return false
		}
	}
	return true
}
