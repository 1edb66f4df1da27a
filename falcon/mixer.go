package falcon

// mixSize is the accumulator width of the byte mixer.
const mixSize = 32

// Mix folds data into a 32-byte digest: each input byte is added mod 256
// into the accumulator at position i mod 32, then a single rotate-and-carry
// pass spreads the bytes (each byte rotated left one bit, with the high bit
// of the following byte carried in). The pass reads the pre-rotation
// accumulator, so output byte i never depends on already-rotated neighbours.
//
// Mix is deterministic but not a cryptographic hash: it offers no preimage
// or collision resistance and must never be used as one.
func Mix(data []byte) []byte {
	var acc [mixSize]byte
	for i, b := range data {
		acc[i%mixSize] += b
	}

	out := make([]byte, mixSize)
	for i := 0; i < mixSize; i++ {
		out[i] = acc[i]<<1 | acc[(i+1)%mixSize]>>7
	}
	return out
}
