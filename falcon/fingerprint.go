package falcon

import (
	"github.com/mr-tron/base58"
)

// fingerprintLen is the number of digest bytes encoded into a fingerprint.
const fingerprintLen = 8

// Fingerprint returns a short base58 identifier for a public key, suitable
// for logs and display. It is derived through the mixer, so it identifies a
// key without revealing any of its bytes, and carries no collision
// resistance beyond the mixer's.
func Fingerprint(publicKey []byte) string {
	if len(publicKey) == 0 {
		return ""
	}
	h := Mix(publicKey)
	return base58.Encode(h[:fingerprintLen])
}
