package native

import "encoding/binary"

// Lattice parameters. The ring is Z_q[X]/(X^N+1) with q=12289; N=256 keeps
// both short polynomials inside the 1281-byte secret key encoding.
const (
	latticeN = 256
	latticeQ = 12289

	// gaussianBound is the infinity-norm bound for sampled coefficients.
	gaussianBound = 6

	// challengeWeight is the number of non-zero challenge positions.
	challengeWeight = 40

	// sigNormBound is the squared L2 norm bound for valid signatures:
	// |z_i| <= gaussianBound*(1+challengeWeight), squared and summed.
	sigNormBound = latticeN * 246 * 246
)

// zetas holds precomputed twiddle factors in bit-reversed order.
var zetas [latticeN]int32

func init() {
	// 11 is a primitive root mod 12289 (order 12288 = 2^12*3), so
	// psi = 11^(12288/512) is a primitive 512th root of unity for the
	// negacyclic NTT of degree 256.
	psi := powMod(11, 12288/(2*latticeN), latticeQ)
	zetas[0] = 1
	for i := 1; i < latticeN; i++ {
		br := bitReverse(i, 8) // 8 = log2(256)
		zetas[i] = powMod(psi, int32(br), latticeQ)
	}
}

// ntt performs the forward Number Theoretic Transform, converting from
// coefficient domain to evaluation domain for fast multiplication.
func ntt(poly []int32) []int32 {
	n := len(poly)
	if n != latticeN {
		return nil
	}
	out := make([]int32, n)
	copy(out, poly)

	k := 1
	for length := n / 2; length >= 1; length /= 2 {
		for start := 0; start < n; start += 2 * length {
			zeta := zetas[k]
			k++
			for j := start; j < start+length; j++ {
				t := mulMod(zeta, out[j+length])
				out[j+length] = modQ(out[j] - t)
				out[j] = modQ(out[j] + t)
			}
		}
	}
	return out
}

// intt performs the inverse transform, including the 1/N scaling.
func intt(poly []int32) []int32 {
	n := len(poly)
	if n != latticeN {
		return nil
	}
	out := make([]int32, n)
	copy(out, poly)

	k := n - 1
	for length := 1; length <= n/2; length *= 2 {
		for start := 0; start < n; start += 2 * length {
			zeta := zetas[k]
			k--
			for j := start; j < start+length; j++ {
				t := out[j]
				out[j] = modQ(t + out[j+length])
				out[j+length] = mulMod(zeta, modQ(out[j+length]-t))
			}
		}
	}

	nInv := modInverse(int32(n), latticeQ)
	for i := range out {
		out[i] = mulMod(out[i], nInv)
	}
	return out
}

// nttMul multiplies two polynomials in the ring via the NTT.
func nttMul(a, b []int32) []int32 {
	aNTT := ntt(a)
	bNTT := ntt(b)
	if aNTT == nil || bNTT == nil {
		return make([]int32, latticeN)
	}
	cNTT := make([]int32, latticeN)
	for i := 0; i < latticeN; i++ {
		cNTT[i] = mulMod(aNTT[i], bNTT[i])
	}
	return intt(cNTT)
}

// sampleShort draws a polynomial with coefficients in
// [-gaussianBound, gaussianBound] from a SHAKE stream.
func sampleShort(read func([]byte)) []int32 {
	poly := make([]int32, latticeN)
	buf := make([]byte, 2)
	bound := int32(gaussianBound)
	span := 2*bound + 1

	for i := 0; i < latticeN; i++ {
		read(buf)
		val := int32(binary.LittleEndian.Uint16(buf)) % span
		poly[i] = val - bound
	}
	return poly
}

// modQ reduces x to [0, latticeQ).
func modQ(x int32) int32 {
	r := x % latticeQ
	if r < 0 {
		r += latticeQ
	}
	return r
}

// mulMod multiplies a and b modulo latticeQ.
func mulMod(a, b int32) int32 {
	r := (int64(a) * int64(b)) % int64(latticeQ)
	if r < 0 {
		r += int64(latticeQ)
	}
	return int32(r)
}

// centerMod reduces x to [-q/2, q/2).
func centerMod(x int32) int32 {
	r := modQ(x)
	if r > latticeQ/2 {
		r -= latticeQ
	}
	return r
}

// modInverse computes the inverse of a mod m by extended GCD.
func modInverse(a, m int32) int32 {
	if m <= 1 {
		return 0
	}
	a0 := a % m
	if a0 < 0 {
		a0 += m
	}
	t, newT := int64(0), int64(1)
	r, newR := int64(m), int64(a0)
	for newR != 0 {
		q := r / newR
		t, newT = newT, t-q*newT
		r, newR = newR, r-q*newR
	}
	if t < 0 {
		t += int64(m)
	}
	return int32(t)
}

// powMod computes base^exp mod m.
func powMod(base, exp, m int32) int32 {
	result := int64(1)
	b := int64(base) % int64(m)
	if b < 0 {
		b += int64(m)
	}
	e := exp
	if e < 0 {
		e = -e
	}
	for e > 0 {
		if e&1 == 1 {
			result = (result * b) % int64(m)
		}
		b = (b * b) % int64(m)
		e >>= 1
	}
	return int32(result)
}

// bitReverse reverses the lower 'bits' bits of x.
func bitReverse(x, bits int) int {
	var r int
	for i := 0; i < bits; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}
