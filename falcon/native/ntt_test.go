package native

import "testing"

// schoolbookNegacyclic multiplies two polynomials mod X^N+1 mod q directly,
// as the correctness oracle for the transform-domain product.
func schoolbookNegacyclic(a, b []int32) []int32 {
	n := len(a)
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			prod := mulMod(a[i], b[j])
			k := i + j
			if k < n {
				out[k] = modQ(out[k] + prod)
			} else {
				out[k-n] = modQ(out[k-n] - prod)
			}
		}
	}
	return out
}

func TestNTTRoundTrip(t *testing.T) {
	a := make([]int32, latticeN)
	for i := range a {
		a[i] = int32((i*i + 7) % latticeQ)
	}
	back := intt(ntt(a))
	for i := range a {
		if modQ(back[i]) != modQ(a[i]) {
			t.Fatalf("coefficient %d: got %d, want %d", i, back[i], a[i])
		}
	}
}

func TestNTTRejectsWrongLength(t *testing.T) {
	if ntt(make([]int32, latticeN-1)) != nil {
		t.Error("ntt accepted a short polynomial")
	}
	if intt(make([]int32, latticeN+1)) != nil {
		t.Error("intt accepted a long polynomial")
	}
}

func TestNTTMulMatchesSchoolbook(t *testing.T) {
	a := make([]int32, latticeN)
	b := make([]int32, latticeN)
	for i := range a {
		a[i] = int32((3*i + 1) % latticeQ)
		b[i] = int32((5*i + 11) % latticeQ)
	}
	want := schoolbookNegacyclic(a, b)
	got := nttMul(a, b)
	for i := range got {
		if modQ(got[i]) != want[i] {
			t.Fatalf("coefficient %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestModInverse(t *testing.T) {
	for _, v := range []int32{1, 2, 3, 1000, latticeQ - 1} {
		inv := modInverse(v, latticeQ)
		if mulMod(v, inv) != 1 {
			t.Errorf("%d * %d != 1 mod q", v, inv)
		}
	}
}

func TestCenterMod(t *testing.T) {
	cases := map[int32]int32{
		0:              0,
		1:              1,
		latticeQ - 1:   -1,
		latticeQ / 2:   latticeQ / 2,
		latticeQ/2 + 1: -(latticeQ / 2),
		latticeQ:       0,
		2*latticeQ + 3: 3,
		-(latticeQ + 2): -2,
	}
	for in, want := range cases {
		if got := centerMod(in); got != want {
			t.Errorf("centerMod(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSampleShortBounds(t *testing.T) {
	// A counter stream is enough to exercise the range reduction.
	var ctr byte
	read := func(p []byte) {
		for i := range p {
			p[i] = ctr
			ctr += 0x5B
		}
	}
	poly := sampleShort(read)
	if len(poly) != latticeN {
		t.Fatalf("len = %d, want %d", len(poly), latticeN)
	}
	for i, c := range poly {
		if c < -gaussianBound || c > gaussianBound {
			t.Fatalf("coefficient %d = %d outside [-%d, %d]", i, c, gaussianBound, gaussianBound)
		}
	}
}
