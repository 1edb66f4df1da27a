// Package backend selects the signing backend at runtime. A Provider owns
// one load/fallback state machine: it attempts to acquire the native lattice
// backend and, on any failure, substitutes the deterministic stand-in engine
// behind the identical operation surface. Fallback substitution is a named
// recovery policy — observable through logs and metrics, never an error to
// callers.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/pqkit/pqkit/falcon"
	"github.com/pqkit/pqkit/falcon/native"
)

// State is the lifecycle position of a Provider.
type State uint8

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Errors reported by the provider.
var (
	ErrNotReady     = errors.New("backend: not ready")
	ErrLoadInFlight = errors.New("backend: load already in flight")
	ErrNilBackend   = errors.New("backend: loader returned nil backend")
)

// Loader acquires a backend instance. Acquisition may block (the context
// carries any deadline the caller wants; none is imposed here) and may fail;
// failure is recovered by fallback substitution, not propagated.
type Loader func(ctx context.Context) (falcon.Backend, error)

// NativeLoader acquires the in-process lattice backend.
func NativeLoader(ctx context.Context) (falcon.Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return native.New(), nil
}

// probe validates that an acquired backend exposes the minimum capability
// surface with the contracted shapes before it is declared Ready.
func probe(b falcon.Backend) error {
	if b == nil {
		return ErrNilBackend
	}
	seed, err := b.GenerateSeed()
	if err != nil {
		return fmt.Errorf("backend: probe GenerateSeed: %w", err)
	}
	if len(seed) != falcon.MinSeedLen {
		return fmt.Errorf("backend: probe seed length %d, want %d", len(seed), falcon.MinSeedLen)
	}
	kp, err := b.KeypairFromSeed(seed)
	if err != nil {
		return fmt.Errorf("backend: probe KeypairFromSeed: %w", err)
	}
	if len(kp.PublicKey) != falcon.PubKeySize || len(kp.SecretKey) != falcon.SecKeySize {
		return fmt.Errorf("backend: probe keypair shape %d/%d, want %d/%d",
			len(kp.PublicKey), len(kp.SecretKey), falcon.PubKeySize, falcon.SecKeySize)
	}
	return nil
}
