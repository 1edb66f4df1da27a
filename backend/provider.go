package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/pqkit/pqkit/falcon"
	"github.com/pqkit/pqkit/log"
)

// Options configures a Provider.
type Options struct {
	// Loader acquires the preferred backend. Nil selects NativeLoader.
	Loader Loader

	// Logger receives load/fallback events. Nil selects the default logger.
	Logger *log.Logger
}

// Provider owns the backend state machine and publishes the operation
// surface. Exactly one load cycle is in flight at a time; derivation and
// signing calls fail fast with ErrNotReady until a cycle completes. A later
// Load replaces the active backend as a discrete cutover — in-flight
// operations against the old backend are not cancelled.
type Provider struct {
	mu      sync.RWMutex
	state   State
	backend falcon.Backend
	loadErr error
	loading bool
	gen     uint64

	loader Loader
	log    *log.Logger
}

// NewProvider returns an uninitialized Provider. Call Load before using the
// operation surface.
func NewProvider(opts Options) *Provider {
	ld := opts.Loader
	if ld == nil {
		ld = NativeLoader
	}
	lg := opts.Logger
	if lg == nil {
		lg = log.Default()
	}
	return &Provider{
		state:  StateUninitialized,
		loader: ld,
		log:    lg.Module("backend"),
	}
}

// Load runs one load cycle: acquire the preferred backend, probe its
// capability surface, and publish it. Any acquisition or probe failure is
// recovered by substituting the deterministic stand-in engine; the cycle
// still ends Ready. Only failure to construct the stand-in itself — pure
// local computation that should never fail — ends in StateFailed, and that
// error is returned.
//
// A second Load may be issued later (for example after reconfiguration) and
// re-enters StateLoading; concurrent loads are rejected with
// ErrLoadInFlight.
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return ErrLoadInFlight
	}
	p.loading = true
	p.state = StateLoading
	p.mu.Unlock()

	acquired, err := p.loader(ctx)
	if err == nil {
		err = probe(acquired)
	}

	result := "native"
	if err != nil {
		// Named fallback policy: recover locally, warn, keep going.
		p.log.Warn("preferred backend unavailable, substituting fallback engine", "err", err)
		fallbackActivations.Inc()
		acquired = &falcon.Engine{}
		result = "fallback"
		if perr := probe(acquired); perr != nil {
			p.mu.Lock()
			p.state = StateFailed
			p.loadErr = perr
			p.loading = false
			p.mu.Unlock()
			loadsTotal.WithLabelValues("failed").Inc()
			return fmt.Errorf("backend: fallback construction failed: %w", perr)
		}
	}

	p.mu.Lock()
	p.backend = acquired
	p.state = StateReady
	p.loadErr = nil
	p.loading = false
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	loadsTotal.WithLabelValues(result).Inc()
	p.log.Info("backend ready", "backend", acquired.Name(), "generation", gen)
	return nil
}

// State returns the current lifecycle state.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Generation returns the number of completed load cycles. Callers can
// detect a backend cutover by watching it change.
func (p *Provider) Generation() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gen
}

// BackendName returns the active backend's name, or "" before Ready.
func (p *Provider) BackendName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state != StateReady {
		return ""
	}
	return p.backend.Name()
}

// Constants returns the byte-length contract. It is static and available in
// every state.
func (p *Provider) Constants() falcon.Constants {
	return falcon.Sizes()
}

// current returns the active backend, or ErrNotReady outside StateReady.
func (p *Provider) current() (falcon.Backend, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state != StateReady {
		return nil, fmt.Errorf("%w: provider is %s", ErrNotReady, p.state)
	}
	return p.backend, nil
}

// GenerateSeed returns a fresh root seed from the active backend.
func (p *Provider) GenerateSeed() ([]byte, error) {
	b, err := p.current()
	if err != nil {
		return nil, err
	}
	return b.GenerateSeed()
}

// KeypairFromSeed expands a seed into a key pair.
func (p *Provider) KeypairFromSeed(seed []byte) (*falcon.KeyPair, error) {
	b, err := p.current()
	if err != nil {
		return nil, err
	}
	return b.KeypairFromSeed(seed)
}

// SeedFromPassphrase stretches passphrase+salt into a seed.
func (p *Provider) SeedFromPassphrase(passphrase, salt []byte, iterations uint32) ([]byte, error) {
	b, err := p.current()
	if err != nil {
		return nil, err
	}
	return b.SeedFromPassphrase(passphrase, salt, iterations)
}

// KeypairFromPassphrase derives a seed from the passphrase and materializes
// its key pair in one step.
func (p *Provider) KeypairFromPassphrase(passphrase, salt []byte, iterations uint32) (*falcon.KeyPair, error) {
	b, err := p.current()
	if err != nil {
		return nil, err
	}
	seed, err := b.SeedFromPassphrase(passphrase, salt, iterations)
	if err != nil {
		return nil, err
	}
	return b.KeypairFromSeed(seed)
}

// DeriveChildSeed derives the child seed at index under a master seed.
func (p *Provider) DeriveChildSeed(master []byte, index uint32) ([]byte, error) {
	b, err := p.current()
	if err != nil {
		return nil, err
	}
	return b.DeriveChildSeed(master, index)
}

// KeypairFromIndex derives the child seed at index and materializes its key
// pair in one step.
func (p *Provider) KeypairFromIndex(master []byte, index uint32) (*falcon.KeyPair, error) {
	b, err := p.current()
	if err != nil {
		return nil, err
	}
	seed, err := b.DeriveChildSeed(master, index)
	if err != nil {
		return nil, err
	}
	return b.KeypairFromSeed(seed)
}

// Sign produces a signature over msg with the active backend.
func (p *Provider) Sign(msg, secretKey []byte) ([]byte, error) {
	b, err := p.current()
	if err != nil {
		return nil, err
	}
	opsTotal.WithLabelValues("sign").Inc()
	return b.Sign(msg, secretKey)
}

// Verify checks a signature with the active backend. Malformed input yields
// (false, nil); the only possible error is ErrNotReady, preserving the
// fail-fast ordering guarantee without making verification itself throw.
func (p *Provider) Verify(msg, sig, publicKey []byte) (bool, error) {
	b, err := p.current()
	if err != nil {
		return false, err
	}
	opsTotal.WithLabelValues("verify").Inc()
	return b.Verify(msg, sig, publicKey), nil
}
