// Package backoff computes reconnection timing for the Hermes framework.
// It produces a lazy sequence of (connect timeout, backoff delay) pairs that
// grows multiplicatively between attempts, with symmetric random jitter to
// avoid synchronized retry storms across many clients.
package backoff

import (
	"fmt"
	"math/rand"
	"time"
)

// Default values an interoperable endpoint is expected to match.
const (
	DefaultInitialBackoff    = 1 * time.Second
	DefaultMaximumBackoff    = 120 * time.Second
	DefaultMultiplier        = 1.6
	DefaultJitter            = 0.2
	DefaultMinConnectTimeout = 20 * time.Second
)

// Retries bounds how many elements a backoff sequence may produce.
// The zero value is unlimited.
type Retries struct {
	limited bool
	count   int
}

// Unlimited returns a retry budget that never runs out.
func Unlimited() Retries {
	return Retries{}
}

// UpTo returns a retry budget of exactly n elements. Negative n is
// treated as zero, which produces an empty sequence.
func UpTo(n int) Retries {
	if n < 0 {
		n = 0
	}
	return Retries{limited: true, count: n}
}

// IsUnlimited reports whether the budget never runs out.
func (r Retries) IsUnlimited() bool {
	return !r.limited
}

func (r Retries) String() string {
	if !r.limited {
		return "unlimited"
	}
	return fmt.Sprintf("upTo(%d)", r.count)
}

// take consumes one element from the budget. Reports false once exhausted.
func (r *Retries) take() bool {
	if !r.limited {
		return true
	}
	if r.count == 0 {
		return false
	}
	r.count--
	return true
}

// Cfg holds the parameters of a backoff sequence.
type Cfg struct {
	// InitialBackoff is the delay before the second connection attempt.
	InitialBackoff time.Duration
	// MaximumBackoff clamps the unjittered delay growth.
	MaximumBackoff time.Duration
	// Multiplier scales the unjittered delay between attempts. Must be >1.
	Multiplier float64
	// Jitter is the symmetric random perturbation fraction in [0,1].
	Jitter float64
	// MinConnectTimeout is the floor for every returned connect timeout.
	MinConnectTimeout time.Duration
	// Retries bounds the number of elements. Zero value is unlimited.
	Retries Retries
}

// DefaultCfg returns the interoperable default parameters: 1s initial,
// 120s maximum, 1.6 multiplier, 0.2 jitter, 20s minimum connect timeout,
// unlimited retries.
func DefaultCfg() Cfg {
	return Cfg{
		InitialBackoff:    DefaultInitialBackoff,
		MaximumBackoff:    DefaultMaximumBackoff,
		Multiplier:        DefaultMultiplier,
		Jitter:            DefaultJitter,
		MinConnectTimeout: DefaultMinConnectTimeout,
		Retries:           Unlimited(),
	}
}

// Validate checks parameter ranges.
func (cfg Cfg) Validate() error {
	if cfg.InitialBackoff <= 0 {
		return fmt.Errorf("backoff: initial backoff must be positive, got %v", cfg.InitialBackoff)
	}
	if cfg.MaximumBackoff <= 0 {
		return fmt.Errorf("backoff: maximum backoff must be positive, got %v", cfg.MaximumBackoff)
	}
	if cfg.Multiplier <= 1 {
		return fmt.Errorf("backoff: multiplier must be greater than 1, got %v", cfg.Multiplier)
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		return fmt.Errorf("backoff: jitter must be within [0,1], got %v", cfg.Jitter)
	}
	if cfg.MinConnectTimeout < 0 {
		return fmt.Errorf("backoff: minimum connect timeout must not be negative, got %v", cfg.MinConnectTimeout)
	}
	return nil
}

// Element is one step of a backoff sequence.
type Element struct {
	// ConnectTimeout is how long the next connection attempt may take.
	// Always at least the configured minimum connect timeout.
	ConnectTimeout time.Duration
	// Backoff is the jittered delay to wait before that attempt.
	Backoff time.Duration
}

// Iterator walks a backoff sequence. Not safe for concurrent use; it is
// meant to be advanced only from the single context driving reconnection.
type Iterator struct {
	cfg Cfg
	rng *rand.Rand

	// unjittered grows monotonically up to cfg.MaximumBackoff.
	unjittered time.Duration
	// first is computed once at construction from the un-grown initial
	// value and handed out verbatim by the first Next call.
	first    Element
	hasFirst bool
	budget   Retries
}

// NewIterator returns an iterator over the sequence described by cfg.
func NewIterator(cfg Cfg) *Iterator {
	return newIterator(cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newIterator(cfg Cfg, rng *rand.Rand) *Iterator {
	it := &Iterator{
		cfg:        cfg,
		rng:        rng,
		unjittered: min(cfg.InitialBackoff, cfg.MaximumBackoff),
		budget:     cfg.Retries,
	}
	it.first = it.element(it.unjittered)
	it.hasFirst = true
	return it
}

// Next returns the next element of the sequence. The second return value
// is false once the retry budget is exhausted; an upTo(0) budget yields
// no elements at all.
func (it *Iterator) Next() (Element, bool) {
	if !it.budget.take() {
		return Element{}, false
	}
	if it.hasFirst {
		it.hasFirst = false
		return it.first, true
	}
	it.unjittered = min(time.Duration(float64(it.unjittered)*it.cfg.Multiplier), it.cfg.MaximumBackoff)
	return it.element(it.unjittered), true
}

func (it *Iterator) element(unjittered time.Duration) Element {
	jittered := it.jitter(unjittered)
	return Element{
		ConnectTimeout: max(jittered, it.cfg.MinConnectTimeout),
		Backoff:        jittered,
	}
}

// jitter perturbs d by a uniform amount in ±(cfg.Jitter × d).
func (it *Iterator) jitter(d time.Duration) time.Duration {
	if it.cfg.Jitter == 0 {
		return d
	}
	spread := it.cfg.Jitter * float64(d)
	delta := (it.rng.Float64()*2 - 1) * spread
	return time.Duration(float64(d) + delta)
}
