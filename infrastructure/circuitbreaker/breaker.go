// Package circuitbreaker stops calling an upstream that keeps failing.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned instead of calling the upstream while the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the state of the circuit breaker.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the open timeout elapses.
	StateOpen
	// StateHalfOpen lets trial calls through to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures a circuit breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that closes it again.
	SuccessThreshold int
	// OpenTimeout is how long the circuit stays open before a trial call.
	OpenTimeout time.Duration
	// IsFailure decides whether an error returned by the guarded call counts
	// against the upstream. Errors it rejects are answers, not outages, and
	// count as successes. Nil counts every error.
	IsFailure func(error) bool
	// OnStateChange is called with the breaker name on every transition.
	OnStateChange func(name string, from, to State)
	// Now overrides the clock in tests.
	Now func() time.Time
}

// DefaultConfig returns the breaker settings used for signal providers.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// Breaker implements the circuit breaker pattern for one upstream.
type Breaker struct {
	name   string
	config Config

	mu           sync.Mutex
	state        State
	failureCount int
	successCount int
	openedAt     time.Time
}

// New creates a closed breaker. Non-positive config values fall back to DefaultConfig.
func New(name string, cfg Config) *Breaker {
	def := DefaultConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Breaker{name: name, config: cfg, state: StateClosed}
}

// Name returns the upstream name the breaker guards.
func (b *Breaker) Name() string {
	return b.name
}

// Execute runs fn unless the circuit is open. Context errors from the caller
// and errors rejected by Config.IsFailure are not counted as upstream failures.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := fn(ctx)

	if err != nil && ctx.Err() != nil {
		return err
	}
	if err != nil && b.config.IsFailure != nil && !b.config.IsFailure(err) {
		b.afterCall(nil)
		return err
	}
	b.afterCall(err)

	return err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	elapsed := b.config.Now().Sub(b.openedAt)
	if elapsed < b.config.OpenTimeout {
		return fmt.Errorf("%w: %s retries in %v", ErrCircuitOpen, b.name, b.config.OpenTimeout-elapsed)
	}

	b.transitionTo(StateHalfOpen)
	return nil
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failureCount++
		if b.state == StateHalfOpen || b.failureCount >= b.config.FailureThreshold {
			b.openedAt = b.config.Now()
			b.transitionTo(StateOpen)
		}
		return
	}

	b.failureCount = 0
	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

// transitionTo must be called with b.mu held.
func (b *Breaker) transitionTo(next State) {
	if b.state == next {
		return
	}

	prev := b.state
	b.state = next
	b.failureCount = 0
	b.successCount = 0

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(b.name, prev, next)
	}
}

// State returns the current state of the circuit breaker.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
