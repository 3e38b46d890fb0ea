package llm

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// BreakerState represents the circuit breaker state
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

// String returns the state name.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig parameterizes a single breaker
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive tripworthy
	// failures that opens the breaker.
	FailureThreshold int

	// ResetTimeout is the cooldown before a half-open probe is
	// admitted.
	ResetTimeout time.Duration
}

// DefaultFailureThreshold applies when a BreakerConfig leaves the
// threshold unset.
const DefaultFailureThreshold = 3

// Breaker is a three-state guard for one backend. All state
// transitions happen inside a single critical section; the half-open
// probe admission is single-flight across concurrent callers.
type Breaker struct {
	name   string
	config BreakerConfig
	now    func() time.Time
	onTrip func(name string)
	logger *logrus.Logger

	mu                  sync.Mutex
	state               BreakerState
	consecutiveFailures int
	openedAt            time.Time
	probeInFlight       bool
}

// BreakerOption configures a Breaker
type BreakerOption func(*Breaker)

// WithClock injects the time source, for deterministic tests
func WithClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		b.now = now
	}
}

// WithTripCallback registers a hook invoked whenever the breaker
// transitions to open.
func WithTripCallback(fn func(name string)) BreakerOption {
	return func(b *Breaker) {
		b.onTrip = fn
	}
}

// WithBreakerLogger sets the logger for state transitions
func WithBreakerLogger(logger *logrus.Logger) BreakerOption {
	return func(b *Breaker) {
		b.logger = logger
	}
}

// NewBreaker creates a breaker for the named backend
func NewBreaker(name string, config BreakerConfig, opts ...BreakerOption) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultFailureThreshold
	}
	b := &Breaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether a call may proceed. While open it fast-fails
// with a circuit-open Error carrying the remaining cooldown; once the
// reset timeout has elapsed exactly one caller is admitted as the
// half-open probe and everyone else keeps fast-failing until that
// probe resolves.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		elapsed := b.now().Sub(b.openedAt)
		if elapsed < b.config.ResetTimeout {
			return b.openError(b.config.ResetTimeout - elapsed)
		}
		b.transition(StateHalfOpen)
		b.probeInFlight = true
		return nil

	case StateHalfOpen:
		if b.probeInFlight {
			return b.openError(0)
		}
		b.probeInFlight = true
		return nil
	}

	return nil
}

// RecordSuccess resets the breaker after a successful call. A
// successful half-open probe closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.consecutiveFailures = 0
	case StateHalfOpen:
		b.probeInFlight = false
		b.consecutiveFailures = 0
		b.transition(StateClosed)
	}
}

// RecordFailure feeds a failed call back into the breaker. Only
// tripworthy failures count toward opening; a permanent auth or quota
// failure leaves the counters untouched so a config error is never
// masked as a dead backend.
func (b *Breaker) RecordFailure(tripworthy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if !tripworthy {
			return
		}
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.config.FailureThreshold {
			b.openedAt = b.now()
			b.transition(StateOpen)
			if b.onTrip != nil {
				b.onTrip(b.name)
			}
		}

	case StateHalfOpen:
		b.probeInFlight = false
		if !tripworthy {
			// The backend answered; the failure is configuration,
			// not availability.
			b.consecutiveFailures = 0
			b.transition(StateClosed)
			return
		}
		b.openedAt = b.now()
		b.transition(StateOpen)
		if b.onTrip != nil {
			b.onTrip(b.name)
		}
	}
}

// Execute runs fn under breaker protection, classifying any failure
// through tripworthy to decide whether it counts.
func (b *Breaker) Execute(fn func() error, tripworthy func(error) bool) error {
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn()
	if err != nil {
		b.RecordFailure(tripworthy(err))
		return err
	}

	b.RecordSuccess()
	return nil
}

// State returns the current state of the breaker
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ConsecutiveFailures returns the current failure streak
func (b *Breaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures
}

// transition must be called with the lock held.
func (b *Breaker) transition(next BreakerState) {
	prev := b.state
	b.state = next
	if b.logger != nil {
		b.logger.WithFields(logrus.Fields{
			"backend": b.name,
			"from":    prev.String(),
			"to":      next.String(),
		}).Info("circuit breaker state change")
	}
}

func (b *Breaker) openError(retryAfter time.Duration) *Error {
	msg := "circuit breaker is open for " + b.name
	if retryAfter > 0 {
		msg += ", retry in ~" + retryAfter.Round(time.Second).String()
	}
	return &Error{
		Kind:       KindCircuitOpen,
		Backend:    b.name,
		Message:    msg,
		RetryAfter: retryAfter,
	}
}

// BreakerSet holds one independent breaker per backend name. It is
// injected into the Gateway rather than kept as package state, so
// tests get isolated instances.
type BreakerSet struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewBreakerSet creates an empty registry
func NewBreakerSet() *BreakerSet {
	return &BreakerSet{
		breakers: make(map[string]*Breaker),
	}
}

// Register adds a breaker for a backend name, replacing any existing
// one.
func (s *BreakerSet) Register(name string, config BreakerConfig, opts ...BreakerOption) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := NewBreaker(name, config, opts...)
	s.breakers[name] = b
	return b
}

// Get returns the breaker for a backend name, or nil
func (s *BreakerSet) Get(name string) *Breaker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.breakers[name]
}

// States returns the current state of every registered breaker
func (s *BreakerSet) States() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make(map[string]string, len(s.breakers))
	for name, b := range s.breakers {
		states[name] = b.State().String()
	}
	return states
}
