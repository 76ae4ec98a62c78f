// Package breaker implements a per-operation circuit breaker that stops
// calling a failing dependency for a cooldown period.
package breaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/al-mudeer/resilience/pkg/config"
)

const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 60 * time.Second
)

// State identifies the breaker position in its state machine.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
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

// ErrCircuitOpen is returned when a call is rejected without invoking the
// wrapped operation. It is never conflated with the operation's own errors.
var ErrCircuitOpen = errors.New("circuit breaker is open: service unavailable")

// TransitionRecorder receives every state transition, e.g. for metrics.
type TransitionRecorder func(from, to State)

var (
	recorderMu         sync.RWMutex
	transitionRecorder TransitionRecorder
)

// RegisterTransitionRecorder installs a process-wide transition observer.
func RegisterTransitionRecorder(fn TransitionRecorder) {
	recorderMu.Lock()
	defer recorderMu.Unlock()
	transitionRecorder = fn
}

func recordTransition(from, to State) {
	recorderMu.RLock()
	fn := transitionRecorder
	recorderMu.RUnlock()

	if fn != nil {
		fn(from, to)
	}
}

// Option customizes a Breaker at construction time.
type Option func(*Breaker)

// WithFailureClassifier restricts which errors count against the threshold.
// Errors the classifier rejects pass through without touching breaker state.
func WithFailureClassifier(fn func(error) bool) Option {
	return func(b *Breaker) {
		if fn != nil {
			b.isFailure = fn
		}
	}
}

// Breaker gates calls to a single operation type through a three-state
// machine. Instances never share state; all fields are guarded by mu.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failureCount    int
	lastFailureTime time.Time

	failureThreshold int
	recoveryTimeout  time.Duration
	isFailure        func(error) bool
	log              *slog.Logger
}

// New constructs a Breaker from configuration, applying platform defaults
// for unset values.
func New(cfg config.BreakerConfig, log *slog.Logger, opts ...Option) *Breaker {
	if log == nil {
		log = slog.Default()
	}

	b := &Breaker{
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		recoveryTimeout:  cfg.RecoveryTimeout,
		isFailure:        func(error) bool { return true },
		log:              log,
	}

	if b.failureThreshold <= 0 {
		b.failureThreshold = DefaultFailureThreshold
	}
	if b.recoveryTimeout <= 0 {
		b.recoveryTimeout = DefaultRecoveryTimeout
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	return b
}

// Call executes fn under the breaker. In Open state the call is rejected
// with ErrCircuitOpen unless the recovery timeout has elapsed, in which case
// the breaker moves to HalfOpen and the call proceeds as a trial. The
// Open-to-HalfOpen decision happens under the lock, so exactly one caller
// performs the transition.
func (b *Breaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}

	b.mu.Lock()
	if b.state == StateOpen {
		if time.Since(b.lastFailureTime) > b.recoveryTimeout {
			b.transitionLocked(StateHalfOpen)
			b.log.Info("circuit breaker attempting recovery")
		} else {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	b.mu.Unlock()

	callErr := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if callErr == nil {
		b.failureCount = 0
		if b.state == StateHalfOpen {
			b.transitionLocked(StateClosed)
		}
		return nil
	}

	if !b.isFailure(callErr) {
		// not a counted failure class, pass through unaffected
		return callErr
	}

	b.failureCount++
	b.lastFailureTime = time.Now()

	switch {
	case b.state == StateHalfOpen:
		// a single trial failure reopens immediately
		b.transitionLocked(StateOpen)
	case b.failureCount >= b.failureThreshold:
		b.transitionLocked(StateOpen)
		b.log.Warn("circuit breaker opened", slog.Int("failures", b.failureCount))
	}

	return callErr
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transitionLocked(to State) {
	from := b.state
	if from == to {
		return
	}

	b.state = to
	recordTransition(from, to)
}
