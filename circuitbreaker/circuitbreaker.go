package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alorle/tv-channels/metrics"
)

// State represents the current state of the circuit breaker
type State int

const (
	// StateClosed means calls reach the backend
	StateClosed State = iota
	// StateOpen means calls are short-circuited
	StateOpen
	// StateHalfOpen means a limited number of probe calls are let through
	StateHalfOpen
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config contains the configuration for a circuit breaker
type Config struct {
	Name             string        // Backend name used in logs and metrics
	FailureThreshold int           // Consecutive failures before opening
	Timeout          time.Duration // Time spent OPEN before probing again
	HalfOpenRequests int           // Probe calls allowed in HALF-OPEN
	Logger           *slog.Logger  // Optional

	// IsFailure reports whether an error returned by the wrapped call counts
	// against the backend. Nil means every non-nil error counts.
	IsFailure func(error) bool
}

// CircuitBreaker guards calls to a remote logo backend.
type CircuitBreaker interface {
	// Execute runs fn if the circuit allows it
	Execute(fn func() error) error
	// State returns the current state
	State() State
	// Reset forces the circuit back to CLOSED
	Reset()
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is in OPEN state
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrHalfOpenLimitReached is returned when too many requests are made in HALF-OPEN state
	ErrHalfOpenLimitReached = errors.New("circuit breaker half-open request limit reached")
)

type breaker struct {
	config Config
	logger *slog.Logger
	mu     sync.RWMutex

	state             State
	failureCount      int
	halfOpenRequests  int
	halfOpenSuccesses int
	openedAt          time.Time
	now               func() time.Time
}

// New creates a circuit breaker. Zero values fall back to 5 failures,
// a 30s open period and a single half-open probe.
func New(cfg Config) CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests <= 0 {
		cfg.HalfOpenRequests = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := &breaker{
		config: cfg,
		logger: logger.With("backend", cfg.Name),
		state:  StateClosed,
		now:    time.Now,
	}
	if cfg.Name != "" {
		metrics.SetCircuitBreakerState(cfg.Name, StateClosed.String())
	}
	return b
}

// Execute runs fn if the circuit allows it. The error returned by fn is
// passed through unchanged whether or not it counts as a failure.
func (b *breaker) Execute(fn func() error) error {
	b.mu.Lock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.config.Timeout {
		b.transitionTo(StateHalfOpen)
	}

	switch current := b.state; current {
	case StateOpen:
		b.mu.Unlock()
		return ErrCircuitOpen

	case StateHalfOpen:
		if b.halfOpenRequests >= b.config.HalfOpenRequests {
			b.mu.Unlock()
			return ErrHalfOpenLimitReached
		}
		b.halfOpenRequests++
		b.mu.Unlock()

		err := fn()

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.config.IsFailure(err) {
			b.transitionTo(StateOpen)
			return err
		}
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.config.HalfOpenRequests {
			b.transitionTo(StateClosed)
		}
		return err

	case StateClosed:
		b.mu.Unlock()

		err := fn()

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.config.IsFailure(err) {
			b.failureCount++
			if b.failureCount >= b.config.FailureThreshold {
				b.transitionTo(StateOpen)
			}
			return err
		}
		b.failureCount = 0
		return err

	default:
		b.mu.Unlock()
		return fmt.Errorf("unknown circuit breaker state: %d", current)
	}
}

// State returns the current state of the circuit breaker
func (b *breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Reset resets the circuit breaker to CLOSED state
func (b *breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionTo(StateClosed)
}

// transitionTo must be called with the lock held.
func (b *breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState

	level := slog.LevelInfo
	if newState == StateOpen {
		level = slog.LevelWarn
	}
	b.logger.Log(context.Background(), level, "circuit breaker state change",
		"from", oldState.String(),
		"to", newState.String(),
		"failures", b.failureCount,
	)

	if b.config.Name != "" {
		metrics.SetCircuitBreakerState(b.config.Name, newState.String())
		if newState == StateOpen {
			metrics.RecordCircuitBreakerTrip(b.config.Name)
		}
	}

	switch newState {
	case StateClosed:
		b.failureCount = 0
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0
		b.openedAt = time.Time{}

	case StateOpen:
		b.openedAt = b.now()
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0

	case StateHalfOpen:
		b.halfOpenRequests = 0
		b.halfOpenSuccesses = 0
	}
}
