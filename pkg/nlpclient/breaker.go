package nlpclient

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

const (
	DefaultFailureThreshold = 3
	DefaultResetTimeout     = 60 * time.Second
)

// ErrBreakerRejected is returned by Allow while the breaker is open or its
// half-open probe is in flight.
var ErrBreakerRejected = errors.New("circuit breaker rejected call")

// Status is a snapshot of the breaker for monitoring.
type Status struct {
	State        State     `json:"state"`
	FailureCount int       `json:"failureCount"`
	NextAttempt  time.Time `json:"nextAttemptTime"`
}

// Breaker opens after a run of consecutive failures and rejects calls until
// the reset timeout has passed. Then a single probe is let through: success
// closes it, failure opens it again.
type Breaker struct {
	cb           *gobreaker.TwoStepCircuitBreaker
	threshold    int
	resetTimeout time.Duration

	// guarded by mu, never held while calling into cb
	mu          sync.Mutex
	failures    int
	nextAttempt time.Time
	openings    uint64
}

func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if resetTimeout <= 0 {
		resetTimeout = DefaultResetTimeout
	}
	b := &Breaker{threshold: threshold, resetTimeout: resetTimeout}
	b.cb = gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        "nlp",
		MaxRequests: 1,
		Timeout:     resetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: b.onStateChange,
	})
	return b
}

func (b *Breaker) onStateChange(_ string, _, to gobreaker.State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch to {
	case gobreaker.StateOpen:
		b.openings++
		b.nextAttempt = time.Now().Add(b.resetTimeout)
	case gobreaker.StateClosed:
		b.failures = 0
		b.nextAttempt = time.Time{}
	}
}

// Allow asks to make a call. The returned Ticket must be settled with
// exactly one of Success, Failure or Release.
func (b *Breaker) Allow() (*Ticket, error) {
	done, err := b.cb.Allow()
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrBreakerRejected
		}
		return nil, err
	}
	return &Ticket{
		b:     b,
		done:  done,
		probe: b.cb.State() == gobreaker.StateHalfOpen,
	}, nil
}

func (b *Breaker) Status() Status {
	state := fromGobreaker(b.cb.State())

	b.mu.Lock()
	defer b.mu.Unlock()
	st := Status{State: state, FailureCount: b.failures}
	if state != StateClosed {
		st.NextAttempt = b.nextAttempt
	}
	return st
}

func (b *Breaker) openCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openings
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Ticket is one admitted call.
type Ticket struct {
	b     *Breaker
	done  func(success bool)
	probe bool
	once  sync.Once
}

func (t *Ticket) settle(fn func()) {
	t.once.Do(fn)
}

func (t *Ticket) Success() {
	t.settle(func() {
		t.done(true)
		t.b.mu.Lock()
		t.b.failures = 0
		t.b.mu.Unlock()
	})
}

// Failure records a failed call and reports whether it opened the breaker.
func (t *Ticket) Failure() (opened bool) {
	t.settle(func() {
		before := t.b.openCount()
		t.b.mu.Lock()
		t.b.failures++
		t.b.mu.Unlock()
		t.done(false)
		opened = t.b.openCount() > before
	})
	return opened
}

// Release settles the call without counting it, e.g. when the caller gave
// up. A released half-open probe cannot be handed back, so the breaker
// opens again for another reset timeout.
func (t *Ticket) Release() {
	t.settle(func() {
		if t.probe {
			t.done(false)
		}
	})
}
