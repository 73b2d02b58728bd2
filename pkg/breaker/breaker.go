// Package breaker implements a per-host circuit breaker for outbound HTTP
// calls.
//
// A breaker tracks consecutive transport-level failures against one host.
// After reaching a failure threshold it opens: calls fail fast without a
// network attempt until a cooldown elapses. The first call after the
// cooldown runs as a single trial (half-open); its outcome decides whether
// the breaker closes again or re-opens with a fresh cooldown.
//
// Only transport-level failures (no response obtained) should be reported
// via Failure. Ordinary 4xx/5xx responses reached the server and say
// nothing about the host's availability.
package breaker

import (
	"sync"
	"time"

	"github.com/olivekit/oliveapi/pkg/errors"
	"github.com/olivekit/oliveapi/pkg/observability"
)

// State captures circuit breaker states.
type State string

const (
	// StateClosed indicates normal operation.
	StateClosed State = "closed"
	// StateOpen indicates the breaker is rejecting calls.
	StateOpen State = "open"
	// StateHalfOpen indicates a single trial call is permitted.
	StateHalfOpen State = "half-open"
)

// Config controls when a breaker trips and for how long it stays open.
type Config struct {
	// Threshold is the number of consecutive transport failures that trips
	// the breaker. Must be >= 1.
	Threshold int

	// Cooldown is how long an open breaker rejects calls before admitting
	// a trial. Must be >= 1 time unit.
	Cooldown time.Duration
}

// Breaker guards calls against one host. Safe for concurrent use.
type Breaker struct {
	mu            sync.Mutex
	host          string
	cfg           Config
	state         State
	failures      int
	openExpiresAt time.Time
	trialInFlight bool
	now           func() time.Time
}

// New creates a closed breaker for host.
func New(host string, cfg Config) *Breaker {
	return &Breaker{
		host:  host,
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
	}
}

// Allow reports whether a send may proceed. It returns nil when the call is
// admitted, or a CIRCUIT_OPEN error when the breaker is rejecting calls.
//
// When an open breaker's cooldown has elapsed, Allow transitions to
// half-open and admits exactly one trial call; concurrent callers are
// rejected until that trial resolves via Success or Failure.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().After(b.openExpiresAt) {
		b.state = StateHalfOpen
		b.trialInFlight = false
	}

	switch b.state {
	case StateOpen:
		observability.Breaker().OnReject(b.host)
		return errors.New(errors.ErrCodeCircuitOpen, "circuit open for host %s", b.host)
	case StateHalfOpen:
		if b.trialInFlight {
			observability.Breaker().OnReject(b.host)
			return errors.New(errors.ErrCodeCircuitOpen, "trial call in flight for host %s", b.host)
		}
		b.trialInFlight = true
	}
	return nil
}

// Success records a completed exchange and closes the breaker, resetting
// the consecutive-failure counter.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasOpen := b.state != StateClosed || b.failures > 0
	b.state = StateClosed
	b.failures = 0
	b.trialInFlight = false
	if wasOpen {
		observability.Breaker().OnClose(b.host)
	}
}

// Failure records a transport-level failure. In the closed state it
// increments the consecutive-failure counter and opens the breaker at the
// threshold; in the half-open state it re-opens with a fresh cooldown.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.Threshold {
			b.open()
		}
	case StateHalfOpen:
		b.trialInFlight = false
		b.open()
	}
}

// open transitions to StateOpen with a fresh cooldown. Caller holds b.mu.
func (b *Breaker) open() {
	b.state = StateOpen
	b.openExpiresAt = b.now().Add(b.cfg.Cooldown)
	observability.Breaker().OnOpen(b.host, b.failures)
}

// State returns the current state without mutating it. An expired open
// breaker still reports StateOpen until the next Allow observes the
// elapsed cooldown.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive-failure counter.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
