package autodeck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/VantageDataChat/autodeck/internal/httpx"
)

// RetryState is a state of the per-asset generation state machine.
type RetryState int

const (
	StateIdle RetryState = iota
	StateRequesting
	StateBackingOff
	StateSucceeded
	StateFallback
)

var retryStateNames = [...]string{"idle", "requesting", "backing_off", "succeeded", "fallback"}

// String returns the state name.
func (s RetryState) String() string {
	if int(s) < len(retryStateNames) {
		return retryStateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further event is accepted.
func (s RetryState) Terminal() bool { return s == StateSucceeded || s == StateFallback }

// RetryEvent drives the state machine.
type RetryEvent int

const (
	EventSend RetryEvent = iota
	EventRateLimited
	EventTimedOut
	EventSucceeded
	EventFailed
	EventAttemptsExhausted
)

var retryEventNames = [...]string{"send", "rate_limited", "timed_out", "succeeded", "failed", "attempts_exhausted"}

// String returns the event name.
func (e RetryEvent) String() string {
	if int(e) < len(retryEventNames) {
		return retryEventNames[e]
	}
	return fmt.Sprintf("event(%d)", int(e))
}

var retryTransitions = map[RetryState]map[RetryEvent]RetryState{
	StateIdle: {
		EventSend: StateRequesting,
	},
	StateRequesting: {
		EventSucceeded:         StateSucceeded,
		EventRateLimited:       StateBackingOff,
		EventTimedOut:          StateBackingOff,
		EventFailed:            StateFallback,
		EventAttemptsExhausted: StateFallback,
	},
	StateBackingOff: {
		EventSend:              StateRequesting,
		EventAttemptsExhausted: StateFallback,
	},
}

// InvalidTransitionError is returned for an event the current state does not
// accept.
type InvalidTransitionError struct {
	From  RetryState
	Event RetryEvent
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("retry: event %s not allowed in state %s", e.Event, e.From)
}

// RetryPolicy bounds attempts and shapes the backoff delays.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	Jitter      float64
}

// DefaultRetryPolicy is 3 attempts, 5 s initial, ×2, 60 s cap, 20% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Initial: 5 * time.Second, Max: 60 * time.Second, Multiplier: 2, Jitter: 0.2}
}

// Retry is the generation state machine of one asset. Not safe for
// concurrent use; each acquisition owns its own.
type Retry struct {
	state    RetryState
	attempts int
	max      int
	bo       *backoff.ExponentialBackOff
}

// NewRetry starts a machine in StateIdle.
func NewRetry(p RetryPolicy) *Retry {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.Initial <= 0 {
		p.Initial = d.Initial
	}
	if p.Max <= 0 {
		p.Max = d.Max
	}
	if p.Multiplier < 1 {
		p.Multiplier = d.Multiplier
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		p.Jitter = d.Jitter
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.Initial
	bo.MaxInterval = p.Max
	bo.Multiplier = p.Multiplier
	bo.RandomizationFactor = p.Jitter
	bo.Reset()
	return &Retry{max: p.MaxAttempts, bo: bo}
}

// State is the current state.
func (r *Retry) State() RetryState { return r.state }

// Attempts is the number of send events accepted so far.
func (r *Retry) Attempts() int { return r.attempts }

// CanRetry reports whether another send is allowed.
func (r *Retry) CanRetry() bool { return r.attempts < r.max }

// Fire applies an event. A send beyond the attempt budget is rejected.
func (r *Retry) Fire(ev RetryEvent) error {
	next, ok := retryTransitions[r.state][ev]
	if !ok {
		return &InvalidTransitionError{From: r.state, Event: ev}
	}
	if ev == EventSend {
		if !r.CanRetry() {
			return &InvalidTransitionError{From: r.state, Event: ev}
		}
		r.attempts++
	}
	r.state = next
	return nil
}

// NextDelay returns the next backoff delay, raised to retryAfter when the
// server asked for longer.
func (r *Retry) NextDelay(retryAfter time.Duration) time.Duration {
	d := r.bo.NextBackOff()
	if d == backoff.Stop || d < 0 {
		d = r.bo.MaxInterval
	}
	if retryAfter > d {
		d = retryAfter
	}
	return d
}

// classifyAttempt maps a generation error onto a machine event.
func classifyAttempt(err error) RetryEvent {
	var rl *RateLimitError
	switch {
	case err == nil:
		return EventSucceeded
	case errors.As(err, &rl):
		return EventRateLimited
	case errors.Is(err, context.Canceled):
		return EventFailed
	case errors.Is(err, context.DeadlineExceeded):
		return EventTimedOut
	}
	var hs httpx.HTTPStatusCoder
	if errors.As(err, &hs) && hs.HTTPStatusCode() == 429 {
		return EventRateLimited
	}
	if httpx.IsRetryableError(err) {
		return EventTimedOut
	}
	return EventFailed
}

func retryAfterOf(err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}
