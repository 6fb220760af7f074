package autodeck

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryHappyPath(t *testing.T) {
	r := NewRetry(DefaultRetryPolicy())
	if r.State() != StateIdle {
		t.Fatalf("initial state = %s", r.State())
	}
	for _, ev := range []RetryEvent{EventSend, EventSucceeded} {
		if err := r.Fire(ev); err != nil {
			t.Fatalf("Fire(%s): %v", ev, err)
		}
	}
	if r.State() != StateSucceeded || !r.State().Terminal() {
		t.Fatalf("state = %s, want succeeded", r.State())
	}
	if r.Attempts() != 1 {
		t.Fatalf("attempts = %d, want 1", r.Attempts())
	}
}

func TestRetryBackoffCycleUntilExhausted(t *testing.T) {
	r := NewRetry(RetryPolicy{MaxAttempts: 2})
	steps := []RetryEvent{EventSend, EventRateLimited, EventSend, EventTimedOut}
	for _, ev := range steps {
		if err := r.Fire(ev); err != nil {
			t.Fatalf("Fire(%s): %v", ev, err)
		}
	}
	if r.CanRetry() {
		t.Fatal("budget should be spent")
	}
	if err := r.Fire(EventSend); err == nil {
		t.Fatal("send beyond the attempt budget accepted")
	}
	if err := r.Fire(EventAttemptsExhausted); err != nil {
		t.Fatal(err)
	}
	if r.State() != StateFallback {
		t.Fatalf("state = %s, want fallback", r.State())
	}
}

func TestRetryRejectsInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup []RetryEvent
		bad   RetryEvent
	}{
		{"succeed before send", nil, EventSucceeded},
		{"rate limited while idle", nil, EventRateLimited},
		{"send while requesting", []RetryEvent{EventSend}, EventSend},
		{"succeed while backing off", []RetryEvent{EventSend, EventRateLimited}, EventSucceeded},
		{"anything after success", []RetryEvent{EventSend, EventSucceeded}, EventSend},
		{"anything after fallback", []RetryEvent{EventSend, EventFailed}, EventSend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetry(DefaultRetryPolicy())
			for _, ev := range tt.setup {
				if err := r.Fire(ev); err != nil {
					t.Fatalf("setup Fire(%s): %v", ev, err)
				}
			}
			before := r.State()
			err := r.Fire(tt.bad)
			var ite *InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("expected InvalidTransitionError, got %v", err)
			}
			if ite.From != before || ite.Event != tt.bad {
				t.Fatalf("unexpected error fields %+v", ite)
			}
			if r.State() != before {
				t.Fatalf("state changed on rejected event: %s -> %s", before, r.State())
			}
		})
	}
}

func TestRetryNextDelayHonoursRetryAfter(t *testing.T) {
	r := NewRetry(RetryPolicy{MaxAttempts: 3, Initial: time.Second, Max: 4 * time.Second, Multiplier: 2, Jitter: 0.2})
	d := r.NextDelay(0)
	if d < 800*time.Millisecond || d > 1200*time.Millisecond {
		t.Fatalf("first delay %v outside jitter window", d)
	}
	if d := r.NextDelay(30 * time.Second); d != 30*time.Second {
		t.Fatalf("Retry-After not honoured: %v", d)
	}
	for i := 0; i < 10; i++ {
		if d := r.NextDelay(0); d > 4*time.Second+800*time.Millisecond {
			t.Fatalf("delay %v exceeds max plus jitter", d)
		}
	}
}

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestClassifyAttempt(t *testing.T) {
	tests := []struct {
		err  error
		want RetryEvent
	}{
		{nil, EventSucceeded},
		{&RateLimitError{}, EventRateLimited},
		{fmt.Errorf("wrapped: %w", &RateLimitError{RetryAfter: time.Second}), EventRateLimited},
		{statusErr(429), EventRateLimited},
		{context.DeadlineExceeded, EventTimedOut},
		{&HTTPError{StatusCode: 503}, EventTimedOut},
		{&HTTPError{StatusCode: 408}, EventTimedOut},
		{&HTTPError{StatusCode: 400}, EventFailed},
		{context.Canceled, EventFailed},
		{&ImageValidationError{Width: 512, Height: 512}, EventFailed},
		{errors.New("boom"), EventFailed},
	}
	for _, tt := range tests {
		if got := classifyAttempt(tt.err); got != tt.want {
			t.Errorf("classifyAttempt(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestSettleSurfacesRejectedTransition(t *testing.T) {
	m := NewRetry(DefaultRetryPolicy())
	err := settle(m, EventSucceeded, nil)
	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("err = %v, want *InvalidTransitionError", err)
	}
	if ite.From != StateIdle || ite.Event != EventSucceeded {
		t.Errorf("rejected %s in %s", ite.Event, ite.From)
	}

	cause := errors.New("upstream 500")
	if err := m.Fire(EventSend); err != nil {
		t.Fatal(err)
	}
	if err := m.Fire(EventFailed); err != nil {
		t.Fatal(err)
	}
	err = settle(m, EventAttemptsExhausted, cause)
	if !errors.Is(err, cause) || !errors.As(err, &ite) {
		t.Fatalf("err = %v, want cause joined with the rejected transition", err)
	}
}

func TestSettleAcceptedTransitionKeepsCause(t *testing.T) {
	m := NewRetry(DefaultRetryPolicy())
	if err := m.Fire(EventSend); err != nil {
		t.Fatal(err)
	}
	if err := settle(m, EventSucceeded, nil); err != nil {
		t.Fatalf("settle = %v", err)
	}
	if m.State() != StateSucceeded {
		t.Fatalf("state = %s", m.State())
	}
}
