package autodeck

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoSlides is returned when a deck has an empty slide list.
var ErrNoSlides = errors.New("deck has no slides")

// DeckError reports malformed deck input.
type DeckError struct {
	Source string
	Err    error
}

func (e *DeckError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid deck: %v", e.Err)
	}
	return fmt.Sprintf("invalid deck %s: %v", e.Source, e.Err)
}

func (e *DeckError) Unwrap() error { return e.Err }

// UnknownThemeError is returned for a theme identifier that is neither
// built in nor configured.
type UnknownThemeError struct {
	Name  string
	Known []string
}

func (e *UnknownThemeError) Error() string {
	return fmt.Sprintf("unknown theme %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// UnsupportedSlideTypeError rejects a slide whose type has no layout.
// Index is 0-based; the message leaves the slide number to the caller.
type UnsupportedSlideTypeError struct {
	Index int
	Type  SlideType
}

func (e *UnsupportedSlideTypeError) Error() string {
	return fmt.Sprintf("unsupported slide type %q", string(e.Type))
}

// EmptyDeckError is returned when every slide was skipped.
type EmptyDeckError struct {
	Skipped []SkippedSlide
}

func (e *EmptyDeckError) Error() string {
	return fmt.Sprintf("no slide could be assembled (%d skipped)", len(e.Skipped))
}

// RateLimitError is returned by a generator when the provider throttles.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

func (e *RateLimitError) HTTPStatusCode() int { return 429 }

// HTTPError is a non-2xx provider response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

// ImageValidationError rejects a generated image that does not decode or has
// the wrong dimensions.
type ImageValidationError struct {
	Width, Height int
	Err           error
}

func (e *ImageValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generated image rejected: %v", e.Err)
	}
	return fmt.Sprintf("generated image rejected: got %dx%d", e.Width, e.Height)
}

func (e *ImageValidationError) Unwrap() error { return e.Err }
