package fetch

import (
	"errors"
	"fmt"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// Failure kinds. A *FetchError wraps exactly one of them.
var (
	ErrTransientNetwork = errors.New("transient network error")
	ErrRateLimited      = errors.New("rate limited")
	ErrPermanentFetch   = errors.New("permanent fetch failure")
	ErrEmptyExtraction  = errors.New("empty extraction")
)

// ErrMalformedDate is logged but never fails a fetch.
var ErrMalformedDate = store.ErrMalformedDate

// FetchError describes why a URL was given up on.
type FetchError struct {
	URL      string
	Kind     error
	Attempts int
	Status   int // last HTTP status, 0 if none
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %v after %d attempt(s)", e.URL, e.Kind, e.Attempts)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransientNetwork) || errors.Is(err, ErrRateLimited)
}
