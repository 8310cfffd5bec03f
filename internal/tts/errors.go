package tts

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotInitialized     = errors.New("engine not initialized")
	ErrAlreadyInitialized = errors.New("engine already initialized")
	ErrEmptyText          = errors.New("text is empty")

	// ErrAuth means the API key was rejected
	ErrAuth = errors.New("authentication failed")
	// ErrQuotaExceeded means the account has no characters left
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrRateLimited means the backend asked us to slow down
	ErrRateLimited = errors.New("rate limited")
	// ErrNetwork covers transport failures before a response arrived
	ErrNetwork = errors.New("network error")
	// ErrBackend covers any other non-success response
	ErrBackend = errors.New("backend error")
)

// BackendError carries the provider's response details. Kind is one of the
// sentinel errors above and is what errors.Is matches against
type BackendError struct {
	Provider string
	Status   int
	Detail   string
	Kind     error
}

func (e *BackendError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v: %s", e.Provider, e.Kind, e.Detail)
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v (status %d)", e.Provider, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %v (status %d): %s", e.Provider, e.Kind, e.Status, e.Detail)
}

func (e *BackendError) Unwrap() error {
	return e.Kind
}

// IsRetryable reports whether a synthesis error is worth another attempt
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrRateLimited) {
		return true
	}
	var be *BackendError
	return errors.As(err, &be) && be.Status >= 500
}

func classifyStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrAuth
	case status == 402:
		return ErrQuotaExceeded
	case status == 429:
		return ErrRateLimited
	default:
		return ErrBackend
	}
}
