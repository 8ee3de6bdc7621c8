package solana

import (
	"errors"
	"fmt"
)

// TransientError is a failure worth retrying: HTTP 429, 5xx, a network error
// or an unreadable body.
type TransientError struct {
	StatusCode int // 0 for network errors
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient oracle error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient oracle error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RateLimited reports whether the oracle answered 429.
func (e *TransientError) RateLimited() bool { return e.StatusCode == 429 }

// PermanentError is a well-formed error answer from the oracle. It is never
// retried.
type PermanentError struct {
	Op         string
	StatusCode int // HTTP status for REST errors, 0 for JSON-RPC errors
	Code       int // JSON-RPC error code
	Message    string
}

func (e *PermanentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: oracle rejected request (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: RPC error %d: %s", e.Op, e.Code, e.Message)
}

// IsTransient reports whether err is or wraps a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is or wraps a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
