package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a remote failure so callers never have to inspect error text
type Kind int

const (
	KindUnknown Kind = iota
	// KindTimeout: the request exceeded the client timeout
	KindTimeout
	// KindAuthExpired: the backend answered with its HTML login page
	KindAuthExpired
	// KindHTTP: non-2xx status with a non-HTML body
	KindHTTP
	// KindMalformed: 2xx status but the body is not JSON
	KindMalformed
	// KindNetwork: connection refused, DNS failure, reset...
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindAuthExpired:
		return "auth_expired"
	case KindHTTP:
		return "http_error"
	case KindMalformed:
		return "malformed_response"
	case KindNetwork:
		return "network"
	}
	return "unknown"
}

// Error is every failure produced by Client
type Error struct {
	Kind   Kind
	Op     string
	Status int
	// Body holds the response body for KindHTTP and its first bytes for KindMalformed
	Body string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Body)
	case KindMalformed:
		return fmt.Sprintf("%s: invalid JSON response: %q", e.Op, e.Body)
	case KindAuthExpired:
		return fmt.Sprintf("%s: session expired (login page returned)", e.Op)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a remote error anywhere in err's chain
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// IsRetryable reports whether repeating the same request may succeed:
// timeouts, network failures and 5xx answers.
func IsRetryable(err error) bool {
	var re *Error
	if !errors.As(err, &re) {
		return false
	}
	switch re.Kind {
	case KindTimeout, KindNetwork:
		return true
	case KindHTTP:
		return re.Status >= http.StatusInternalServerError
	}
	return false
}
