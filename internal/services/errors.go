package services

import (
	"errors"
	"fmt"
	"net/http"

	"field-agent/internal/remote"
)

var (
	// ErrFetchInProgress is returned when a reference list fetch is already running
	ErrFetchInProgress = errors.New("fetch already in progress")
	// ErrNotFoundLocally: the remote fetch failed and there is nothing cached
	ErrNotFoundLocally = errors.New("not available remotely or on device")

	ErrCollectionNotFound = errors.New("collection not found")
)

// ValidationError is a pre-flight form error. Nothing has been sent when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UserMessage turns an error from this package or the remote client into
// text that can be shown to the field agent
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}

	switch {
	case errors.Is(err, ErrNoSession):
		return "Please sign in to continue."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid user id or password."
	case errors.Is(err, ErrFetchInProgress):
		return "Already loading, please wait."
	case errors.Is(err, ErrNotFoundLocally):
		return "Branches could not be loaded. Check your connection and retry."
	case errors.Is(err, ErrCollectionNotFound):
		return "This collection no longer exists on the device."
	}

	switch remote.KindOf(err) {
	case remote.KindAuthExpired:
		return "Your session has expired. Please sign in again."
	case remote.KindTimeout, remote.KindNetwork:
		return "Network error. Please check your connection and try again."
	case remote.KindMalformed:
		return "The server sent an invalid response. Please try again later."
	case remote.KindHTTP:
		switch status := remote.StatusOf(err); status {
		case http.StatusNotFound:
			return "The server endpoint was not found (404). Please contact support."
		case http.StatusUnauthorized, http.StatusForbidden:
			return "Authentication failed. Please sign in again."
		default:
			return fmt.Sprintf("Server error (%d). Please try again later.", status)
		}
	}
	return "Something went wrong. Please try again."
}
