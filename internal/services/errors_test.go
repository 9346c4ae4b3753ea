package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"field-agent/internal/remote"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", &ValidationError{Field: "amount", Message: "Amount is required"}, "Amount is required"},
		{"wrapped validation", fmt.Errorf("create: %w", &ValidationError{Field: "x", Message: "bad"}), "bad"},
		{"no session", ErrNoSession, "Please sign in to continue."},
		{"html login page", &remote.Error{Kind: remote.KindAuthExpired, Op: "collections"}, "Your session has expired. Please sign in again."},
		{"timeout", &remote.Error{Kind: remote.KindTimeout, Op: "collections_add"}, "Network error. Please check your connection and try again."},
		{"network", &remote.Error{Kind: remote.KindNetwork, Op: "clients"}, "Network error. Please check your connection and try again."},
		{"not found", &remote.Error{Kind: remote.KindHTTP, Status: 404}, "The server endpoint was not found (404). Please contact support."},
		{"forbidden", &remote.Error{Kind: remote.KindHTTP, Status: 403}, "Authentication failed. Please sign in again."},
		{"server error", &remote.Error{Kind: remote.KindHTTP, Status: 502}, "Server error (502). Please try again later."},
		{"malformed", &remote.Error{Kind: remote.KindMalformed}, "The server sent an invalid response. Please try again later."},
		// message text never drives the mapping
		{"unclassified text mentioning 404", errors.New("got 404 network timeout Invalid JSON"), "Something went wrong. Please try again."},
		{"context", context.Canceled, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
