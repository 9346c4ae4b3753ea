package handlers

import (
	"errors"
	"net/http"

	"field-agent/internal/remote"
	"field-agent/internal/services"
	"field-agent/pkg/utils"
)

// errorResponse is the body of every failed API call
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// writeServiceError maps a service error to a status code and a message the
// UI can show as-is
func writeServiceError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: services.UserMessage(err)}
	status := http.StatusInternalServerError

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Field = verr.Field
	case errors.Is(err, services.ErrNoSession), errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrFetchInProgress):
		status = http.StatusConflict
	case errors.Is(err, services.ErrCollectionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNotFoundLocally):
		status = http.StatusServiceUnavailable
	default:
		if kind := remote.KindOf(err); kind != remote.KindUnknown {
			resp.Kind = kind.String()
			status = http.StatusBadGateway
			if kind == remote.KindAuthExpired {
				status = http.StatusUnauthorized
			}
		}
	}

	utils.JSON(w, status, resp)
}
