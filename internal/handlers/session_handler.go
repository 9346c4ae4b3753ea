package handlers

import (
	"encoding/json"
	"net/http"

	"field-agent/internal/models"
	"field-agent/internal/services"
	"field-agent/pkg/utils"
)

type SessionHandler struct {
	Service *services.SessionService
}

func NewSessionHandler(s *services.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.Current()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Service.Logout()
	w.WriteHeader(http.StatusNoContent)
}
