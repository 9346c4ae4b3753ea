package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"field-agent/internal/models"
	"field-agent/internal/services"
	"field-agent/pkg/utils"
)

type AttendanceHandler struct {
	Service *services.AttendanceService
}

func NewAttendanceHandler(s *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{Service: s}
}

func (h *AttendanceHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]

	var req models.AttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.Service.CreateRequest(r.Context(), kind, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, created)
}

func (h *AttendanceHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	status := r.URL.Query().Get("status")

	list, err := h.Service.ListRequests(r.Context(), kind, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"requests": list})
}
