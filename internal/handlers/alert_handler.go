package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"field-agent/internal/alerts"
	"field-agent/pkg/utils"
)

type AlertHandler struct {
	Hub *alerts.Hub
}

func NewAlertHandler(hub *alerts.Hub) *AlertHandler {
	return &AlertHandler{Hub: hub}
}

func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]interface{}{"alerts": h.Hub.Active()})
}

// ResolveAlert is the HTTP twin of the websocket action message
func (h *AlertHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid alert id")
		return
	}

	err = h.Hub.Resolve(r.Context(), id, vars["action"])
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, alerts.ErrUnknownAlert):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, alerts.ErrAlreadyClosed):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, alerts.ErrBadAction):
		utils.Error(w, http.StatusBadRequest, err.Error())
	default:
		// the action ran and failed, e.g. the retried fetch was exhausted again
		writeServiceError(w, err)
	}
}

func (h *AlertHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.Hub.ServeWS(w, r)
}
