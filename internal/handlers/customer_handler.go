package handlers

import (
	"encoding/json"
	"net/http"

	"field-agent/internal/models"
	"field-agent/internal/services"
	"field-agent/pkg/utils"
)

type CustomerHandler struct {
	Service *services.CustomerService
}

func NewCustomerHandler(s *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{Service: s}
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListCustomers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

func (h *CustomerHandler) AddManualCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateManualCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.Service.AddManualCustomer(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, customer)
}
