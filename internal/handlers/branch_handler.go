package handlers

import (
	"net/http"

	"field-agent/internal/models"
	"field-agent/internal/services"
	"field-agent/pkg/utils"
)

type BranchHandler struct {
	Service    *services.BranchService
	References *services.ReferenceService
}

func NewBranchHandler(s *services.BranchService, refs *services.ReferenceService) *BranchHandler {
	return &BranchHandler{Service: s, References: refs}
}

type branchList struct {
	Branches []models.Branch `json:"branches"`
	Source   services.Source `json:"source"`
}

func (h *BranchHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, source, err := h.Service.ListBranches(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, branchList{Branches: branches, Source: source})
}

// RetryBranches is the manual retry behind the alert's Retry button
func (h *BranchHandler) RetryBranches(w http.ResponseWriter, r *http.Request) {
	branches, source, err := h.Service.Retry(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, branchList{Branches: branches, Source: source})
}

// Refresh reloads customers and branches together (pull-to-refresh)
func (h *BranchHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.References.RefreshAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}
