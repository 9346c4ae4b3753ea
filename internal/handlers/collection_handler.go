package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"field-agent/internal/models"
	"field-agent/internal/services"
	"field-agent/pkg/utils"
)

type CollectionHandler struct {
	Collections *services.CollectionService
	Submissions *services.SubmissionService
	Reports     *services.ReportService
}

func NewCollectionHandler(collections *services.CollectionService, submissions *services.SubmissionService, reports *services.ReportService) *CollectionHandler {
	return &CollectionHandler{Collections: collections, Submissions: submissions, Reports: reports}
}

func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	list, err := h.Collections.ListCollections(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.Submissions.CreateCollection(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, entry)
}

func (h *CollectionHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.UpdateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.Submissions.UpdateCollection(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, entry)
}

func (h *CollectionHandler) Statement(w http.ResponseWriter, r *http.Request) {
	pdf, err := h.Reports.GenerateStatementPDF(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="collection-statement.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
