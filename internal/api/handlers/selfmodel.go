package handlers

import (
	"net/http"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/service"
	"github.com/go-chi/chi/v5"
)

type SelfModelHandler struct {
	svc *service.MemoryService
}

func NewSelfModelHandler(svc *service.MemoryService) *SelfModelHandler {
	return &SelfModelHandler{svc: svc}
}

func (h *SelfModelHandler) GetByCapability(w http.ResponseWriter, r *http.Request) {
	capability := chi.URLParam(r, "capability")
	if capability == "" {
		writeError(w, http.StatusBadRequest, "capability is required")
		return
	}

	entry, err := h.svc.GetSelfModelEntry(r.Context(), capability)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

type listSelfModelResponse struct {
	Entries []domain.SelfModelEntry `json:"entries"`
	Count   int                     `json:"count"`
}

func (h *SelfModelHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListSelfModel(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listSelfModelResponse{Entries: entries, Count: len(entries)})
}
