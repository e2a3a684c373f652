package handlers

import (
	"net/http"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type BeliefHandler struct {
	svc *service.MemoryService
}

func NewBeliefHandler(svc *service.MemoryService) *BeliefHandler {
	return &BeliefHandler{svc: svc}
}

func (h *BeliefHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	belief, err := h.svc.GetBelief(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, belief)
}

type listBeliefsResponse struct {
	Beliefs []domain.Belief `json:"beliefs"`
	Count   int             `json:"count"`
}

func (h *BeliefHandler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	beliefs, err := h.svc.ListBeliefs(r.Context(), includeArchived)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listBeliefsResponse{Beliefs: beliefs, Count: len(beliefs)})
}
