package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type HypothesisHandler struct {
	svc *service.MemoryService
}

func NewHypothesisHandler(svc *service.MemoryService) *HypothesisHandler {
	return &HypothesisHandler{svc: svc}
}

type registerHypothesisRequest struct {
	Claim            string  `json:"claim"`
	VerificationPlan string  `json:"verification_plan,omitempty"`
	Confidence       float32 `json:"confidence,omitempty"`
	EvidenceIDs      []int64 `json:"evidence_ids,omitempty"`
}

func (h *HypothesisHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerHypothesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hypothesis, err := h.svc.RegisterHypothesis(r.Context(), req.Claim, req.VerificationPlan, req.Confidence, req.EvidenceIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, hypothesis)
}

func (h *HypothesisHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hypothesis id")
		return
	}

	hypothesis, err := h.svc.GetHypothesis(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, hypothesis)
}

type listHypothesesResponse struct {
	Hypotheses []domain.Hypothesis `json:"hypotheses"`
	Count      int                 `json:"count"`
}

func (h *HypothesisHandler) List(w http.ResponseWriter, r *http.Request) {
	hypotheses, err := h.svc.ListHypotheses(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listHypothesesResponse{Hypotheses: hypotheses, Count: len(hypotheses)})
}

type resolveHypothesisRequest struct {
	Status string `json:"status"`
}

func (h *HypothesisHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hypothesis id")
		return
	}

	var req resolveHypothesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hypothesis, err := h.svc.ResolveHypothesis(r.Context(), id, domain.HypothesisStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, hypothesis)
}
