package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/abhinavmusrif/kinetic-os/internal/service"
	"github.com/google/uuid"
)

type MemoryHandler struct {
	svc *service.MemoryService
}

func NewMemoryHandler(svc *service.MemoryService) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

type queryMemoryRequest struct {
	Query  string    `json:"query"`
	Vector []float32 `json:"vector,omitempty"`
	GoalID string    `json:"goal_id,omitempty"`
	Types  []string  `json:"types,omitempty"`
	TopK   int       `json:"top_k,omitempty"`
}

type queryMemoryResponse struct {
	Results []service.QueryResult `json:"results"`
	Count   int                   `json:"count"`
}

func (h *MemoryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query := service.QueryRequest{
		Query:  req.Query,
		Vector: req.Vector,
		TopK:   req.TopK,
	}
	if req.GoalID != "" {
		goalID, err := uuid.Parse(req.GoalID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid goal_id")
			return
		}
		query.GoalID = &goalID
	}
	for _, t := range req.Types {
		query.Types = append(query.Types, service.ResultType(t))
	}

	results, err := h.svc.QueryMemory(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryMemoryResponse{Results: results, Count: len(results)})
}
