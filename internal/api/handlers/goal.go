package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type GoalHandler struct {
	svc *service.MemoryService
}

func NewGoalHandler(svc *service.MemoryService) *GoalHandler {
	return &GoalHandler{svc: svc}
}

type createGoalRequest struct {
	Description string `json:"description"`
	Priority    int    `json:"priority,omitempty"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	goal, err := h.svc.CreateGoal(r.Context(), req.Description, req.Priority)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	goal, err := h.svc.GetGoal(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

type listGoalsResponse struct {
	Goals []domain.Goal `json:"goals"`
	Count int           `json:"count"`
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.ListGoals(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listGoalsResponse{Goals: goals, Count: len(goals)})
}

type updateGoalRequest struct {
	Progress float32 `json:"progress"`
	Status   string  `json:"status,omitempty"`
}

func (h *GoalHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	var req updateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	goal, err := h.svc.UpdateGoalProgress(r.Context(), id, req.Progress, domain.GoalStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}
