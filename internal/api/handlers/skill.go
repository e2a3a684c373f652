package handlers

import (
	"net/http"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SkillHandler struct {
	svc *service.MemoryService
}

func NewSkillHandler(svc *service.MemoryService) *SkillHandler {
	return &SkillHandler{svc: svc}
}

func (h *SkillHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "id")
	id, err := uuid.Parse(param)
	if err != nil {
		// Skill names are stable identifiers too.
		skill, nameErr := h.svc.GetSkillByName(r.Context(), param)
		if nameErr != nil {
			writeDomainError(w, nameErr)
			return
		}
		writeJSON(w, http.StatusOK, skill)
		return
	}

	skill, err := h.svc.GetSkill(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, skill)
}

type listSkillsResponse struct {
	Skills []domain.Skill `json:"skills"`
	Count  int            `json:"count"`
}

func (h *SkillHandler) List(w http.ResponseWriter, r *http.Request) {
	skills, err := h.svc.ListSkills(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listSkillsResponse{Skills: skills, Count: len(skills)})
}
