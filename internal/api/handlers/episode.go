package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/service"
	"github.com/go-chi/chi/v5"
)

type EpisodeHandler struct {
	svc *service.MemoryService
}

func NewEpisodeHandler(svc *service.MemoryService) *EpisodeHandler {
	return &EpisodeHandler{svc: svc}
}

type appendEpisodeRequest struct {
	Kind      string   `json:"kind"`
	Text      string   `json:"text,omitempty"`
	SkillName string   `json:"skill_name,omitempty"`
	Outcome   string   `json:"outcome,omitempty"`
	Verified  bool     `json:"verified,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Salience  float32  `json:"salience,omitempty"`
}

func (h *EpisodeHandler) Append(w http.ResponseWriter, r *http.Request) {
	var req appendEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload := domain.EpisodePayload{
		Text:      req.Text,
		SkillName: req.SkillName,
		Outcome:   domain.OutcomeType(req.Outcome),
		Verified:  req.Verified,
		Tags:      req.Tags,
	}

	episode, err := h.svc.AppendEpisode(r.Context(), domain.EpisodeKind(req.Kind), payload, req.Salience)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, episode)
}

func (h *EpisodeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid episode id")
		return
	}

	episode, err := h.svc.GetEpisode(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, episode)
}

type listEpisodesResponse struct {
	Episodes []domain.Episode `json:"episodes"`
	Count    int              `json:"count"`
}

func (h *EpisodeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	episodes, err := h.svc.ListEpisodes(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listEpisodesResponse{Episodes: episodes, Count: len(episodes)})
}
