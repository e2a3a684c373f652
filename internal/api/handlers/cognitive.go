package handlers

import (
	"errors"
	"net/http"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/abhinavmusrif/kinetic-os/internal/service"
)

type CognitiveHandler struct {
	consolidator *service.Consolidator
}

func NewCognitiveHandler(consolidator *service.Consolidator) *CognitiveHandler {
	return &CognitiveHandler{consolidator: consolidator}
}

// TriggerConsolidation runs one synchronous dream cycle. A trigger while a
// run is already in flight is accepted as a no-op: pending episodes will be
// picked up by the active run's successor, so the caller gets 202 rather
// than an error.
func (h *CognitiveHandler) TriggerConsolidation(w http.ResponseWriter, r *http.Request) {
	report, err := h.consolidator.Consolidate(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrConsolidationActive) {
			writeJSON(w, http.StatusAccepted, map[string]string{
				"status": "already running",
			})
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *CognitiveHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"state": string(h.consolidator.State()),
	})
}
