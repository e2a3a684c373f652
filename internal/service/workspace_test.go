package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
)

func TestCitedEpisodesShieldedByArchivedBeliefs(t *testing.T) {
	active := testBelief("dark mode", domain.PolarityPositive, 0.7, domain.BeliefConfirmed)
	active.EvidenceIDs = []int64{1}
	archived := testBelief("vim keybindings", domain.PolarityPositive, 0.7, domain.BeliefArchived)
	archived.EvidenceIDs = []int64{2}
	retracted := testBelief("light mode", domain.PolarityNegative, 0.1, domain.BeliefRetracted)
	retracted.EvidenceIDs = []int64{3}

	ws := newWorkspace(time.Now().UTC(),
		[]domain.Belief{active, archived, retracted}, nil, nil)

	cited := ws.citedEpisodes()
	assert.True(t, cited[1], "confirmed belief evidence must be cited")
	assert.True(t, cited[2], "archived belief evidence must stay cited")
	assert.False(t, cited[3], "retraction releases evidence")
}

func TestCitedEpisodesIncludeSkillEvidence(t *testing.T) {
	skill := domain.Skill{Name: "deploy_staging", EvidenceIDs: []int64{7, 8}}
	ws := newWorkspace(time.Now().UTC(), nil, []domain.Skill{skill}, nil)

	cited := ws.citedEpisodes()
	assert.True(t, cited[7])
	assert.True(t, cited[8])
}
