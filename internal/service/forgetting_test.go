package service

import (
	"testing"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testEpisode(id int64, salience float32, age time.Duration, now time.Time) domain.Episode {
	return domain.Episode{
		ID:        id,
		Kind:      domain.EpisodeObservation,
		Payload:   domain.EpisodePayload{Text: "something happened"},
		Salience:  salience,
		CreatedAt: now.Add(-age),
		UpdatedAt: now.Add(-age),
	}
}

func TestSweepDecaysOldEpisodes(t *testing.T) {
	now := time.Now().UTC()
	p := NewForgettingPolicy(0.05, 0.05)

	episodes := []domain.Episode{testEpisode(1, 1.0, 10*24*time.Hour, now)}
	salience, prune, stats := p.Sweep(episodes, nil, now)

	assert.Equal(t, 1, stats.EpisodesDecayed)
	assert.Empty(t, prune)
	// exp(-0.05 * 10) ~ 0.6065
	assert.InDelta(t, 0.6065, float64(salience[1]), 0.001)
}

func TestSweepPrunesFadedUncitedEpisodes(t *testing.T) {
	now := time.Now().UTC()
	p := NewForgettingPolicy(0.05, 0.05)

	// exp(-0.05 * 90) ~ 0.011, well under the floor.
	episodes := []domain.Episode{testEpisode(7, 1.0, 90*24*time.Hour, now)}
	_, prune, stats := p.Sweep(episodes, nil, now)

	assert.Equal(t, 1, stats.EpisodesPruned)
	assert.Equal(t, []int64{7}, prune)
}

func TestSweepNeverTouchesCitedEpisodes(t *testing.T) {
	now := time.Now().UTC()
	p := NewForgettingPolicy(0.05, 0.05)

	episodes := []domain.Episode{testEpisode(3, 1.0, 365*24*time.Hour, now)}
	salience, prune, stats := p.Sweep(episodes, map[int64]bool{3: true}, now)

	assert.Empty(t, salience)
	assert.Empty(t, prune)
	assert.Equal(t, 0, stats.EpisodesDecayed)
	assert.Equal(t, 0, stats.EpisodesPruned)
}

func TestSweepSkipsAlreadyPrunedEpisodes(t *testing.T) {
	now := time.Now().UTC()
	p := NewForgettingPolicy(0.05, 0.05)

	e := testEpisode(4, 0.01, 365*24*time.Hour, now)
	e.Pruned = true
	_, prune, _ := p.Sweep([]domain.Episode{e}, nil, now)

	assert.Empty(t, prune)
}

func TestSweepLeavesFreshEpisodesAlone(t *testing.T) {
	now := time.Now().UTC()
	p := NewForgettingPolicy(0.05, 0.05)

	episodes := []domain.Episode{testEpisode(5, 1.0, 0, now)}
	salience, prune, _ := p.Sweep(episodes, nil, now)

	assert.Empty(t, salience)
	assert.Empty(t, prune)
}
