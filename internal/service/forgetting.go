package service

import (
	"math"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
)

// ForgettingPolicy decays episode salience exponentially with age and
// nominates faded, uncited episodes for pruning. Pruning removes the
// payload text only; the store keeps the content hash and timestamps, so a
// pruned episode remains auditable.
type ForgettingPolicy struct {
	decayRatePerDay float64
	pruneFloor      float32
}

// ForgettingStats counts one sweep.
type ForgettingStats struct {
	EpisodesDecayed int
	EpisodesPruned  int
}

func NewForgettingPolicy(decayRatePerDay float64, pruneFloor float32) *ForgettingPolicy {
	return &ForgettingPolicy{decayRatePerDay: decayRatePerDay, pruneFloor: pruneFloor}
}

// Sweep computes the salience updates and prune set for one run. Episodes
// cited by a live belief or any skill are exempt from both decay and
// pruning. Decay compounds over the elapsed time since the episode was
// last touched, so sweep frequency does not change the decay curve.
func (p *ForgettingPolicy) Sweep(episodes []domain.Episode, cited map[int64]bool, now time.Time) (map[int64]float32, []int64, ForgettingStats) {
	var stats ForgettingStats
	salience := make(map[int64]float32)
	var prune []int64

	for i := range episodes {
		e := &episodes[i]
		if e.Pruned || cited[e.ID] {
			continue
		}

		elapsed := now.Sub(e.UpdatedAt)
		if elapsed <= 0 {
			continue
		}
		days := elapsed.Hours() / 24
		decayed := e.Salience * float32(math.Exp(-p.decayRatePerDay*days))

		if decayed < e.Salience {
			salience[e.ID] = decayed
			stats.EpisodesDecayed++
		}
		if decayed < p.pruneFloor {
			prune = append(prune, e.ID)
			stats.EpisodesPruned++
		}
	}
	return salience, prune, stats
}
