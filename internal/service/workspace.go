package service

import (
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
)

// workspace is the in-memory working set of one consolidation run. The
// miner and resolver mutate it freely; only entries marked dirty make it
// into the committed batch.
type workspace struct {
	now time.Time

	beliefs   map[uuid.UUID]*domain.Belief
	bySubject map[string][]uuid.UUID
	skills    map[string]*domain.Skill
	selfModel map[string]*domain.SelfModelEntry

	dirtyBeliefs map[uuid.UUID]bool
	dirtySkills  map[string]bool
	dirtySelf    map[string]bool

	// reinforced marks beliefs that gained corroboration this run, which
	// exempts them from the stale decay pass.
	reinforced map[uuid.UUID]bool
}

func newWorkspace(now time.Time, beliefs []domain.Belief, skills []domain.Skill, selfModel []domain.SelfModelEntry) *workspace {
	ws := &workspace{
		now:          now,
		beliefs:      make(map[uuid.UUID]*domain.Belief, len(beliefs)),
		bySubject:    make(map[string][]uuid.UUID),
		skills:       make(map[string]*domain.Skill, len(skills)),
		selfModel:    make(map[string]*domain.SelfModelEntry, len(selfModel)),
		dirtyBeliefs: make(map[uuid.UUID]bool),
		dirtySkills:  make(map[string]bool),
		dirtySelf:    make(map[string]bool),
		reinforced:   make(map[uuid.UUID]bool),
	}
	for i := range beliefs {
		b := beliefs[i]
		ws.beliefs[b.ID] = &b
		ws.bySubject[b.Subject] = append(ws.bySubject[b.Subject], b.ID)
	}
	for i := range skills {
		s := skills[i]
		ws.skills[s.Name] = &s
	}
	for i := range selfModel {
		e := selfModel[i]
		ws.selfModel[e.Capability] = &e
	}
	return ws
}

func (ws *workspace) addBelief(b *domain.Belief) {
	ws.beliefs[b.ID] = b
	ws.bySubject[b.Subject] = append(ws.bySubject[b.Subject], b.ID)
	ws.dirtyBeliefs[b.ID] = true
}

func (ws *workspace) touchBelief(id uuid.UUID) {
	if b, ok := ws.beliefs[id]; ok {
		b.UpdatedAt = ws.now
		ws.dirtyBeliefs[id] = true
	}
}

func (ws *workspace) beliefsOnSubject(subject string) []*domain.Belief {
	ids := ws.bySubject[subject]
	out := make([]*domain.Belief, 0, len(ids))
	for _, id := range ids {
		out = append(out, ws.beliefs[id])
	}
	return out
}

func (ws *workspace) addSkill(s *domain.Skill) {
	ws.skills[s.Name] = s
	ws.dirtySkills[s.Name] = true
}

func (ws *workspace) touchSkill(name string) {
	if s, ok := ws.skills[name]; ok {
		s.UpdatedAt = ws.now
		ws.dirtySkills[name] = true
	}
}

func (ws *workspace) putSelfModel(e *domain.SelfModelEntry) {
	e.UpdatedAt = ws.now
	ws.selfModel[e.Capability] = e
	ws.dirtySelf[e.Capability] = true
}

// citedEpisodes collects every episode id cited by a non-retracted belief
// or by any skill. Citation shields an episode from decay and pruning;
// archived beliefs still shield, only retraction releases evidence.
func (ws *workspace) citedEpisodes() map[int64]bool {
	cited := make(map[int64]bool)
	for _, b := range ws.beliefs {
		if b.Status == domain.BeliefRetracted {
			continue
		}
		for _, id := range b.EvidenceIDs {
			cited[id] = true
		}
	}
	for _, s := range ws.skills {
		for _, id := range s.EvidenceIDs {
			cited[id] = true
		}
	}
	return cited
}

func (ws *workspace) dirtyBeliefList() []domain.Belief {
	out := make([]domain.Belief, 0, len(ws.dirtyBeliefs))
	for id := range ws.dirtyBeliefs {
		out = append(out, *ws.beliefs[id])
	}
	return out
}

func (ws *workspace) dirtySkillList() []domain.Skill {
	out := make([]domain.Skill, 0, len(ws.dirtySkills))
	for name := range ws.dirtySkills {
		out = append(out, *ws.skills[name])
	}
	return out
}

func (ws *workspace) dirtySelfModelList() []domain.SelfModelEntry {
	out := make([]domain.SelfModelEntry, 0, len(ws.dirtySelf))
	for capability := range ws.dirtySelf {
		out = append(out, *ws.selfModel[capability])
	}
	return out
}
