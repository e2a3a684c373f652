package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryService is the control-plane surface over the store: validated
// appends, entity accessors, hypothesis registration and resolution, and
// goal management. Bulk mutation of beliefs, skills, self-model entries,
// and episode salience stays with the consolidator.
type MemoryService struct {
	store           *domain.Store
	retriever       *Retriever
	logger          *zap.Logger
	defaultSalience float32
}

func NewMemoryService(store *domain.Store, retriever *Retriever, logger *zap.Logger, defaultSalience float32) *MemoryService {
	return &MemoryService{
		store:           store,
		retriever:       retriever,
		logger:          logger,
		defaultSalience: defaultSalience,
	}
}

// AppendEpisode validates and appends one episode. The payload is
// immutable afterwards: only salience decay and eventual pruning touch the
// row again, both through the consolidation batch.
func (s *MemoryService) AppendEpisode(ctx context.Context, kind domain.EpisodeKind, payload domain.EpisodePayload, salience float32) (*domain.Episode, error) {
	if !domain.ValidEpisodeKind(string(kind)) {
		return nil, fmt.Errorf("%w: unknown episode kind %q", domain.ErrValidation, kind)
	}
	if strings.TrimSpace(payload.Text) == "" && payload.SkillName == "" {
		return nil, fmt.Errorf("%w: episode payload needs text or a skill reference", domain.ErrValidation)
	}
	if payload.Outcome != "" && !domain.ValidOutcomeType(string(payload.Outcome)) {
		return nil, fmt.Errorf("%w: unknown outcome %q", domain.ErrValidation, payload.Outcome)
	}
	if payload.Outcome == "" && payload.SkillName != "" {
		payload.Outcome = domain.OutcomeUnknown
	}
	if salience <= 0 {
		salience = s.defaultSalience
	}

	e := &domain.Episode{
		Kind:     kind,
		Payload:  payload,
		Salience: salience,
	}
	if err := s.store.Episodes.Append(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Debug("episode appended",
		zap.Int64("id", e.ID),
		zap.String("kind", string(kind)))
	return e, nil
}

func (s *MemoryService) GetEpisode(ctx context.Context, id int64) (*domain.Episode, error) {
	return s.store.Episodes.GetByID(ctx, id)
}

func (s *MemoryService) ListEpisodes(ctx context.Context, limit int) ([]domain.Episode, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.Episodes.ListRecent(ctx, limit)
}

// QueryMemory is hybrid retrieval over beliefs, skills, episodes, and
// hypotheses.
func (s *MemoryService) QueryMemory(ctx context.Context, req QueryRequest) ([]QueryResult, error) {
	return s.retriever.Query(ctx, req)
}

func (s *MemoryService) GetBelief(ctx context.Context, id uuid.UUID) (*domain.Belief, error) {
	return s.store.Beliefs.GetByID(ctx, id)
}

func (s *MemoryService) ListBeliefs(ctx context.Context, includeArchived bool) ([]domain.Belief, error) {
	return s.store.Beliefs.List(ctx, includeArchived)
}

func (s *MemoryService) GetSkill(ctx context.Context, id uuid.UUID) (*domain.Skill, error) {
	return s.store.Skills.GetByID(ctx, id)
}

func (s *MemoryService) GetSkillByName(ctx context.Context, name string) (*domain.Skill, error) {
	return s.store.Skills.GetByName(ctx, name)
}

func (s *MemoryService) ListSkills(ctx context.Context) ([]domain.Skill, error) {
	return s.store.Skills.List(ctx)
}

func (s *MemoryService) GetSelfModelEntry(ctx context.Context, capability string) (*domain.SelfModelEntry, error) {
	return s.store.SelfModel.GetByCapability(ctx, capability)
}

func (s *MemoryService) ListSelfModel(ctx context.Context) ([]domain.SelfModelEntry, error) {
	return s.store.SelfModel.List(ctx)
}

// CreateGoal registers a new active goal. Priority defaults to 5 when
// unset; progress starts at 0.
func (s *MemoryService) CreateGoal(ctx context.Context, description string, priority int) (*domain.Goal, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: goal description must not be empty", domain.ErrValidation)
	}
	if priority <= 0 {
		priority = 5
	}
	g := &domain.Goal{
		ID:          uuid.New(),
		Description: description,
		Status:      domain.GoalActive,
		Priority:    priority,
	}
	if err := s.store.Goals.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *MemoryService) GetGoal(ctx context.Context, id uuid.UUID) (*domain.Goal, error) {
	return s.store.Goals.GetByID(ctx, id)
}

func (s *MemoryService) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	return s.store.Goals.List(ctx)
}

// UpdateGoalProgress moves a goal's progress and optionally its status.
// Completed and abandoned goals are final: any further update fails
// validation.
func (s *MemoryService) UpdateGoalProgress(ctx context.Context, id uuid.UUID, progress float32, status domain.GoalStatus) (*domain.Goal, error) {
	g, err := s.store.Goals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status.Terminal() {
		return nil, fmt.Errorf("%w: goal %s is %s", domain.ErrValidation, id, g.Status)
	}
	if progress < 0 || progress > 1 {
		return nil, fmt.Errorf("%w: progress must be in [0, 1]", domain.ErrValidation)
	}
	if status != "" {
		if !domain.ValidGoalStatus(string(status)) {
			return nil, fmt.Errorf("%w: unknown goal status %q", domain.ErrValidation, status)
		}
		g.Status = status
	}
	g.Progress = progress
	if err := s.store.Goals.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// RegisterHypothesis records an open question. Confidence defaults to 0.5.
func (s *MemoryService) RegisterHypothesis(ctx context.Context, claim, verificationPlan string, confidence float32, evidenceIDs []int64) (*domain.Hypothesis, error) {
	if strings.TrimSpace(claim) == "" {
		return nil, fmt.Errorf("%w: hypothesis claim must not be empty", domain.ErrValidation)
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("%w: confidence must be in [0, 1]", domain.ErrValidation)
	}
	if confidence == 0 {
		confidence = 0.5
	}
	for _, id := range evidenceIDs {
		if _, err := s.store.Episodes.GetByID(ctx, id); err != nil {
			return nil, fmt.Errorf("%w: evidence episode %d: %v", domain.ErrValidation, id, err)
		}
	}
	h := &domain.Hypothesis{
		ID:               uuid.New(),
		Claim:            claim,
		VerificationPlan: verificationPlan,
		Confidence:       confidence,
		Status:           domain.HypothesisOpen,
		EvidenceIDs:      evidenceIDs,
	}
	if err := s.store.Hypotheses.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *MemoryService) GetHypothesis(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	return s.store.Hypotheses.GetByID(ctx, id)
}

func (s *MemoryService) ListHypotheses(ctx context.Context) ([]domain.Hypothesis, error) {
	return s.store.Hypotheses.List(ctx)
}

// ResolveHypothesis marks an open hypothesis verified or rejected. A
// verified hypothesis is promoted into a proposed belief by the next
// consolidation run; a rejected one is kept for traceability, never
// deleted. Resolution is final.
func (s *MemoryService) ResolveHypothesis(ctx context.Context, id uuid.UUID, status domain.HypothesisStatus) (*domain.Hypothesis, error) {
	if status != domain.HypothesisVerified && status != domain.HypothesisRejected {
		return nil, fmt.Errorf("%w: resolution must be verified or rejected, got %q", domain.ErrValidation, status)
	}
	h, err := s.store.Hypotheses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.Status != domain.HypothesisOpen {
		return nil, fmt.Errorf("%w: hypothesis %s already %s", domain.ErrValidation, id, h.Status)
	}
	if err := s.store.Hypotheses.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	h.Status = status
	return h, nil
}
