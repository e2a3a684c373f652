package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RetrievalWeights are the hybrid scoring weights. They should sum to 1.0;
// the vector weight is redistributed over the rest whenever either side of
// the similarity term is missing.
type RetrievalWeights struct {
	Lexical    float32
	Vector     float32
	Recency    float32
	Confidence float32
	Goal       float32
}

// ResultType names the entity relation a retrieval result came from.
type ResultType string

const (
	ResultBelief     ResultType = "belief"
	ResultSkill      ResultType = "skill"
	ResultEpisode    ResultType = "episode"
	ResultHypothesis ResultType = "hypothesis"
)

// QueryRequest is one retrieval call. Vector is optional; when absent and an
// embedding client is configured the query text is embedded on the fly.
// Types filters the searched relations; empty means all four.
type QueryRequest struct {
	Query  string       `json:"query"`
	Vector []float32    `json:"vector,omitempty"`
	GoalID *uuid.UUID   `json:"goal_id,omitempty"`
	Types  []ResultType `json:"types,omitempty"`
	TopK   int          `json:"top_k"`
}

// QueryResult is one scored candidate. Exactly one of the entity pointers
// is set, matching Type.
type QueryResult struct {
	Type       ResultType         `json:"type"`
	Score      float32            `json:"score"`
	Belief     *domain.Belief     `json:"belief,omitempty"`
	Skill      *domain.Skill      `json:"skill,omitempty"`
	Episode    *domain.Episode    `json:"episode,omitempty"`
	Hypothesis *domain.Hypothesis `json:"hypothesis,omitempty"`

	updatedAt time.Time
	sortKey   string
}

const defaultTopK = 10

// Retriever scores memory entities against a query with a weighted blend of
// lexical overlap, vector similarity, recency, stored confidence, and
// active-goal relevance. Read-only; safe for concurrent use.
type Retriever struct {
	store         *domain.Store
	embed         domain.EmbeddingClient
	logger        *zap.Logger
	weights       RetrievalWeights
	recencyWindow time.Duration
	episodeScan   int
}

func NewRetriever(store *domain.Store, embed domain.EmbeddingClient, logger *zap.Logger, weights RetrievalWeights, recencyWindow time.Duration) *Retriever {
	return &Retriever{
		store:         store,
		embed:         embed,
		logger:        logger,
		weights:       weights,
		recencyWindow: recencyWindow,
		episodeScan:   500,
	}
}

// Query runs one retrieval pass and returns the topK results, highest score
// first. Ties break toward the more recently updated entity, then the lower
// identifier.
func (r *Retriever) Query(ctx context.Context, req QueryRequest) ([]QueryResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrValidation)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	vector := req.Vector
	if len(vector) == 0 && r.embed != nil {
		v, err := r.embed.Embed(ctx, query)
		if err != nil {
			r.logger.Warn("query embedding failed, dropping vector term", zap.Error(err))
		} else {
			vector = v
		}
	}

	var goalTokens []string
	if req.GoalID != nil {
		goal, err := r.store.Goals.GetByID(ctx, *req.GoalID)
		if err != nil {
			return nil, err
		}
		if !goal.Status.Terminal() {
			goalTokens = tokenize(goal.Description)
		}
	}

	queryTokens := tokenize(query)
	now := time.Now().UTC()
	var results []QueryResult

	for _, t := range r.searchedTypes(req.Types) {
		batch, err := r.collect(ctx, t, queryTokens, vector, goalTokens, now)
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].updatedAt.Equal(results[j].updatedAt) {
			return results[i].updatedAt.After(results[j].updatedAt)
		}
		return results[i].sortKey < results[j].sortKey
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (r *Retriever) searchedTypes(requested []ResultType) []ResultType {
	if len(requested) == 0 {
		return []ResultType{ResultBelief, ResultSkill, ResultEpisode, ResultHypothesis}
	}
	return requested
}

func (r *Retriever) collect(ctx context.Context, t ResultType, queryTokens []string, vector []float32, goalTokens []string, now time.Time) ([]QueryResult, error) {
	var results []QueryResult
	switch t {
	case ResultBelief:
		beliefs, err := r.store.Beliefs.List(ctx, false)
		if err != nil {
			return nil, err
		}
		for i := range beliefs {
			b := &beliefs[i]
			if b.Status == domain.BeliefRetracted {
				continue
			}
			score := r.score(queryTokens, tokenize(b.Statement), vector, b.Embedding, b.Confidence, b.UpdatedAt, goalTokens, now)
			results = append(results, QueryResult{
				Type: ResultBelief, Score: score, Belief: b,
				updatedAt: b.UpdatedAt, sortKey: b.ID.String(),
			})
		}
	case ResultSkill:
		skills, err := r.store.Skills.List(ctx)
		if err != nil {
			return nil, err
		}
		for i := range skills {
			s := &skills[i]
			text := s.Name + " " + s.Preconditions + " " + strings.Join(s.Steps, " ")
			score := r.score(queryTokens, tokenize(text), vector, nil, s.SuccessRate, s.UpdatedAt, goalTokens, now)
			results = append(results, QueryResult{
				Type: ResultSkill, Score: score, Skill: s,
				updatedAt: s.UpdatedAt, sortKey: s.ID.String(),
			})
		}
	case ResultEpisode:
		episodes, err := r.store.Episodes.ListRecent(ctx, r.episodeScan)
		if err != nil {
			return nil, err
		}
		for i := range episodes {
			e := &episodes[i]
			if e.Pruned {
				continue
			}
			score := r.score(queryTokens, tokenize(e.Payload.Text), vector, nil, e.Salience, e.UpdatedAt, goalTokens, now)
			results = append(results, QueryResult{
				Type: ResultEpisode, Score: score, Episode: e,
				updatedAt: e.UpdatedAt, sortKey: fmt.Sprintf("%020d", e.ID),
			})
		}
	case ResultHypothesis:
		hypotheses, err := r.store.Hypotheses.List(ctx)
		if err != nil {
			return nil, err
		}
		for i := range hypotheses {
			h := &hypotheses[i]
			score := r.score(queryTokens, tokenize(h.Claim), vector, nil, h.Confidence, h.UpdatedAt, goalTokens, now)
			results = append(results, QueryResult{
				Type: ResultHypothesis, Score: score, Hypothesis: h,
				updatedAt: h.UpdatedAt, sortKey: h.ID.String(),
			})
		}
	default:
		return nil, fmt.Errorf("%w: unknown result type %q", domain.ErrValidation, t)
	}
	return results, nil
}

// score blends the signal terms. When either side of the vector term is
// missing that weight is redistributed proportionally over the remaining
// terms so an offline deployment scores on the same 0..1 scale.
func (r *Retriever) score(queryTokens, candidateTokens []string, queryVec, candidateVec []float32, confidence float32, updatedAt time.Time, goalTokens []string, now time.Time) float32 {
	w := r.weights
	hasVector := len(queryVec) > 0 && len(candidateVec) > 0
	if !hasVector && w.Vector > 0 {
		rest := w.Lexical + w.Recency + w.Confidence + w.Goal
		if rest > 0 {
			scale := (rest + w.Vector) / rest
			w.Lexical *= scale
			w.Recency *= scale
			w.Confidence *= scale
			w.Goal *= scale
		}
		w.Vector = 0
	}

	score := w.Lexical * tokenOverlap(queryTokens, candidateTokens)
	if hasVector {
		score += w.Vector * (cosineSimilarity(queryVec, candidateVec) + 1) / 2
	}
	score += w.Recency * r.recencyScore(updatedAt, now)
	score += w.Confidence * clamp01(confidence)
	if len(goalTokens) > 0 {
		score += w.Goal * tokenOverlap(goalTokens, candidateTokens)
	}
	return score
}

// recencyScore is linear over the window: 1.0 now, 0.0 at the window edge
// and beyond.
func (r *Retriever) recencyScore(updatedAt, now time.Time) float32 {
	age := now.Sub(updatedAt)
	if age <= 0 {
		return 1
	}
	if age >= r.recencyWindow {
		return 0
	}
	return 1 - float32(age)/float32(r.recencyWindow)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]")
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// tokenOverlap is the fraction of query tokens present in the candidate.
func tokenOverlap(query, candidate []string) float32 {
	if len(query) == 0 || len(candidate) == 0 {
		return 0
	}
	set := make(map[string]bool, len(candidate))
	for _, t := range candidate {
		set[t] = true
	}
	matched := 0
	for _, t := range query {
		if set[t] {
			matched++
		}
	}
	return float32(matched) / float32(len(query))
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
