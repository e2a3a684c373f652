package postgres

import (
	"context"
	"errors"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HypothesisStore struct {
	db *pgxpool.Pool
}

const hypothesisColumns = `id, claim, verification_plan, confidence, status, evidence_ids, promoted_belief_id, created_at, updated_at`

func scanHypothesis(row pgx.Row) (*domain.Hypothesis, error) {
	var (
		h      domain.Hypothesis
		status string
	)
	err := row.Scan(&h.ID, &h.Claim, &h.VerificationPlan, &h.Confidence, &status,
		&h.EvidenceIDs, &h.PromotedBeliefID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	h.Status = domain.HypothesisStatus(status)
	return &h, nil
}

func (s *HypothesisStore) Create(ctx context.Context, h *domain.Hypothesis) error {
	evidence := h.EvidenceIDs
	if evidence == nil {
		evidence = []int64{}
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO hypotheses (id, claim, verification_plan, confidence, status, evidence_ids)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		h.ID, h.Claim, h.VerificationPlan, h.Confidence, string(h.Status), evidence)
	if err := row.Scan(&h.CreatedAt, &h.UpdatedAt); err != nil {
		return storageErr("create hypothesis", err)
	}
	return nil
}

func (s *HypothesisStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses WHERE id = $1`, id)
	h, err := scanHypothesis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get hypothesis", err)
	}
	return h, nil
}

func (s *HypothesisStore) List(ctx context.Context) ([]domain.Hypothesis, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses ORDER BY created_at DESC`)
	if err != nil {
		return nil, storageErr("list hypotheses", err)
	}
	defer rows.Close()
	return collectHypotheses(rows)
}

func (s *HypothesisStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.HypothesisStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE hypotheses SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return storageErr("update hypothesis status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *HypothesisStore) ListVerifiedUnpromoted(ctx context.Context) ([]domain.Hypothesis, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses
		 WHERE status = 'verified' AND promoted_belief_id IS NULL
		 ORDER BY created_at ASC`)
	if err != nil {
		return nil, storageErr("list verified hypotheses", err)
	}
	defer rows.Close()
	return collectHypotheses(rows)
}

func collectHypotheses(rows pgx.Rows) ([]domain.Hypothesis, error) {
	var hs []domain.Hypothesis
	for rows.Next() {
		h, err := scanHypothesis(rows)
		if err != nil {
			return nil, err
		}
		hs = append(hs, *h)
	}
	return hs, rows.Err()
}
