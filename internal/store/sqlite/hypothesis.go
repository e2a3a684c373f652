package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
)

type HypothesisStore struct {
	db *DB
}

func (s *HypothesisStore) Create(ctx context.Context, h *domain.Hypothesis) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now

	evidence, err := marshalJSON(h.EvidenceIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hypotheses (id, claim, verification_plan, confidence, status, evidence_ids, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID.String(), h.Claim, h.VerificationPlan, h.Confidence, string(h.Status),
		evidence, nanos(h.CreatedAt), nanos(h.UpdatedAt),
	)
	if err != nil {
		return storageErr("create hypothesis", err)
	}
	return nil
}

const hypothesisColumns = `id, claim, verification_plan, confidence, status, evidence_ids, promoted_belief_id, created_at, updated_at`

func scanHypothesis(row interface{ Scan(...any) error }) (*domain.Hypothesis, error) {
	var (
		h         domain.Hypothesis
		id        string
		status    string
		evidence  string
		promoted  sql.NullString
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&id, &h.Claim, &h.VerificationPlan, &h.Confidence, &status,
		&evidence, &promoted, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	h.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	h.Status = domain.HypothesisStatus(status)
	if err := unmarshalJSON(evidence, &h.EvidenceIDs); err != nil {
		return nil, err
	}
	if promoted.Valid {
		pid, err := uuid.Parse(promoted.String)
		if err != nil {
			return nil, err
		}
		h.PromotedBeliefID = &pid
	}
	h.CreatedAt = fromNanos(createdAt)
	h.UpdatedAt = fromNanos(updatedAt)
	return &h, nil
}

func (s *HypothesisStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses WHERE id = ?`, id.String())
	h, err := scanHypothesis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get hypothesis", err)
	}
	return h, nil
}

func (s *HypothesisStore) List(ctx context.Context) ([]domain.Hypothesis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses ORDER BY created_at ASC`)
	if err != nil {
		return nil, storageErr("list hypotheses", err)
	}
	defer rows.Close()
	return collectHypotheses(rows)
}

func (s *HypothesisStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.HypothesisStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE hypotheses SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), nanos(time.Now().UTC()), id.String(),
	)
	if err != nil {
		return storageErr("update hypothesis status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update hypothesis rows", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *HypothesisStore) ListVerifiedUnpromoted(ctx context.Context) ([]domain.Hypothesis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+hypothesisColumns+` FROM hypotheses
		 WHERE status = 'verified' AND promoted_belief_id IS NULL
		 ORDER BY created_at ASC`)
	if err != nil {
		return nil, storageErr("list verified hypotheses", err)
	}
	defer rows.Close()
	return collectHypotheses(rows)
}

func collectHypotheses(rows *sql.Rows) ([]domain.Hypothesis, error) {
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
