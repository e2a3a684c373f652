package postgres

import (
	"context"
	"errors"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SkillStore struct {
	db *pgxpool.Pool
}

const skillColumns = `id, name, preconditions, steps, failure_modes, success_rate, use_count, evidence_ids, last_used, created_at, updated_at`

func scanSkill(row pgx.Row) (*domain.Skill, error) {
	var s domain.Skill
	err := row.Scan(&s.ID, &s.Name, &s.Preconditions, &s.Steps, &s.FailureModes,
		&s.SuccessRate, &s.UseCount, &s.EvidenceIDs, &s.LastUsed, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *SkillStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Skill, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE id = $1`, id)
	sk, err := scanSkill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get skill", err)
	}
	return sk, nil
}

func (s *SkillStore) GetByName(ctx context.Context, name string) (*domain.Skill, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE name = $1`, name)
	sk, err := scanSkill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get skill by name", err)
	}
	return sk, nil
}

func (s *SkillStore) List(ctx context.Context) ([]domain.Skill, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+skillColumns+` FROM skills ORDER BY use_count DESC, name ASC`)
	if err != nil {
		return nil, storageErr("list skills", err)
	}
	defer rows.Close()

	var skills []domain.Skill
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		skills = append(skills, *sk)
	}
	return skills, rows.Err()
}

func upsertSkillTx(ctx context.Context, tx pgx.Tx, sk *domain.Skill) error {
	evidence := sk.EvidenceIDs
	if evidence == nil {
		evidence = []int64{}
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO skills (id, name, preconditions, steps, failure_modes, success_rate, use_count, evidence_ids, last_used, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   preconditions = EXCLUDED.preconditions,
		   steps = EXCLUDED.steps,
		   failure_modes = EXCLUDED.failure_modes,
		   success_rate = EXCLUDED.success_rate,
		   use_count = EXCLUDED.use_count,
		   evidence_ids = EXCLUDED.evidence_ids,
		   last_used = EXCLUDED.last_used,
		   updated_at = EXCLUDED.updated_at`,
		sk.ID, sk.Name, sk.Preconditions, sk.Steps, sk.FailureModes,
		sk.SuccessRate, sk.UseCount, evidence, sk.LastUsed, sk.CreatedAt, sk.UpdatedAt,
	)
	return err
}
