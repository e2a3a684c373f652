package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
)

type SkillStore struct {
	db *DB
}

const skillColumns = `id, name, preconditions, steps, failure_modes, success_rate, use_count, evidence_ids, last_used, created_at, updated_at`

func scanSkill(row interface{ Scan(...any) error }) (*domain.Skill, error) {
	var (
		sk        domain.Skill
		id        string
		steps     string
		failures  string
		evidence  string
		lastUsed  sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&id, &sk.Name, &sk.Preconditions, &steps, &failures,
		&sk.SuccessRate, &sk.UseCount, &evidence, &lastUsed, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	sk.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(steps, &sk.Steps); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(failures, &sk.FailureModes); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(evidence, &sk.EvidenceIDs); err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		t := fromNanos(lastUsed.Int64)
		sk.LastUsed = &t
	}
	sk.CreatedAt = fromNanos(createdAt)
	sk.UpdatedAt = fromNanos(updatedAt)
	return &sk, nil
}

func (s *SkillStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Skill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE id = ?`, id.String())
	sk, err := scanSkill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get skill", err)
	}
	return sk, nil
}

func (s *SkillStore) GetByName(ctx context.Context, name string) (*domain.Skill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE name = ?`, name)
	sk, err := scanSkill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get skill by name", err)
	}
	return sk, nil
}

func (s *SkillStore) List(ctx context.Context) ([]domain.Skill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+skillColumns+` FROM skills ORDER BY name ASC`)
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

func upsertSkillTx(ctx context.Context, tx *sql.Tx, sk *domain.Skill) error {
	steps, err := marshalJSON(sk.Steps)
	if err != nil {
		return err
	}
	failures, err := marshalJSON(sk.FailureModes)
	if err != nil {
		return err
	}
	evidence, err := marshalJSON(sk.EvidenceIDs)
	if err != nil {
		return err
	}
	var lastUsed any
	if sk.LastUsed != nil {
		lastUsed = nanos(*sk.LastUsed)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO skills (id, name, preconditions, steps, failure_modes, success_rate, use_count, evidence_ids, last_used, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   preconditions = excluded.preconditions,
		   steps = excluded.steps,
		   failure_modes = excluded.failure_modes,
		   success_rate = excluded.success_rate,
		   use_count = excluded.use_count,
		   evidence_ids = excluded.evidence_ids,
		   last_used = excluded.last_used,
		   updated_at = excluded.updated_at`,
		sk.ID.String(), sk.Name, sk.Preconditions, steps, failures,
		sk.SuccessRate, sk.UseCount, evidence, lastUsed, nanos(sk.CreatedAt), nanos(sk.UpdatedAt),
	)
	return err
}
