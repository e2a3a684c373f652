package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
)

type SelfModelStore struct {
	db *DB
}

func scanSelfModel(row interface{ Scan(...any) error }) (*domain.SelfModelEntry, error) {
	var (
		e           domain.SelfModelEntry
		limitations string
		createdAt   int64
		updatedAt   int64
	)
	err := row.Scan(&e.Capability, &e.ReliabilityScore, &limitations, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(limitations, &e.Limitations); err != nil {
		return nil, err
	}
	e.CreatedAt = fromNanos(createdAt)
	e.UpdatedAt = fromNanos(updatedAt)
	return &e, nil
}

func (s *SelfModelStore) GetByCapability(ctx context.Context, capability string) (*domain.SelfModelEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT capability, reliability_score, limitations, created_at, updated_at
		 FROM self_model WHERE capability = ?`, capability)
	e, err := scanSelfModel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get self-model entry", err)
	}
	return e, nil
}

func (s *SelfModelStore) List(ctx context.Context) ([]domain.SelfModelEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT capability, reliability_score, limitations, created_at, updated_at
		 FROM self_model ORDER BY capability ASC`)
	if err != nil {
		return nil, storageErr("list self-model", err)
	}
	defer rows.Close()

	var entries []domain.SelfModelEntry
	for rows.Next() {
		e, err := scanSelfModel(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func upsertSelfModelTx(ctx context.Context, tx *sql.Tx, e *domain.SelfModelEntry) error {
	limitations, err := marshalJSON(e.Limitations)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO self_model (capability, reliability_score, limitations, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (capability) DO UPDATE SET
		   reliability_score = excluded.reliability_score,
		   limitations = excluded.limitations,
		   updated_at = excluded.updated_at`,
		e.Capability, e.ReliabilityScore, limitations, nanos(e.CreatedAt), nanos(e.UpdatedAt),
	)
	return err
}
