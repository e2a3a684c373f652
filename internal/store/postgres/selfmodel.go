package postgres

import (
	"context"
	"errors"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SelfModelStore struct {
	db *pgxpool.Pool
}

const selfModelColumns = `capability, reliability_score, limitations, created_at, updated_at`

func scanSelfModel(row pgx.Row) (*domain.SelfModelEntry, error) {
	var e domain.SelfModelEntry
	err := row.Scan(&e.Capability, &e.ReliabilityScore, &e.Limitations, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SelfModelStore) GetByCapability(ctx context.Context, capability string) (*domain.SelfModelEntry, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+selfModelColumns+` FROM self_model WHERE capability = $1`, capability)
	e, err := scanSelfModel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get self-model entry", err)
	}
	return e, nil
}

func (s *SelfModelStore) List(ctx context.Context) ([]domain.SelfModelEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+selfModelColumns+` FROM self_model ORDER BY capability ASC`)
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

func upsertSelfModelTx(ctx context.Context, tx pgx.Tx, e *domain.SelfModelEntry) error {
	limitations := e.Limitations
	if limitations == nil {
		limitations = []string{}
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO self_model (capability, reliability_score, limitations, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (capability) DO UPDATE SET
		   reliability_score = EXCLUDED.reliability_score,
		   limitations = EXCLUDED.limitations,
		   updated_at = EXCLUDED.updated_at`,
		e.Capability, e.ReliabilityScore, limitations, e.CreatedAt, e.UpdatedAt)
	return err
}
