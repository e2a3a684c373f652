package postgres

import (
	"context"
	"fmt"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConsolidationStore struct {
	db *pgxpool.Pool
}

func (s *ConsolidationStore) Watermark(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`SELECT episode_id FROM consolidation_watermark WHERE id = 1`).Scan(&id)
	if err != nil {
		return 0, storageErr("read watermark", err)
	}
	return id, nil
}

// ApplyBatch commits a consolidation batch in one transaction. The stored
// watermark must still equal batch.PriorWatermark, which rules out a
// double-commit from a retried run racing a succeeded one. The row lock
// taken by FOR UPDATE serializes concurrent committers.
func (s *ConsolidationStore) ApplyBatch(ctx context.Context, batch *domain.ConsolidationBatch) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return storageErr("begin batch", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stored int64
	if err := tx.QueryRow(ctx,
		`SELECT episode_id FROM consolidation_watermark WHERE id = 1 FOR UPDATE`).Scan(&stored); err != nil {
		return storageErr("batch watermark read", err)
	}
	if stored != batch.PriorWatermark {
		return fmt.Errorf("watermark moved from %d to %d: %w",
			batch.PriorWatermark, stored, domain.ErrConsolidationAborted)
	}
	if batch.NewWatermark < stored {
		return fmt.Errorf("watermark would regress from %d to %d: %w",
			stored, batch.NewWatermark, domain.ErrValidation)
	}

	for i := range batch.BeliefUpserts {
		if err := upsertBeliefTx(ctx, tx, &batch.BeliefUpserts[i]); err != nil {
			return storageErr("batch belief upsert", err)
		}
	}
	for i := range batch.SkillUpserts {
		if err := upsertSkillTx(ctx, tx, &batch.SkillUpserts[i]); err != nil {
			return storageErr("batch skill upsert", err)
		}
	}
	for i := range batch.SelfModelUpserts {
		if err := upsertSelfModelTx(ctx, tx, &batch.SelfModelUpserts[i]); err != nil {
			return storageErr("batch self-model upsert", err)
		}
	}

	for _, p := range batch.Promotions {
		if _, err := tx.Exec(ctx,
			`UPDATE hypotheses SET promoted_belief_id = $2, updated_at = NOW() WHERE id = $1`,
			p.HypothesisID, p.BeliefID); err != nil {
			return storageErr("batch hypothesis promotion", err)
		}
	}

	for id, salience := range batch.SalienceUpdates {
		if _, err := tx.Exec(ctx,
			`UPDATE episodes SET salience = $2, updated_at = NOW() WHERE id = $1`,
			id, salience); err != nil {
			return storageErr("batch salience update", err)
		}
	}

	// Pruning removes the payload text only; the content hash and
	// timestamps stay behind for provenance.
	for _, id := range batch.PruneEpisodeIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE episodes SET text = NULL, pruned = TRUE, pruned_at = NOW(), updated_at = NOW()
			 WHERE id = $1`, id); err != nil {
			return storageErr("batch episode prune", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE consolidation_watermark SET episode_id = $1, updated_at = NOW() WHERE id = 1`,
		batch.NewWatermark); err != nil {
		return storageErr("batch watermark advance", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit batch", err)
	}
	return nil
}
