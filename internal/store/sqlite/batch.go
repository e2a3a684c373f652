package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
)

type ConsolidationStore struct {
	db *DB
}

func (s *ConsolidationStore) Watermark(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT episode_id FROM consolidation_watermark WHERE id = 1`).Scan(&id)
	if err != nil {
		return 0, storageErr("read watermark", err)
	}
	return id, nil
}

// ApplyBatch commits a consolidation batch in one transaction. The stored
// watermark must still equal batch.PriorWatermark, which rules out a
// double-commit from a retried run racing a succeeded one.
func (s *ConsolidationStore) ApplyBatch(ctx context.Context, batch *domain.ConsolidationBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin batch", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored int64
	if err := tx.QueryRowContext(ctx,
		`SELECT episode_id FROM consolidation_watermark WHERE id = 1`).Scan(&stored); err != nil {
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

	now := nanos(time.Now().UTC())
	for _, p := range batch.Promotions {
		if _, err := tx.ExecContext(ctx,
			`UPDATE hypotheses SET promoted_belief_id = ?, updated_at = ? WHERE id = ?`,
			p.BeliefID.String(), now, p.HypothesisID.String()); err != nil {
			return storageErr("batch hypothesis promotion", err)
		}
	}

	for id, salience := range batch.SalienceUpdates {
		if _, err := tx.ExecContext(ctx,
			`UPDATE episodes SET salience = ?, updated_at = ? WHERE id = ?`,
			salience, now, id); err != nil {
			return storageErr("batch salience update", err)
		}
	}

	// Pruning removes the payload text only; the content hash and
	// timestamps stay behind for provenance.
	for _, id := range batch.PruneEpisodeIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE episodes SET text = NULL, pruned = 1, pruned_at = ?, updated_at = ? WHERE id = ?`,
			now, now, id); err != nil {
			return storageErr("batch episode prune", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE consolidation_watermark SET episode_id = ?, updated_at = ? WHERE id = 1`,
		batch.NewWatermark, now); err != nil {
		return storageErr("batch watermark advance", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit batch", err)
	}
	return nil
}
