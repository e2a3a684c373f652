package postgres

import (
	"context"
	"fmt"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewStore assembles the domain store bundle over one pgx pool.
func NewStore(pool *pgxpool.Pool) *domain.Store {
	return &domain.Store{
		Episodes:      &EpisodeStore{db: pool},
		Beliefs:       &BeliefStore{db: pool},
		Skills:        &SkillStore{db: pool},
		Goals:         &GoalStore{db: pool},
		SelfModel:     &SelfModelStore{db: pool},
		Hypotheses:    &HypothesisStore{db: pool},
		Consolidation: &ConsolidationStore{db: pool},
	}
}

// storageErr wraps driver failures in the shared taxonomy so callers can
// treat the medium being unreachable uniformly across backends.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
}

// EnsureSchema creates the memory relations if they do not exist. The
// pgvector extension must already be installed for belief embeddings.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS episodes (
			id           BIGSERIAL PRIMARY KEY,
			kind         TEXT NOT NULL CHECK (kind IN ('action', 'observation', 'perception', 'system')),
			text         TEXT,
			skill_name   TEXT NOT NULL DEFAULT '',
			outcome      TEXT NOT NULL DEFAULT '',
			verified     BOOLEAN NOT NULL DEFAULT FALSE,
			tags         TEXT[] NOT NULL DEFAULT '{}',
			salience     REAL NOT NULL DEFAULT 1.0,
			content_hash TEXT NOT NULL,
			pruned       BOOLEAN NOT NULL DEFAULT FALSE,
			pruned_at    TIMESTAMPTZ,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_pruned ON episodes(pruned)`,
		`CREATE TABLE IF NOT EXISTS beliefs (
			id                 UUID PRIMARY KEY,
			statement          TEXT NOT NULL,
			subject            TEXT NOT NULL,
			polarity           TEXT NOT NULL,
			confidence         REAL NOT NULL,
			status             TEXT NOT NULL CHECK (status IN ('proposed', 'confirmed', 'disputed', 'retracted', 'archived')),
			evidence_ids       BIGINT[] NOT NULL DEFAULT '{}',
			conflicts_with_ids UUID[] NOT NULL DEFAULT '{}',
			embedding          vector,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_beliefs_subject ON beliefs(subject)`,
		`CREATE INDEX IF NOT EXISTS idx_beliefs_status ON beliefs(status)`,
		`CREATE TABLE IF NOT EXISTS skills (
			id            UUID PRIMARY KEY,
			name          TEXT NOT NULL UNIQUE,
			preconditions TEXT NOT NULL DEFAULT '',
			steps         TEXT[] NOT NULL DEFAULT '{}',
			failure_modes TEXT[] NOT NULL DEFAULT '{}',
			success_rate  REAL NOT NULL DEFAULT 0,
			use_count     INTEGER NOT NULL DEFAULT 0,
			evidence_ids  BIGINT[] NOT NULL DEFAULT '{}',
			last_used     TIMESTAMPTZ,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS goals (
			id          UUID PRIMARY KEY,
			description TEXT NOT NULL,
			status      TEXT NOT NULL CHECK (status IN ('active', 'blocked', 'completed', 'abandoned')),
			priority    INTEGER NOT NULL DEFAULT 5,
			progress    REAL NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS self_model (
			capability        TEXT PRIMARY KEY,
			reliability_score REAL NOT NULL DEFAULT 0,
			limitations       TEXT[] NOT NULL DEFAULT '{}',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS hypotheses (
			id                 UUID PRIMARY KEY,
			claim              TEXT NOT NULL,
			verification_plan  TEXT NOT NULL DEFAULT '',
			confidence         REAL NOT NULL DEFAULT 0.5,
			status             TEXT NOT NULL CHECK (status IN ('open', 'verified', 'rejected')),
			evidence_ids       BIGINT[] NOT NULL DEFAULT '{}',
			promoted_belief_id UUID,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS consolidation_watermark (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			episode_id BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`INSERT INTO consolidation_watermark (id, episode_id) VALUES (1, 0)
		 ON CONFLICT (id) DO NOTHING`,
	}
	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
