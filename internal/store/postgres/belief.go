package postgres

import (
	"context"
	"errors"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type BeliefStore struct {
	db *pgxpool.Pool
}

const beliefColumns = `id, statement, subject, polarity, confidence, status, evidence_ids, conflicts_with_ids, embedding, created_at, updated_at`

func scanBelief(row pgx.Row) (*domain.Belief, error) {
	var (
		b         domain.Belief
		polarity  string
		status    string
		embedding *pgvector.Vector
	)
	err := row.Scan(&b.ID, &b.Statement, &b.Subject, &polarity, &b.Confidence, &status,
		&b.EvidenceIDs, &b.ConflictsWithIDs, &embedding, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Polarity = domain.Polarity(polarity)
	b.Status = domain.BeliefStatus(status)
	if embedding != nil {
		b.Embedding = embedding.Slice()
	}
	return &b, nil
}

func (s *BeliefStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Belief, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+beliefColumns+` FROM beliefs WHERE id = $1`, id)
	b, err := scanBelief(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get belief", err)
	}
	return b, nil
}

func (s *BeliefStore) List(ctx context.Context, includeArchived bool) ([]domain.Belief, error) {
	query := `SELECT ` + beliefColumns + ` FROM beliefs`
	if !includeArchived {
		query += ` WHERE status != 'archived'`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, storageErr("list beliefs", err)
	}
	defer rows.Close()
	return collectBeliefs(rows)
}

func (s *BeliefStore) GetBySubject(ctx context.Context, subject string) ([]domain.Belief, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+beliefColumns+` FROM beliefs WHERE subject = $1 AND status != 'archived'
		 ORDER BY updated_at DESC`, subject)
	if err != nil {
		return nil, storageErr("get beliefs by subject", err)
	}
	defer rows.Close()
	return collectBeliefs(rows)
}

func collectBeliefs(rows pgx.Rows) ([]domain.Belief, error) {
	var beliefs []domain.Belief
	for rows.Next() {
		b, err := scanBelief(rows)
		if err != nil {
			return nil, err
		}
		beliefs = append(beliefs, *b)
	}
	return beliefs, rows.Err()
}

// upsertBeliefTx writes one belief inside a consolidation transaction.
func upsertBeliefTx(ctx context.Context, tx pgx.Tx, b *domain.Belief) error {
	var embedding *pgvector.Vector
	if len(b.Embedding) > 0 {
		v := pgvector.NewVector(b.Embedding)
		embedding = &v
	}
	evidence := b.EvidenceIDs
	if evidence == nil {
		evidence = []int64{}
	}
	conflicts := b.ConflictsWithIDs
	if conflicts == nil {
		conflicts = []uuid.UUID{}
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO beliefs (id, statement, subject, polarity, confidence, status, evidence_ids, conflicts_with_ids, embedding, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   statement = EXCLUDED.statement,
		   subject = EXCLUDED.subject,
		   polarity = EXCLUDED.polarity,
		   confidence = EXCLUDED.confidence,
		   status = EXCLUDED.status,
		   evidence_ids = EXCLUDED.evidence_ids,
		   conflicts_with_ids = EXCLUDED.conflicts_with_ids,
		   embedding = EXCLUDED.embedding,
		   updated_at = EXCLUDED.updated_at`,
		b.ID, b.Statement, b.Subject, string(b.Polarity), b.Confidence, string(b.Status),
		evidence, conflicts, embedding, b.CreatedAt, b.UpdatedAt,
	)
	return err
}
