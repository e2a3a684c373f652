package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
)

type BeliefStore struct {
	db *DB
}

const beliefColumns = `id, statement, subject, polarity, confidence, status, evidence_ids, conflicts_with_ids, embedding, created_at, updated_at`

func scanBelief(row interface{ Scan(...any) error }) (*domain.Belief, error) {
	var (
		b         domain.Belief
		id        string
		polarity  string
		status    string
		evidence  string
		conflicts string
		embedding sql.NullString
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&id, &b.Statement, &b.Subject, &polarity, &b.Confidence, &status,
		&evidence, &conflicts, &embedding, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	b.Polarity = domain.Polarity(polarity)
	b.Status = domain.BeliefStatus(status)
	if err := unmarshalJSON(evidence, &b.EvidenceIDs); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(conflicts, &b.ConflictsWithIDs); err != nil {
		return nil, err
	}
	if embedding.Valid {
		if err := unmarshalJSON(embedding.String, &b.Embedding); err != nil {
			return nil, err
		}
	}
	b.CreatedAt = fromNanos(createdAt)
	b.UpdatedAt = fromNanos(updatedAt)
	return &b, nil
}

func (s *BeliefStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Belief, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+beliefColumns+` FROM beliefs WHERE id = ?`, id.String())
	b, err := scanBelief(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("list beliefs", err)
	}
	defer rows.Close()
	return collectBeliefs(rows)
}

func (s *BeliefStore) GetBySubject(ctx context.Context, subject string) ([]domain.Belief, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+beliefColumns+` FROM beliefs WHERE subject = ? AND status != 'archived'
		 ORDER BY updated_at DESC`, subject)
	if err != nil {
		return nil, storageErr("get beliefs by subject", err)
	}
	defer rows.Close()
	return collectBeliefs(rows)
}

func collectBeliefs(rows *sql.Rows) ([]domain.Belief, error) {
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
func upsertBeliefTx(ctx context.Context, tx *sql.Tx, b *domain.Belief) error {
	evidence, err := marshalJSON(b.EvidenceIDs)
	if err != nil {
		return err
	}
	conflicts, err := marshalJSON(b.ConflictsWithIDs)
	if err != nil {
		return err
	}
	var embedding any
	if len(b.Embedding) > 0 {
		embedding, err = marshalJSON(b.Embedding)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO beliefs (id, statement, subject, polarity, confidence, status, evidence_ids, conflicts_with_ids, embedding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   statement = excluded.statement,
		   subject = excluded.subject,
		   polarity = excluded.polarity,
		   confidence = excluded.confidence,
		   status = excluded.status,
		   evidence_ids = excluded.evidence_ids,
		   conflicts_with_ids = excluded.conflicts_with_ids,
		   embedding = excluded.embedding,
		   updated_at = excluded.updated_at`,
		b.ID.String(), b.Statement, b.Subject, string(b.Polarity), b.Confidence, string(b.Status),
		evidence, conflicts, embedding, nanos(b.CreatedAt), nanos(b.UpdatedAt),
	)
	return err
}
