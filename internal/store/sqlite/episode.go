package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
)

type EpisodeStore struct {
	db *DB
}

func (s *EpisodeStore) Append(ctx context.Context, e *domain.Episode) error {
	now := time.Now().UTC()
	tags, err := marshalJSON(e.Payload.Tags)
	if err != nil {
		return err
	}
	e.ContentHash = domain.HashPayload(e.Kind, e.Payload)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO episodes (kind, text, skill_name, outcome, verified, tags, salience, content_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.Kind), e.Payload.Text, e.Payload.SkillName, string(e.Payload.Outcome),
		boolToInt(e.Payload.Verified), tags, e.Salience, e.ContentHash, nanos(now), nanos(now),
	)
	if err != nil {
		return storageErr("append episode", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("append episode id", err)
	}
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

const episodeColumns = `id, kind, text, skill_name, outcome, verified, tags, salience, content_hash, pruned, pruned_at, created_at, updated_at`

func scanEpisode(row interface{ Scan(...any) error }) (*domain.Episode, error) {
	var (
		e         domain.Episode
		kind      string
		text      sql.NullString
		outcome   string
		verified  int
		tags      string
		pruned    int
		prunedAt  sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&e.ID, &kind, &text, &e.Payload.SkillName, &outcome, &verified,
		&tags, &e.Salience, &e.ContentHash, &pruned, &prunedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.Kind = domain.EpisodeKind(kind)
	e.Payload.Text = text.String
	e.Payload.Outcome = domain.OutcomeType(outcome)
	e.Payload.Verified = verified != 0
	if err := unmarshalJSON(tags, &e.Payload.Tags); err != nil {
		return nil, err
	}
	e.Pruned = pruned != 0
	if prunedAt.Valid {
		t := fromNanos(prunedAt.Int64)
		e.PrunedAt = &t
	}
	e.CreatedAt = fromNanos(createdAt)
	e.UpdatedAt = fromNanos(updatedAt)
	return &e, nil
}

func (s *EpisodeStore) GetByID(ctx context.Context, id int64) (*domain.Episode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	e, err := scanEpisode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get episode", err)
	}
	return e, nil
}

func (s *EpisodeStore) ListAfter(ctx context.Context, afterID, upToID int64, limit int) ([]domain.Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes
		 WHERE id > ? AND id <= ? AND pruned = 0
		 ORDER BY id ASC LIMIT ?`,
		afterID, upToID, limit)
	if err != nil {
		return nil, storageErr("list episodes after", err)
	}
	defer rows.Close()
	return collectEpisodes(rows)
}

func (s *EpisodeStore) ListRecent(ctx context.Context, limit int) ([]domain.Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE pruned = 0
		 ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("list recent episodes", err)
	}
	defer rows.Close()
	return collectEpisodes(rows)
}

func (s *EpisodeStore) ListUnpruned(ctx context.Context) ([]domain.Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE pruned = 0 ORDER BY id ASC`)
	if err != nil {
		return nil, storageErr("list unpruned episodes", err)
	}
	defer rows.Close()
	return collectEpisodes(rows)
}

func (s *EpisodeStore) MaxID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM episodes`).Scan(&id)
	if err != nil {
		return 0, storageErr("max episode id", err)
	}
	return id, nil
}

func collectEpisodes(rows *sql.Rows) ([]domain.Episode, error) {
	var episodes []domain.Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, *e)
	}
	return episodes, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
