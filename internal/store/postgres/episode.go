package postgres

import (
	"context"
	"errors"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EpisodeStore struct {
	db *pgxpool.Pool
}

func (s *EpisodeStore) Append(ctx context.Context, e *domain.Episode) error {
	e.ContentHash = domain.HashPayload(e.Kind, e.Payload)
	tags := e.Payload.Tags
	if tags == nil {
		tags = []string{}
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO episodes (kind, text, skill_name, outcome, verified, tags, salience, content_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		string(e.Kind), e.Payload.Text, e.Payload.SkillName, string(e.Payload.Outcome),
		e.Payload.Verified, tags, e.Salience, e.ContentHash,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return storageErr("append episode", err)
	}
	return nil
}

const episodeColumns = `id, kind, COALESCE(text, ''), skill_name, outcome, verified, tags, salience, content_hash, pruned, pruned_at, created_at, updated_at`

func scanEpisode(row pgx.Row) (*domain.Episode, error) {
	var (
		e       domain.Episode
		kind    string
		outcome string
	)
	err := row.Scan(&e.ID, &kind, &e.Payload.Text, &e.Payload.SkillName, &outcome,
		&e.Payload.Verified, &e.Payload.Tags, &e.Salience, &e.ContentHash,
		&e.Pruned, &e.PrunedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Kind = domain.EpisodeKind(kind)
	e.Payload.Outcome = domain.OutcomeType(outcome)
	return &e, nil
}

func (s *EpisodeStore) GetByID(ctx context.Context, id int64) (*domain.Episode, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE id = $1`, id)
	e, err := scanEpisode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get episode", err)
	}
	return e, nil
}

func (s *EpisodeStore) ListAfter(ctx context.Context, afterID, upToID int64, limit int) ([]domain.Episode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+episodeColumns+` FROM episodes
		 WHERE id > $1 AND id <= $2 AND pruned = FALSE
		 ORDER BY id ASC LIMIT $3`,
		afterID, upToID, limit)
	if err != nil {
		return nil, storageErr("list episodes after", err)
	}
	defer rows.Close()
	return collectEpisodes(rows)
}

func (s *EpisodeStore) ListRecent(ctx context.Context, limit int) ([]domain.Episode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE pruned = FALSE
		 ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, storageErr("list recent episodes", err)
	}
	defer rows.Close()
	return collectEpisodes(rows)
}

func (s *EpisodeStore) ListUnpruned(ctx context.Context) ([]domain.Episode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE pruned = FALSE ORDER BY id ASC`)
	if err != nil {
		return nil, storageErr("list unpruned episodes", err)
	}
	defer rows.Close()
	return collectEpisodes(rows)
}

func (s *EpisodeStore) MaxID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM episodes`).Scan(&id)
	if err != nil {
		return 0, storageErr("max episode id", err)
	}
	return id, nil
}

func collectEpisodes(rows pgx.Rows) ([]domain.Episode, error) {
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
