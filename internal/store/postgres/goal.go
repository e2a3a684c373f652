package postgres

import (
	"context"
	"errors"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GoalStore struct {
	db *pgxpool.Pool
}

const goalColumns = `id, description, status, priority, progress, created_at, updated_at`

func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var (
		g      domain.Goal
		status string
	)
	err := row.Scan(&g.ID, &g.Description, &status, &g.Priority, &g.Progress, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Status = domain.GoalStatus(status)
	return &g, nil
}

func (s *GoalStore) Create(ctx context.Context, g *domain.Goal) error {
	row := s.db.QueryRow(ctx,
		`INSERT INTO goals (id, description, status, priority, progress)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		g.ID, g.Description, string(g.Status), g.Priority, g.Progress)
	if err := row.Scan(&g.CreatedAt, &g.UpdatedAt); err != nil {
		return storageErr("create goal", err)
	}
	return nil
}

func (s *GoalStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Goal, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1`, id)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get goal", err)
	}
	return g, nil
}

func (s *GoalStore) List(ctx context.Context) ([]domain.Goal, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+goalColumns+` FROM goals ORDER BY priority DESC, created_at ASC`)
	if err != nil {
		return nil, storageErr("list goals", err)
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (s *GoalStore) Update(ctx context.Context, g *domain.Goal) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE goals SET description = $2, status = $3, priority = $4, progress = $5, updated_at = NOW()
		 WHERE id = $1`,
		g.ID, g.Description, string(g.Status), g.Priority, g.Progress)
	if err != nil {
		return storageErr("update goal", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
