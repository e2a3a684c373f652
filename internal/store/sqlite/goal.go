package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"github.com/google/uuid"
)

type GoalStore struct {
	db *DB
}

func (s *GoalStore) Create(ctx context.Context, g *domain.Goal) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, description, status, priority, progress, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.Description, string(g.Status), g.Priority, g.Progress,
		nanos(g.CreatedAt), nanos(g.UpdatedAt),
	)
	if err != nil {
		return storageErr("create goal", err)
	}
	return nil
}

func scanGoal(row interface{ Scan(...any) error }) (*domain.Goal, error) {
	var (
		g         domain.Goal
		id        string
		status    string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&id, &g.Description, &status, &g.Priority, &g.Progress, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	g.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	g.Status = domain.GoalStatus(status)
	g.CreatedAt = fromNanos(createdAt)
	g.UpdatedAt = fromNanos(updatedAt)
	return &g, nil
}

func (s *GoalStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, description, status, priority, progress, created_at, updated_at
		 FROM goals WHERE id = ?`, id.String())
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get goal", err)
	}
	return g, nil
}

func (s *GoalStore) List(ctx context.Context) ([]domain.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, status, priority, progress, created_at, updated_at
		 FROM goals ORDER BY priority DESC, created_at ASC`)
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
	g.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET description = ?, status = ?, priority = ?, progress = ?, updated_at = ?
		 WHERE id = ?`,
		g.Description, string(g.Status), g.Priority, g.Progress, nanos(g.UpdatedAt), g.ID.String(),
	)
	if err != nil {
		return storageErr("update goal", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update goal rows", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
