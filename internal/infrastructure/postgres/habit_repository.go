package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS habits (
		seq       BIGSERIAL PRIMARY KEY,
		id        UUID NOT NULL UNIQUE,
		name      TEXT NOT NULL,
		streak    INTEGER NOT NULL DEFAULT 0,
		last_done TIMESTAMPTZ
	)
`

// rowAt selects the seq of the row at a zero-based position
const rowAt = `(SELECT seq FROM habits ORDER BY seq LIMIT 1 OFFSET $1)`

type habitRepository struct {
	pool *pgxpool.Pool
}

// NewHabitRepository creates a new PostgreSQL habit repository
func NewHabitRepository(pool *pgxpool.Pool) repository.HabitRepository {
	return &habitRepository{pool: pool}
}

// EnsureSchema creates the habits table if it does not exist
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create habits table: %w", err)
	}
	return nil
}

func (r *habitRepository) Append(ctx context.Context, name string) (*entity.Habit, error) {
	query := `
		INSERT INTO habits (id, name, streak)
		VALUES ($1, $2, 0)
		RETURNING (SELECT COUNT(*) FROM habits)
	`

	habit := &entity.Habit{
		ID:   uuid.New(),
		Name: name,
	}

	// The RETURNING subquery sees the table before the insert
	var before int
	if err := r.pool.QueryRow(ctx, query, habit.ID, habit.Name).Scan(&before); err != nil {
		return nil, fmt.Errorf("failed to append habit: %w", err)
	}
	habit.Position = before

	return habit, nil
}

func (r *habitRepository) SetName(ctx context.Context, index int, name string) error {
	if err := checkNegative(index); err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `UPDATE habits SET name = $2 WHERE seq = `+rowAt, index, name)
	if err != nil {
		return fmt.Errorf("failed to rename habit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.outOfRange(ctx, index)
	}

	return nil
}

func (r *habitRepository) DeleteRow(ctx context.Context, index int) error {
	if err := checkNegative(index); err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM habits WHERE seq = `+rowAt, index)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.outOfRange(ctx, index)
	}

	return nil
}

func (r *habitRepository) ReadAll(ctx context.Context) ([]*entity.Habit, error) {
	query := `
		SELECT id, name, streak, last_done
		FROM habits
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read habits: %w", err)
	}
	defer rows.Close()

	var habits []*entity.Habit
	for rows.Next() {
		habit := &entity.Habit{Position: len(habits)}
		if err := rows.Scan(&habit.ID, &habit.Name, &habit.Streak, &habit.LastDone); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, habit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}

	return habits, nil
}

func (r *habitRepository) ReadOne(ctx context.Context, index int) (*entity.Habit, error) {
	if err := checkNegative(index); err != nil {
		return nil, err
	}

	query := `SELECT id, name, streak, last_done FROM habits WHERE seq = ` + rowAt

	habit := &entity.Habit{Position: index}
	err := r.pool.QueryRow(ctx, query, index).Scan(&habit.ID, &habit.Name, &habit.Streak, &habit.LastDone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.outOfRange(ctx, index)
		}
		return nil, fmt.Errorf("failed to read habit: %w", err)
	}

	return habit, nil
}

func (r *habitRepository) WriteOne(ctx context.Context, index int, habit *entity.Habit) error {
	if err := checkNegative(index); err != nil {
		return err
	}

	query := `UPDATE habits SET name = $2, streak = $3, last_done = $4 WHERE seq = ` + rowAt

	tag, err := r.pool.Exec(ctx, query, index, habit.Name, habit.Streak, habit.LastDone)
	if err != nil {
		return fmt.Errorf("failed to write habit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.outOfRange(ctx, index)
	}

	return nil
}

func (r *habitRepository) MarkDone(ctx context.Context, index int, boundary time.Time) (*entity.Habit, bool, error) {
	if err := checkNegative(index); err != nil {
		return nil, false, err
	}

	query := `
		UPDATE habits
		SET streak = streak + 1, last_done = $2
		WHERE seq = ` + rowAt + `
			AND (last_done IS NULL OR last_done < $2)
		RETURNING id, name, streak, last_done
	`

	habit := &entity.Habit{Position: index}
	err := r.pool.QueryRow(ctx, query, index, boundary).Scan(&habit.ID, &habit.Name, &habit.Streak, &habit.LastDone)
	if err == nil {
		return habit, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to mark habit done: %w", err)
	}

	// Either already done for this boundary or the index is out of range
	current, err := r.ReadOne(ctx, index)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *habitRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func (r *habitRepository) outOfRange(ctx context.Context, index int) error {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM habits`).Scan(&count); err != nil {
		return fmt.Errorf("%w: %d", entity.ErrIndexOutOfRange, index)
	}
	return fmt.Errorf("%w: %d (table has %d rows)", entity.ErrIndexOutOfRange, index, count)
}

func checkNegative(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", entity.ErrIndexOutOfRange, index)
	}
	return nil
}
