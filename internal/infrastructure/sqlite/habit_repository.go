// Package sqlite stores habits in a single SQLite table using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/domain/repository"
	"daily-habits-tracker/internal/logger"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS habits (
		seq       INTEGER PRIMARY KEY AUTOINCREMENT,
		id        TEXT NOT NULL UNIQUE,
		name      TEXT NOT NULL,
		streak    INTEGER NOT NULL DEFAULT 0,
		last_done TEXT
	)
`

const rowAt = `(SELECT seq FROM habits ORDER BY seq LIMIT 1 OFFSET ?)`

// HabitRepository is a repository.HabitRepository backed by SQLite
type HabitRepository struct {
	db *sql.DB
}

var _ repository.HabitRepository = (*HabitRepository)(nil)

// NewHabitRepository opens or creates the database at path and ensures the
// habits table exists. Use ":memory:" for a throwaway database.
func NewHabitRepository(ctx context.Context, path string) (*HabitRepository, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create habits table: %w", err)
	}

	logger.Debug("sqlite habit store ready", "path", path)
	return &HabitRepository{db: db}, nil
}

// Close releases the database connection
func (r *HabitRepository) Close() error {
	return r.db.Close()
}

func (r *HabitRepository) Append(ctx context.Context, name string) (*entity.Habit, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	habit := &entity.Habit{
		ID:   uuid.New(),
		Name: name,
	}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM habits`).Scan(&habit.Position); err != nil {
		return nil, fmt.Errorf("failed to count habits: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO habits (id, name, streak) VALUES (?, ?, 0)`,
		habit.ID.String(), habit.Name,
	); err != nil {
		return nil, fmt.Errorf("failed to append habit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit habit: %w", err)
	}

	return habit, nil
}

func (r *HabitRepository) SetName(ctx context.Context, index int, name string) error {
	if err := checkNegative(index); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE habits SET name = ? WHERE seq = `+rowAt, name, index)
	if err != nil {
		return fmt.Errorf("failed to rename habit: %w", err)
	}

	return r.requireRow(ctx, res, index)
}

func (r *HabitRepository) DeleteRow(ctx context.Context, index int) error {
	if err := checkNegative(index); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE seq = `+rowAt, index)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	return r.requireRow(ctx, res, index)
}

func (r *HabitRepository) ReadAll(ctx context.Context) ([]*entity.Habit, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, streak, last_done FROM habits ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to read habits: %w", err)
	}
	defer rows.Close()

	var habits []*entity.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habit.Position = len(habits)
		habits = append(habits, habit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}

	return habits, nil
}

func (r *HabitRepository) ReadOne(ctx context.Context, index int) (*entity.Habit, error) {
	return readOne(ctx, r.db, index)
}

func (r *HabitRepository) WriteOne(ctx context.Context, index int, habit *entity.Habit) error {
	if err := checkNegative(index); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE habits SET name = ?, streak = ?, last_done = ? WHERE seq = `+rowAt,
		habit.Name, habit.Streak, formatTime(habit.LastDone), index,
	)
	if err != nil {
		return fmt.Errorf("failed to write habit: %w", err)
	}

	return r.requireRow(ctx, res, index)
}

func (r *HabitRepository) MarkDone(ctx context.Context, index int, boundary time.Time) (*entity.Habit, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	habit, err := readOne(ctx, tx, index)
	if err != nil {
		return nil, false, err
	}

	if habit.IsDoneFor(boundary) {
		return habit, false, nil
	}

	habit.Streak++
	done := boundary
	habit.LastDone = &done

	if _, err := tx.ExecContext(ctx,
		`UPDATE habits SET streak = ?, last_done = ? WHERE id = ?`,
		habit.Streak, formatTime(habit.LastDone), habit.ID.String(),
	); err != nil {
		return nil, false, fmt.Errorf("failed to mark habit done: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit habit: %w", err)
	}

	return habit, true, nil
}

func (r *HabitRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func readOne(ctx context.Context, q queryer, index int) (*entity.Habit, error) {
	if err := checkNegative(index); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `SELECT id, name, streak, last_done FROM habits WHERE seq = `+rowAt, index)

	habit, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outOfRange(ctx, q, index)
		}
		return nil, err
	}
	habit.Position = index

	return habit, nil
}

func scanHabit(s scanner) (*entity.Habit, error) {
	var (
		id       string
		lastDone sql.NullString
		habit    entity.Habit
	)

	if err := s.Scan(&id, &habit.Name, &habit.Streak, &lastDone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan habit: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse habit id %q: %w", id, err)
	}
	habit.ID = parsed
	habit.LastDone = parseTime(lastDone)

	return &habit, nil
}

func (r *HabitRepository) requireRow(ctx context.Context, res sql.Result, index int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return outOfRange(ctx, r.db, index)
	}
	return nil
}

func outOfRange(ctx context.Context, q queryer, index int) error {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM habits`).Scan(&count); err != nil {
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

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime treats empty and unparseable values as never done
func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		logger.Warn("ignoring unparseable last_done", "value", s.String, "error", err)
		return nil
	}
	return &t
}
