package repository

import (
	"context"
	"time"

	"daily-habits-tracker/internal/domain/entity"
)

// HabitRepository defines the interface for the habits table.
// Rows are addressed by position in insertion order; every index outside
// [0, len) fails with entity.ErrIndexOutOfRange.
type HabitRepository interface {
	// Append inserts a new row [name, 0, never] at the end of the table
	Append(ctx context.Context, name string) (*entity.Habit, error)

	// SetName overwrites the name of the row at index
	SetName(ctx context.Context, index int, name string) error

	// DeleteRow removes the row at index, shifting later rows up
	DeleteRow(ctx context.Context, index int) error

	// ReadAll returns every row in store order
	ReadAll(ctx context.Context) ([]*entity.Habit, error)

	// ReadOne returns the row at index
	ReadOne(ctx context.Context, index int) (*entity.Habit, error)

	// WriteOne overwrites name, streak and last done of the row at index
	WriteOne(ctx context.Context, index int, habit *entity.Habit) error

	// MarkDone increments the streak and sets last done to boundary in a
	// single atomic step, but only when the row was last done strictly
	// before boundary. It returns the row as stored after the call and
	// whether it changed.
	MarkDone(ctx context.Context, index int, boundary time.Time) (*entity.Habit, bool, error)

	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}
