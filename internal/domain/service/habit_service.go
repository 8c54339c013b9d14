package service

import (
	"context"

	"daily-habits-tracker/internal/domain/entity"

	"github.com/google/uuid"
)

// HabitService defines the interface for habit business logic
type HabitService interface {
	// AddHabit appends a habit with streak 0 that was never done
	AddHabit(ctx context.Context, name string) (*entity.Habit, error)

	// RenameHabit changes the name of the habit at index
	RenameHabit(ctx context.Context, index int, newName string) error

	// DeleteHabit removes the habit at index
	DeleteHabit(ctx context.Context, index int) error

	// MarkHabitAsDone counts the habit once for the current logical day.
	// Repeated calls within the same logical day are no-ops.
	MarkHabitAsDone(ctx context.Context, index int) (*entity.Habit, bool, error)

	// MarkHabitAsDoneChecked is MarkHabitAsDone that first verifies the
	// habit at index still has expectedID
	MarkHabitAsDoneChecked(ctx context.Context, index int, expectedID uuid.UUID) (*entity.Habit, bool, error)

	// ListHabits returns every habit with its done flag, in store order
	ListHabits(ctx context.Context) ([]entity.HabitStatus, error)
}

// Notifier posts the daily summary of habits
type Notifier interface {
	// DoTimer loads all habits and posts the summary unless every habit is done
	DoTimer(ctx context.Context) (entity.NotifyOutcome, error)
}
