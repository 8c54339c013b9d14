// Package memory provides in-process implementations of the habits store
// and lock, for tests and single-process runs without a database.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/domain/repository"

	"github.com/google/uuid"
)

type habitRepository struct {
	mu   sync.RWMutex
	rows []entity.Habit
}

// NewHabitRepository creates an empty in-memory habit repository
func NewHabitRepository() repository.HabitRepository {
	return &habitRepository{}
}

func (r *habitRepository) Append(ctx context.Context, name string) (*entity.Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows = append(r.rows, entity.Habit{
		ID:   uuid.New(),
		Name: name,
	})

	return r.copyAt(len(r.rows) - 1), nil
}

func (r *habitRepository) SetName(ctx context.Context, index int, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(index); err != nil {
		return err
	}

	r.rows[index].Name = name
	return nil
}

func (r *habitRepository) DeleteRow(ctx context.Context, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(index); err != nil {
		return err
	}

	r.rows = append(r.rows[:index], r.rows[index+1:]...)
	return nil
}

func (r *habitRepository) ReadAll(ctx context.Context) ([]*entity.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := make([]*entity.Habit, 0, len(r.rows))
	for i := range r.rows {
		habits = append(habits, r.copyAt(i))
	}

	return habits, nil
}

func (r *habitRepository) ReadOne(ctx context.Context, index int) (*entity.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.checkIndex(index); err != nil {
		return nil, err
	}

	return r.copyAt(index), nil
}

func (r *habitRepository) WriteOne(ctx context.Context, index int, habit *entity.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(index); err != nil {
		return err
	}

	row := &r.rows[index]
	row.Name = habit.Name
	row.Streak = habit.Streak
	row.LastDone = copyTime(habit.LastDone)

	return nil
}

func (r *habitRepository) MarkDone(ctx context.Context, index int, boundary time.Time) (*entity.Habit, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(index); err != nil {
		return nil, false, err
	}

	row := &r.rows[index]
	if row.IsDoneFor(boundary) {
		return r.copyAt(index), false, nil
	}

	row.Streak++
	row.LastDone = copyTime(&boundary)

	return r.copyAt(index), true, nil
}

func (r *habitRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *habitRepository) checkIndex(index int) error {
	if index < 0 || index >= len(r.rows) {
		return fmt.Errorf("%w: %d (table has %d rows)", entity.ErrIndexOutOfRange, index, len(r.rows))
	}
	return nil
}

func (r *habitRepository) copyAt(index int) *entity.Habit {
	h := r.rows[index]
	h.Position = index
	h.LastDone = copyTime(h.LastDone)
	return &h
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
