package service

import (
	"context"
	"fmt"

	"daily-habits-tracker/internal/daybound"
	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/domain/repository"
	"daily-habits-tracker/internal/domain/service"
	"daily-habits-tracker/internal/logger"

	"github.com/google/uuid"
)

type habitService struct {
	habitRepo repository.HabitRepository
	days      *daybound.Calculator
	locker    service.Locker
	publisher service.EventPublisher
}

// NewHabitService creates a new habit service.
// A nil locker disables locking and a nil publisher drops events.
func NewHabitService(
	habitRepo repository.HabitRepository,
	days *daybound.Calculator,
	locker service.Locker,
	publisher service.EventPublisher,
) service.HabitService {
	if locker == nil {
		locker = noLock{}
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}

	return &habitService{
		habitRepo: habitRepo,
		days:      days,
		locker:    locker,
		publisher: publisher,
	}
}

func (s *habitService) AddHabit(ctx context.Context, name string) (*entity.Habit, error) {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to lock habits: %w", err)
	}
	defer unlock()

	habit, err := s.habitRepo.Append(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to add habit: %w", err)
	}

	s.publish(ctx, entity.NewHabitEvent(entity.EventHabitAdded, habit))
	return habit, nil
}

func (s *habitService) RenameHabit(ctx context.Context, index int, newName string) error {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to lock habits: %w", err)
	}
	defer unlock()

	if err := s.habitRepo.SetName(ctx, index, newName); err != nil {
		return fmt.Errorf("failed to rename habit: %w", err)
	}

	event := entity.NewHabitEvent(entity.EventHabitRenamed, nil)
	event.Index = index
	event.Name = newName
	s.publish(ctx, event)

	return nil
}

func (s *habitService) DeleteHabit(ctx context.Context, index int) error {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to lock habits: %w", err)
	}
	defer unlock()

	habit, err := s.habitRepo.ReadOne(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	if err := s.habitRepo.DeleteRow(ctx, index); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	s.publish(ctx, entity.NewHabitEvent(entity.EventHabitDeleted, habit))
	return nil
}

func (s *habitService) MarkHabitAsDone(ctx context.Context, index int) (*entity.Habit, bool, error) {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock habits: %w", err)
	}
	defer unlock()

	return s.markDone(ctx, index)
}

func (s *habitService) MarkHabitAsDoneChecked(ctx context.Context, index int, expectedID uuid.UUID) (*entity.Habit, bool, error) {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock habits: %w", err)
	}
	defer unlock()

	current, err := s.habitRepo.ReadOne(ctx, index)
	if err != nil {
		return nil, false, fmt.Errorf("failed to mark habit done: %w", err)
	}
	if current.ID != expectedID {
		return nil, false, fmt.Errorf("failed to mark habit done: %w: index %d now holds %q", entity.ErrStaleIndex, index, current.Name)
	}

	return s.markDone(ctx, index)
}

// markDone must be called with the lock held
func (s *habitService) markDone(ctx context.Context, index int) (*entity.Habit, bool, error) {
	boundary := s.days.CurrentBoundary()

	habit, changed, err := s.habitRepo.MarkDone(ctx, index, boundary)
	if err != nil {
		return nil, false, fmt.Errorf("failed to mark habit done: %w", err)
	}

	if changed {
		s.publish(ctx, entity.NewHabitEvent(entity.EventHabitDone, habit))
	}

	return habit, changed, nil
}

func (s *habitService) ListHabits(ctx context.Context) ([]entity.HabitStatus, error) {
	habits, err := s.habitRepo.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}

	boundary := s.days.CurrentBoundary()

	statuses := make([]entity.HabitStatus, 0, len(habits))
	for _, habit := range habits {
		statuses = append(statuses, habit.Status(boundary))
	}

	return statuses, nil
}

func (s *habitService) publish(ctx context.Context, event *entity.HabitEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish habit event", "type", event.Type, "error", err)
	}
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event *entity.HabitEvent) error {
	return nil
}

type noLock struct{}

func (noLock) Lock(ctx context.Context) (func(), error) {
	return func() {}, nil
}
