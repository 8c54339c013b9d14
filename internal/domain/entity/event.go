package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of habit event
type EventType string

const (
	EventHabitAdded     EventType = "habit.added"
	EventHabitRenamed   EventType = "habit.renamed"
	EventHabitDeleted   EventType = "habit.deleted"
	EventHabitDone      EventType = "habit.done"
	EventSummarySent    EventType = "summary.sent"
	EventSummarySkipped EventType = "summary.skipped"
)

// HabitEvent is published after a successful mutation or notifier run
type HabitEvent struct {
	ID         uuid.UUID
	Type       EventType
	HabitID    uuid.UUID
	Index      int
	Name       string
	Streak     int32
	Pending    int
	OccurredAt time.Time
}

// NewHabitEvent creates an event describing the given habit
func NewHabitEvent(eventType EventType, habit *Habit) *HabitEvent {
	event := &HabitEvent{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}

	if habit != nil {
		event.HabitID = habit.ID
		event.Index = habit.Position
		event.Name = habit.Name
		event.Streak = habit.Streak
	}

	return event
}

// NotifyOutcome represents the terminal state of a notifier run
type NotifyOutcome string

const (
	NotifyOutcomeSent    NotifyOutcome = "sent"
	NotifyOutcomeSkipped NotifyOutcome = "skipped"
)
