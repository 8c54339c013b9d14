package entity

import (
	"time"

	"github.com/google/uuid"
)

// Habit represents one row of the habits table
type Habit struct {
	ID uuid.UUID

	// Position is the row's index in store order. It is the only identity
	// callers use; deleting a row shifts every later position down by one.
	Position int

	Name   string
	Streak int32

	// LastDone is nil when the habit was never marked done
	LastDone *time.Time
}

// IsDoneFor reports whether the habit was completed within the logical day
// that starts at boundary
func (h *Habit) IsDoneFor(boundary time.Time) bool {
	return h.LastDone != nil && !h.LastDone.Before(boundary)
}

// Status derives the read-time status of the habit for the given boundary
func (h *Habit) Status(boundary time.Time) HabitStatus {
	return HabitStatus{
		ID:     h.ID,
		Index:  h.Position,
		Name:   h.Name,
		Streak: h.Streak,
		Done:   h.IsDoneFor(boundary),
	}
}

// HabitStatus is computed at read time and never stored
type HabitStatus struct {
	ID     uuid.UUID
	Index  int
	Name   string
	Streak int32
	Done   bool
}
