package kafka

import (
	"testing"
	"time"

	"daily-habits-tracker/internal/domain/entity"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEncodeEvent(t *testing.T) {
	habit := &entity.Habit{ID: uuid.New(), Position: 2, Name: "read", Streak: 5}
	event := entity.NewHabitEvent(entity.EventHabitDone, habit)
	event.OccurredAt = time.Date(2024, 3, 10, 4, 0, 0, 0, time.UTC)

	data, err := encodeEvent(event)
	if err != nil {
		t.Fatalf("encodeEvent failed: %v", err)
	}

	var decoded structpb.Struct
	if err := proto.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}

	fields := decoded.AsMap()
	if fields["event_type"] != "habit.done" {
		t.Errorf("event_type = %v, want habit.done", fields["event_type"])
	}
	if fields["habit_id"] != habit.ID.String() {
		t.Errorf("habit_id = %v, want %s", fields["habit_id"], habit.ID)
	}
	if fields["name"] != "read" {
		t.Errorf("name = %v, want read", fields["name"])
	}
	// Struct numbers decode as float64
	if fields["streak"] != float64(5) || fields["index"] != float64(2) {
		t.Errorf("streak/index = %v/%v, want 5/2", fields["streak"], fields["index"])
	}
	if fields["occurred_at"] != "2024-03-10T04:00:00Z" {
		t.Errorf("occurred_at = %v", fields["occurred_at"])
	}
}

func TestEventKey(t *testing.T) {
	habit := &entity.Habit{ID: uuid.New()}

	done := entity.NewHabitEvent(entity.EventHabitDone, habit)
	if got := string(eventKey(done)); got != habit.ID.String() {
		t.Errorf("key = %q, want habit id", got)
	}

	summary := entity.NewHabitEvent(entity.EventSummarySent, nil)
	if got := string(eventKey(summary)); got != summary.ID.String() {
		t.Errorf("key = %q, want event id", got)
	}
}
