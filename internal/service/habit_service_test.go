package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"daily-habits-tracker/internal/daybound"
	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/domain/service"
	"daily-habits-tracker/internal/infrastructure/memory"

	"github.com/google/uuid"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*entity.HabitEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event *entity.HabitEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []entity.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	svc       service.HabitService
	clock     *fakeClock
	publisher *recordingPublisher
}

func newFixture(t *testing.T, cutoffHour int) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	days, err := daybound.NewCalculator(cutoffHour, time.UTC)
	if err != nil {
		t.Fatalf("NewCalculator failed: %v", err)
	}
	days.WithClock(clock.Now)

	publisher := &recordingPublisher{}
	svc := NewHabitService(memory.NewHabitRepository(), days, memory.NewLocker(), publisher)

	return &fixture{svc: svc, clock: clock, publisher: publisher}
}

func (f *fixture) add(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := f.svc.AddHabit(context.Background(), name); err != nil {
			t.Fatalf("AddHabit(%q) failed: %v", name, err)
		}
	}
}

func (f *fixture) list(t *testing.T) []entity.HabitStatus {
	t.Helper()
	statuses, err := f.svc.ListHabits(context.Background())
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	return statuses
}

func TestAddHabitsListInOrder(t *testing.T) {
	f := newFixture(t, 4)
	names := []string{"read", "walk", "", "read"}
	f.add(t, names...)

	statuses := f.list(t)
	if len(statuses) != len(names) {
		t.Fatalf("got %d habits, want %d", len(statuses), len(names))
	}
	for i, status := range statuses {
		if status.Name != names[i] || status.Index != i {
			t.Errorf("habit %d = %q at %d, want %q", i, status.Name, status.Index, names[i])
		}
		if status.Streak != 0 || status.Done {
			t.Errorf("habit %d = streak %d done %v, want fresh", i, status.Streak, status.Done)
		}
	}
}

func TestMarkHabitAsDoneIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	f.add(t, "read")

	habit, changed, err := f.svc.MarkHabitAsDone(ctx, 0)
	if err != nil {
		t.Fatalf("MarkHabitAsDone failed: %v", err)
	}
	if !changed || habit.Streak != 1 {
		t.Errorf("first mark = (streak %d, %v), want (1, true)", habit.Streak, changed)
	}

	habit, changed, err = f.svc.MarkHabitAsDone(ctx, 0)
	if err != nil {
		t.Fatalf("MarkHabitAsDone failed: %v", err)
	}
	if changed || habit.Streak != 1 {
		t.Errorf("second mark = (streak %d, %v), want (1, false)", habit.Streak, changed)
	}

	if got := f.list(t)[0]; !got.Done || got.Streak != 1 {
		t.Errorf("status = %+v, want done with streak 1", got)
	}
}

func TestMarkHabitAsDoneStoresBoundary(t *testing.T) {
	f := newFixture(t, 4)
	f.add(t, "read")

	habit, _, err := f.svc.MarkHabitAsDone(context.Background(), 0)
	if err != nil {
		t.Fatalf("MarkHabitAsDone failed: %v", err)
	}

	want := time.Date(2024, 3, 10, 4, 0, 0, 0, time.UTC)
	if habit.LastDone == nil || !habit.LastDone.Equal(want) {
		t.Errorf("LastDone = %v, want boundary %v", habit.LastDone, want)
	}
}

func TestDoneFlagFollowsCutoff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	f.add(t, "read")

	// 03:59 still belongs to the logical day that started yesterday at 04:00
	f.clock.Set(time.Date(2024, 3, 10, 3, 59, 0, 0, time.UTC))
	if _, _, err := f.svc.MarkHabitAsDone(ctx, 0); err != nil {
		t.Fatalf("MarkHabitAsDone failed: %v", err)
	}
	if !f.list(t)[0].Done {
		t.Error("habit not done right after marking")
	}

	f.clock.Set(time.Date(2024, 3, 10, 4, 0, 0, 0, time.UTC))
	if f.list(t)[0].Done {
		t.Error("habit still done after the 04:00 boundary passed")
	}

	// Marked at 04:30, done until 04:00 the next day
	f.clock.Set(time.Date(2024, 3, 10, 4, 30, 0, 0, time.UTC))
	habit, changed, err := f.svc.MarkHabitAsDone(ctx, 0)
	if err != nil {
		t.Fatalf("MarkHabitAsDone failed: %v", err)
	}
	if !changed || habit.Streak != 2 {
		t.Errorf("mark in new day = (streak %d, %v), want (2, true)", habit.Streak, changed)
	}

	f.clock.Set(time.Date(2024, 3, 11, 3, 59, 59, 0, time.UTC))
	if !f.list(t)[0].Done {
		t.Error("habit not done before the next boundary")
	}

	f.clock.Set(time.Date(2024, 3, 11, 4, 0, 0, 0, time.UTC))
	if f.list(t)[0].Done {
		t.Error("habit done at the next boundary")
	}
}

func TestDeleteShiftsIndices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	f.add(t, "A", "B", "C")

	if err := f.svc.DeleteHabit(ctx, 0); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}

	habit, _, err := f.svc.MarkHabitAsDone(ctx, 0)
	if err != nil {
		t.Fatalf("MarkHabitAsDone failed: %v", err)
	}
	if habit.Name != "B" {
		t.Errorf("marked %q, want B", habit.Name)
	}

	statuses := f.list(t)
	if len(statuses) != 2 || statuses[0].Name != "B" || !statuses[0].Done || statuses[1].Done {
		t.Errorf("statuses = %+v, want [B done, C pending]", statuses)
	}
}

func TestRenameDeleteMarkScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	f.add(t, "hoge", "fuga", "piyo")

	if err := f.svc.RenameHabit(ctx, 1, "dosukoi"); err != nil {
		t.Fatalf("RenameHabit failed: %v", err)
	}
	if err := f.svc.DeleteHabit(ctx, 0); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	if _, _, err := f.svc.MarkHabitAsDone(ctx, 0); err != nil {
		t.Fatalf("MarkHabitAsDone(0) failed: %v", err)
	}
	if _, _, err := f.svc.MarkHabitAsDone(ctx, 1); err != nil {
		t.Fatalf("MarkHabitAsDone(1) failed: %v", err)
	}

	want := []entity.HabitStatus{
		{Index: 0, Name: "dosukoi", Streak: 1, Done: true},
		{Index: 1, Name: "piyo", Streak: 1, Done: true},
	}

	got := f.list(t)
	if len(got) != len(want) {
		t.Fatalf("got %d habits, want %d", len(got), len(want))
	}
	for i := range want {
		g := got[i]
		g.ID = uuid.Nil
		if g != want[i] {
			t.Errorf("habit %d = %+v, want %+v", i, g, want[i])
		}
	}
}

func TestOutOfRangeIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	f.add(t, "read")

	if err := f.svc.RenameHabit(ctx, 3, "x"); !errors.Is(err, entity.ErrIndexOutOfRange) {
		t.Errorf("RenameHabit error = %v, want ErrIndexOutOfRange", err)
	}
	if err := f.svc.DeleteHabit(ctx, -1); !errors.Is(err, entity.ErrIndexOutOfRange) {
		t.Errorf("DeleteHabit error = %v, want ErrIndexOutOfRange", err)
	}
	if _, _, err := f.svc.MarkHabitAsDone(ctx, 1); !errors.Is(err, entity.ErrIndexOutOfRange) {
		t.Errorf("MarkHabitAsDone error = %v, want ErrIndexOutOfRange", err)
	}

	if got := len(f.list(t)); got != 1 {
		t.Errorf("got %d habits after failed calls, want 1", got)
	}
}

func TestMarkHabitAsDoneCheckedDetectsStaleIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	f.add(t, "A", "B")

	rendered := f.list(t)

	// The table changes between rendering and the click
	if err := f.svc.DeleteHabit(ctx, 0); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}

	if _, _, err := f.svc.MarkHabitAsDoneChecked(ctx, 0, rendered[0].ID); !errors.Is(err, entity.ErrStaleIndex) {
		t.Errorf("error = %v, want ErrStaleIndex", err)
	}
	if _, _, err := f.svc.MarkHabitAsDoneChecked(ctx, 1, rendered[1].ID); !errors.Is(err, entity.ErrIndexOutOfRange) {
		t.Errorf("error = %v, want ErrIndexOutOfRange", err)
	}
	if f.list(t)[0].Done {
		t.Error("stale click marked a habit")
	}

	habit, changed, err := f.svc.MarkHabitAsDoneChecked(ctx, 0, rendered[1].ID)
	if err != nil {
		t.Fatalf("MarkHabitAsDoneChecked failed: %v", err)
	}
	if !changed || habit.Name != "B" {
		t.Errorf("marked %q changed=%v, want B changed", habit.Name, changed)
	}
}

func TestConcurrentMarkDoneCountsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	f.add(t, "read")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := f.svc.MarkHabitAsDone(ctx, 0); err != nil {
				t.Errorf("MarkHabitAsDone failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := f.list(t)[0].Streak; got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
}

func TestEventsPublished(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)

	f.add(t, "read", "walk")
	if err := f.svc.RenameHabit(ctx, 1, "run"); err != nil {
		t.Fatalf("RenameHabit failed: %v", err)
	}
	if _, _, err := f.svc.MarkHabitAsDone(ctx, 1); err != nil {
		t.Fatalf("MarkHabitAsDone failed: %v", err)
	}
	if _, _, err := f.svc.MarkHabitAsDone(ctx, 1); err != nil {
		t.Fatalf("MarkHabitAsDone failed: %v", err)
	}
	if err := f.svc.DeleteHabit(ctx, 0); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}

	want := []entity.EventType{
		entity.EventHabitAdded,
		entity.EventHabitAdded,
		entity.EventHabitRenamed,
		entity.EventHabitDone,
		entity.EventHabitDeleted,
	}
	got := f.publisher.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	done := f.publisher.events[3]
	if done.Name != "run" || done.Streak != 1 || done.Index != 1 {
		t.Errorf("done event = %+v, want run/1 at index 1", done)
	}
	deleted := f.publisher.events[4]
	if deleted.Name != "read" {
		t.Errorf("deleted event name = %q, want read", deleted.Name)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t, 4)
	f.publisher.err = errors.New("broker down")

	if _, err := f.svc.AddHabit(context.Background(), "read"); err != nil {
		t.Errorf("AddHabit failed: %v", err)
	}
}

func TestLockTimeoutFailsOperation(t *testing.T) {
	days, err := daybound.NewCalculator(4, time.UTC)
	if err != nil {
		t.Fatalf("NewCalculator failed: %v", err)
	}
	locker := memory.NewLocker()
	svc := NewHabitService(memory.NewHabitRepository(), days, locker, nil)

	unlock, err := locker.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := svc.AddHabit(ctx, "read"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}
