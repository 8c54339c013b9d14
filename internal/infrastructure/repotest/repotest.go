// Package repotest holds the behavioural tests every HabitRepository
// implementation must pass.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/domain/repository"

	"github.com/google/uuid"
)

// Factory returns an empty repository
type Factory func(t *testing.T) repository.HabitRepository

// Run executes the repository contract against repositories built by newRepo
func Run(t *testing.T, newRepo Factory) {
	t.Run("EmptyTable", func(t *testing.T) { testEmptyTable(t, newRepo(t)) })
	t.Run("AppendPreservesOrder", func(t *testing.T) { testAppendPreservesOrder(t, newRepo(t)) })
	t.Run("SetName", func(t *testing.T) { testSetName(t, newRepo(t)) })
	t.Run("DeleteRowShiftsIndices", func(t *testing.T) { testDeleteRowShiftsIndices(t, newRepo(t)) })
	t.Run("WriteOneReadOne", func(t *testing.T) { testWriteOneReadOne(t, newRepo(t)) })
	t.Run("MarkDoneOncePerBoundary", func(t *testing.T) { testMarkDoneOncePerBoundary(t, newRepo(t)) })
	t.Run("IndexOutOfRange", func(t *testing.T) { testIndexOutOfRange(t, newRepo(t)) })
}

func seed(t *testing.T, repo repository.HabitRepository, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := repo.Append(context.Background(), name); err != nil {
			t.Fatalf("Append(%q) failed: %v", name, err)
		}
	}
}

func names(t *testing.T, repo repository.HabitRepository) []string {
	t.Helper()
	habits, err := repo.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	out := make([]string, len(habits))
	for i, h := range habits {
		out[i] = h.Name
	}
	return out
}

func equalNames(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func testEmptyTable(t *testing.T, repo repository.HabitRepository) {
	habits, err := repo.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("expected empty table, got %d rows", len(habits))
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func testAppendPreservesOrder(t *testing.T, repo repository.HabitRepository) {
	ctx := context.Background()

	created, err := repo.Append(ctx, "hoge")
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if created.Position != 0 || created.Streak != 0 || created.LastDone != nil {
		t.Errorf("Append returned %+v, want position 0, streak 0, never done", created)
	}
	if created.ID == uuid.Nil {
		t.Error("Append returned a nil ID")
	}

	seed(t, repo, "fuga", "piyo")

	habits, err := repo.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	want := []string{"hoge", "fuga", "piyo"}
	seen := make(map[uuid.UUID]bool)
	for i, h := range habits {
		if h.Name != want[i] {
			t.Errorf("row %d name = %q, want %q", i, h.Name, want[i])
		}
		if h.Position != i {
			t.Errorf("row %d position = %d", i, h.Position)
		}
		if h.Streak != 0 || h.LastDone != nil {
			t.Errorf("row %d = %+v, want fresh habit", i, h)
		}
		if seen[h.ID] {
			t.Errorf("row %d reuses ID %s", i, h.ID)
		}
		seen[h.ID] = true
	}
	if len(habits) != len(want) {
		t.Fatalf("got %d rows, want %d", len(habits), len(want))
	}
}

func testSetName(t *testing.T, repo repository.HabitRepository) {
	ctx := context.Background()
	seed(t, repo, "hoge", "fuga")

	if err := repo.SetName(ctx, 1, "dosukoi"); err != nil {
		t.Fatalf("SetName failed: %v", err)
	}

	if got, want := names(t, repo), []string{"hoge", "dosukoi"}; !equalNames(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func testDeleteRowShiftsIndices(t *testing.T, repo repository.HabitRepository) {
	ctx := context.Background()
	seed(t, repo, "A", "B", "C")

	if err := repo.DeleteRow(ctx, 0); err != nil {
		t.Fatalf("DeleteRow failed: %v", err)
	}

	first, err := repo.ReadOne(ctx, 0)
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}
	if first.Name != "B" || first.Position != 0 {
		t.Errorf("row 0 = %q at %d, want B at 0", first.Name, first.Position)
	}

	seed(t, repo, "D")
	if got, want := names(t, repo), []string{"B", "C", "D"}; !equalNames(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func testWriteOneReadOne(t *testing.T, repo repository.HabitRepository) {
	ctx := context.Background()
	seed(t, repo, "read", "walk")

	original, err := repo.ReadOne(ctx, 1)
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}

	lastDone := time.Date(2024, 3, 10, 4, 0, 0, 0, time.UTC)
	row := &entity.Habit{Name: "run", Streak: 7, LastDone: &lastDone}
	if err := repo.WriteOne(ctx, 1, row); err != nil {
		t.Fatalf("WriteOne failed: %v", err)
	}

	got, err := repo.ReadOne(ctx, 1)
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}
	if got.Name != "run" || got.Streak != 7 {
		t.Errorf("ReadOne = %+v, want run/7", got)
	}
	if got.LastDone == nil || !got.LastDone.Equal(lastDone) {
		t.Errorf("LastDone = %v, want %v", got.LastDone, lastDone)
	}
	if got.ID != original.ID {
		t.Errorf("WriteOne changed ID from %s to %s", original.ID, got.ID)
	}

	row.LastDone = nil
	if err := repo.WriteOne(ctx, 1, row); err != nil {
		t.Fatalf("WriteOne failed: %v", err)
	}
	got, err = repo.ReadOne(ctx, 1)
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}
	if got.LastDone != nil {
		t.Errorf("LastDone = %v, want never done", got.LastDone)
	}
}

func testMarkDoneOncePerBoundary(t *testing.T, repo repository.HabitRepository) {
	ctx := context.Background()
	seed(t, repo, "read")

	boundary := time.Date(2024, 3, 10, 4, 0, 0, 0, time.UTC)

	habit, changed, err := repo.MarkDone(ctx, 0, boundary)
	if err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if !changed || habit.Streak != 1 {
		t.Fatalf("first MarkDone = (%+v, %v), want streak 1 changed", habit, changed)
	}
	if habit.LastDone == nil || !habit.LastDone.Equal(boundary) {
		t.Errorf("LastDone = %v, want %v", habit.LastDone, boundary)
	}

	habit, changed, err = repo.MarkDone(ctx, 0, boundary)
	if err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if changed || habit.Streak != 1 {
		t.Errorf("second MarkDone = (streak %d, %v), want streak 1 unchanged", habit.Streak, changed)
	}

	next := boundary.Add(24 * time.Hour)
	habit, changed, err = repo.MarkDone(ctx, 0, next)
	if err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if !changed || habit.Streak != 2 {
		t.Errorf("next-day MarkDone = (streak %d, %v), want streak 2 changed", habit.Streak, changed)
	}
}

func testIndexOutOfRange(t *testing.T, repo repository.HabitRepository) {
	ctx := context.Background()
	seed(t, repo, "only")

	checks := map[string]func(index int) error{
		"SetName":   func(i int) error { return repo.SetName(ctx, i, "x") },
		"DeleteRow": func(i int) error { return repo.DeleteRow(ctx, i) },
		"ReadOne": func(i int) error {
			_, err := repo.ReadOne(ctx, i)
			return err
		},
		"WriteOne": func(i int) error { return repo.WriteOne(ctx, i, &entity.Habit{Name: "x"}) },
		"MarkDone": func(i int) error {
			_, _, err := repo.MarkDone(ctx, i, time.Now())
			return err
		},
	}

	for name, call := range checks {
		for _, index := range []int{-1, 1, 5} {
			if err := call(index); !errors.Is(err, entity.ErrIndexOutOfRange) {
				t.Errorf("%s(%d) error = %v, want ErrIndexOutOfRange", name, index, err)
			}
		}
	}

	// No row may have been created by an out-of-range write
	if got := names(t, repo); !equalNames(got, []string{"only"}) {
		t.Errorf("names = %v, want [only]", got)
	}
}
