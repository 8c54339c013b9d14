package daybound

import (
	"testing"
	"time"
)

func TestBoundary(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name   string
		now    time.Time
		cutoff int
		want   time.Time
	}{
		{
			name:   "after cutoff is today",
			now:    time.Date(2024, 3, 10, 12, 30, 0, 0, loc),
			cutoff: 4,
			want:   time.Date(2024, 3, 10, 4, 0, 0, 0, loc),
		},
		{
			name:   "exactly at cutoff is today",
			now:    time.Date(2024, 3, 10, 4, 0, 0, 0, loc),
			cutoff: 4,
			want:   time.Date(2024, 3, 10, 4, 0, 0, 0, loc),
		},
		{
			name:   "before cutoff is yesterday",
			now:    time.Date(2024, 3, 10, 3, 59, 59, 0, loc),
			cutoff: 4,
			want:   time.Date(2024, 3, 9, 4, 0, 0, 0, loc),
		},
		{
			name:   "first of month before cutoff",
			now:    time.Date(2024, 3, 1, 1, 0, 0, 0, loc),
			cutoff: 4,
			want:   time.Date(2024, 2, 29, 4, 0, 0, 0, loc),
		},
		{
			name:   "midnight cutoff",
			now:    time.Date(2024, 3, 10, 0, 0, 1, 0, loc),
			cutoff: 0,
			want:   time.Date(2024, 3, 10, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Boundary(tt.now, tt.cutoff, loc)
			if !got.Equal(tt.want) {
				t.Errorf("Boundary(%v, %d) = %v, want %v", tt.now, tt.cutoff, got, tt.want)
			}
		})
	}
}

func TestBoundaryUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	// 20:00 UTC on the 9th is 05:00 JST on the 10th
	now := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)

	got := Boundary(now, 4, tokyo)
	want := time.Date(2024, 3, 10, 4, 0, 0, 0, tokyo)
	if !got.Equal(want) {
		t.Errorf("Boundary() = %v, want %v", got, want)
	}
}

func TestCalculatorCurrentBoundaryIsFresh(t *testing.T) {
	current := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)

	calc, err := NewCalculator(4, time.UTC)
	if err != nil {
		t.Fatalf("NewCalculator failed: %v", err)
	}
	calc.WithClock(func() time.Time { return current })

	first := calc.CurrentBoundary()

	current = current.Add(6 * time.Hour) // 05:00 next day
	second := calc.CurrentBoundary()

	if !second.After(first) {
		t.Errorf("boundary did not advance: first %v, second %v", first, second)
	}
	if want := time.Date(2024, 3, 11, 4, 0, 0, 0, time.UTC); !second.Equal(want) {
		t.Errorf("second boundary = %v, want %v", second, want)
	}
}

func TestNewCalculatorRejectsInvalidCutoff(t *testing.T) {
	for _, hour := range []int{-1, 24, 100} {
		if _, err := NewCalculator(hour, time.UTC); err == nil {
			t.Errorf("NewCalculator(%d) succeeded, want error", hour)
		}
	}
}
