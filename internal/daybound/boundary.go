// Package daybound computes logical day boundaries. A logical day starts at
// a configured cutoff hour instead of midnight, so work done shortly after
// midnight still counts for the previous day.
package daybound

import (
	"fmt"
	"time"
)

// Calculator returns the start of the current logical day
type Calculator struct {
	cutoffHour int
	location   *time.Location
	now        func() time.Time
}

// NewCalculator creates a calculator for the given cutoff hour (0-23)
func NewCalculator(cutoffHour int, location *time.Location) (*Calculator, error) {
	if err := ValidateCutoffHour(cutoffHour); err != nil {
		return nil, err
	}

	if location == nil {
		location = time.Local
	}

	return &Calculator{
		cutoffHour: cutoffHour,
		location:   location,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source, used by tests
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// CutoffHour returns the configured cutoff hour
func (c *Calculator) CutoffHour() int {
	return c.cutoffHour
}

// Location returns the time zone boundaries are computed in
func (c *Calculator) Location() *time.Location {
	return c.location
}

// CurrentBoundary is computed fresh on every call
func (c *Calculator) CurrentBoundary() time.Time {
	return Boundary(c.now(), c.cutoffHour, c.location)
}

// Boundary returns the latest instant not after now that falls on
// cutoffHour:00:00.000 in loc
func Boundary(now time.Time, cutoffHour int, loc *time.Location) time.Time {
	local := now.In(loc)

	boundary := time.Date(local.Year(), local.Month(), local.Day(), cutoffHour, 0, 0, 0, loc)
	if local.Before(boundary) {
		// Still yesterday's logical day
		boundary = time.Date(local.Year(), local.Month(), local.Day()-1, cutoffHour, 0, 0, 0, loc)
	}

	return boundary
}

// ValidateCutoffHour reports whether hour can be used as a cutoff
func ValidateCutoffHour(hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("cutoff hour must be between 0 and 23, got %d", hour)
	}
	return nil
}
