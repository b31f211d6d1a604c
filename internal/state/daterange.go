package state

import (
	"time"
)

// DefaultRangeDays is how far back a new date range reaches.
const DefaultRangeDays = 7

// DateRange is an inclusive range of calendar days used by the list screens.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// LastDays returns the range ending at now and starting days earlier.
func LastDays(now time.Time, days int) DateRange {
	return DateRange{Start: now.AddDate(0, 0, -days), End: now}
}

// Shift moves both ends by days.
func (r DateRange) Shift(days int) DateRange {
	return DateRange{Start: r.Start.AddDate(0, 0, days), End: r.End.AddDate(0, 0, days)}
}

// Valid reports whether the range does not end before it starts.
func (r DateRange) Valid() bool {
	return !r.End.Before(r.Start)
}

// DateRangeStore is the date range shared by one screen and its children.
type DateRangeStore struct {
	*Store[DateRange]
}

// NewDateRangeStore returns a store covering the last DefaultRangeDays days.
func NewDateRangeStore(now time.Time) *DateRangeStore {
	return &DateRangeStore{Store: NewStore(LastDays(now, DefaultRangeDays), nil)}
}

// SetStart moves the start day, keeping the end.
func (s *DateRangeStore) SetStart(t time.Time) {
	s.Update(func(r DateRange) DateRange {
		r.Start = t
		return r
	})
}

// SetEnd moves the end day, keeping the start.
func (s *DateRangeStore) SetEnd(t time.Time) {
	s.Update(func(r DateRange) DateRange {
		r.End = t
		return r
	})
}
