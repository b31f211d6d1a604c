package grid

import (
	"sync/atomic"
	"time"
)

// DefaultDebounce is how long the search input must be idle before the
// filter is applied.
const DefaultDebounce = 200 * time.Millisecond

// Debouncer issues generation tokens. Every keystroke takes a new token and
// schedules a check after Delay; only the check holding the latest token
// applies the filter.
type Debouncer struct {
	Delay time.Duration
	gen   atomic.Uint64
}

// NewDebouncer returns a Debouncer; a non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{Delay: delay}
}

// Bump invalidates pending checks and returns the new token.
func (d *Debouncer) Bump() uint64 {
	return d.gen.Add(1)
}

// Current reports whether token is still the latest.
func (d *Debouncer) Current(token uint64) bool {
	return d.gen.Load() == token
}
