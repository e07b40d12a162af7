// internal/copytrade/timefilter.go
package copytrade

import "time"

// TimeFilter narrows an upstream query to the window before or after a
// reference buy.
type TimeFilter struct {
	Reference time.Time
	Direction Mode
	Window    time.Duration
}

// FilterFor returns the TimeFilter that covers the candidates of one target buy.
func FilterFor(mode Mode, buy time.Time, window time.Duration) TimeFilter {
	return TimeFilter{Reference: buy, Direction: mode, Window: window}
}

// Range returns the inclusive time range to query.
func (f TimeFilter) Range() (from, to time.Time) {
	if f.Direction == Reverse {
		return f.Reference.Add(-f.Window), f.Reference
	}
	return f.Reference, f.Reference.Add(f.Window)
}

// Contains reports whether ts lies within the filter, using the same bounds
// as Detect.
func (f TimeFilter) Contains(ts time.Time) bool {
	if f.Direction == Reverse {
		d := f.Reference.Sub(ts)
		return d > 0 && d <= f.Window
	}
	d := ts.Sub(f.Reference)
	return d >= 0 && d <= f.Window
}
