package entities

import (
	"time"
)

// Interval is a half-open time range [Start, End) reserved against one
// veterinarian's calendar
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds the interval covering start plus duration in minutes
func NewInterval(start time.Time, durationMinutes int) Interval {
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// Overlaps reports whether two half-open intervals conflict:
// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1.
// Zero-length intervals never overlap anything.
func (i Interval) Overlaps(other Interval) bool {
	if !i.Valid() || !other.Valid() {
		return false
	}
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains reports whether t falls inside the interval
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Valid reports whether the interval has positive length
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Duration returns the interval length
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
