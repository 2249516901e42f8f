package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(hour, min int) time.Time {
	return time.Date(2025, 6, 1, hour, min, 0, 0, time.UTC)
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a        Interval
		b        Interval
		overlaps bool
	}{
		{
			name:     "identical intervals",
			a:        Interval{Start: ts(10, 0), End: ts(10, 30)},
			b:        Interval{Start: ts(10, 0), End: ts(10, 30)},
			overlaps: true,
		},
		{
			name:     "partial overlap",
			a:        Interval{Start: ts(10, 0), End: ts(10, 30)},
			b:        Interval{Start: ts(10, 15), End: ts(10, 45)},
			overlaps: true,
		},
		{
			name:     "contained interval",
			a:        Interval{Start: ts(10, 0), End: ts(11, 0)},
			b:        Interval{Start: ts(10, 15), End: ts(10, 30)},
			overlaps: true,
		},
		{
			name:     "back to back does not overlap",
			a:        Interval{Start: ts(10, 0), End: ts(10, 30)},
			b:        Interval{Start: ts(10, 30), End: ts(11, 0)},
			overlaps: false,
		},
		{
			name:     "disjoint",
			a:        Interval{Start: ts(10, 0), End: ts(10, 30)},
			b:        Interval{Start: ts(11, 0), End: ts(11, 30)},
			overlaps: false,
		},
		{
			name:     "zero length never overlaps",
			a:        Interval{Start: ts(10, 0), End: ts(10, 0)},
			b:        Interval{Start: ts(9, 0), End: ts(11, 0)},
			overlaps: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, tt.a.Overlaps(tt.b))
			// Overlap is symmetric
			assert.Equal(t, tt.overlaps, tt.b.Overlaps(tt.a))
		})
	}
}

func TestNewInterval(t *testing.T) {
	iv := NewInterval(ts(10, 0), 30)
	assert.Equal(t, ts(10, 0), iv.Start)
	assert.Equal(t, ts(10, 30), iv.End)
	assert.Equal(t, 30*time.Minute, iv.Duration())
	assert.True(t, iv.Valid())
}

func TestIntervalContains(t *testing.T) {
	iv := NewInterval(ts(10, 0), 30)
	assert.True(t, iv.Contains(ts(10, 0)), "start is inside a half-open interval")
	assert.True(t, iv.Contains(ts(10, 29)))
	assert.False(t, iv.Contains(ts(10, 30)), "end is outside a half-open interval")
	assert.False(t, iv.Contains(ts(9, 59)))
}
