package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h float64) time.Time {
	return t0.Add(time.Duration(h * float64(time.Hour)))
}

func span(fromH, toH float64) Interval {
	return Interval{Start: at(fromH), End: at(toH)}
}

func TestOverlaps(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     Interval
		expected bool
	}{
		{name: "touching endpoints", a: span(0, 10), b: span(10, 20), expected: false},
		{name: "partial overlap", a: span(0, 10), b: span(5, 15), expected: true},
		{name: "contained", a: span(0, 10), b: span(2, 3), expected: true},
		{name: "identical", a: span(1, 2), b: span(1, 2), expected: true},
		{name: "disjoint", a: span(0, 1), b: span(3, 4), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Overlaps(tc.a, tc.b))
			assert.Equal(t, tc.expected, Overlaps(tc.b, tc.a), "overlap must be symmetric")
		})
	}
}

func TestClip(t *testing.T) {
	window := span(10, 20)

	clipped, ok := Clip(span(5, 15), window)
	assert.True(t, ok)
	assert.Equal(t, span(10, 15), clipped)
	assert.Equal(t, 5*time.Hour, clipped.Duration())

	clipped, ok = Clip(span(12, 14), window)
	assert.True(t, ok)
	assert.Equal(t, span(12, 14), clipped)

	_, ok = Clip(span(20, 25), window)
	assert.False(t, ok, "touching the window end leaves nothing")

	_, ok = Clip(span(0, 5), window)
	assert.False(t, ok)
}

func TestIntervalDuration(t *testing.T) {
	assert.Equal(t, 2*time.Hour, span(1, 3).Duration())
	assert.Equal(t, time.Duration(0), span(3, 1).Duration())
	assert.Equal(t, time.Duration(0), span(3, 3).Duration())
}
