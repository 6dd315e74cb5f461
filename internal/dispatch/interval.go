package dispatch

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether Start is strictly before End.
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Duration is zero for empty or inverted intervals.
func (iv Interval) Duration() time.Duration {
	if !iv.Valid() {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether a and b share any instant. Touching endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Clip restricts iv to window. ok is false when nothing remains.
func Clip(iv, window Interval) (Interval, bool) {
	clipped := Interval{Start: maxTime(iv.Start, window.Start), End: minTime(iv.End, window.End)}
	if !clipped.Valid() {
		return Interval{}, false
	}
	return clipped, true
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
