package dispatch

import (
	"sort"
	"time"

	"loco-dispatcher/internal/model"
)

// Reason explains why an assignment was classified as a violation or conflict.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonTurnaround  Reason = "insufficient turnaround/fueling time"
	ReasonFuel        Reason = "insufficient fuel"
	ReasonMaintenance Reason = "service required (limit exceeded)"
	ReasonOverlap     Reason = "time overlap"
)

// rank orders violation reasons; the highest rank that fired decides the final reason.
func (r Reason) rank() int {
	switch r {
	case ReasonTurnaround:
		return 1
	case ReasonFuel:
		return 2
	case ReasonMaintenance:
		return 3
	}
	return 0
}

// State is what the simulator carries from one assignment to the next.
type State struct {
	Fuel    float64
	Km      float64
	Hours   float64
	LastEnd time.Time // zero until the first assignment
}

// InitialState seeds the fold from the locomotive's persisted counters.
func InitialState(loco model.Locomotive) State {
	return State{
		Fuel:  loco.FuelCurrent,
		Km:    loco.RunKmSinceService,
		Hours: loco.RunHoursSinceService,
	}
}

// Verdict is the classification of a single assignment.
type Verdict struct {
	Status       model.AssignmentStatus
	Reason       Reason
	Reasons      []Reason // every check that fired, in evaluation order
	RequiredFuel float64
}

// Violation reports whether any operational check fired.
func (v Verdict) Violation() bool {
	return v.Status == model.AssignmentViolation
}

// Annotated pairs a stored assignment with its simulated verdict.
type Annotated struct {
	Assignment model.Assignment
	Verdict
}

// DistanceKm is the recorded distance, zero when absent.
func DistanceKm(a model.Assignment) float64 {
	if a.DistanceKm == nil || *a.DistanceKm < 0 {
		return 0
	}
	return *a.DistanceKm
}

// RequiredFuel uses the locomotive's own consumption rate.
func RequiredFuel(loco model.Locomotive, distanceKm float64) float64 {
	if distanceKm <= 0 || loco.FuelRatePerKm <= 0 {
		return 0
	}
	return distanceKm * loco.FuelRatePerKm
}

// Step classifies one assignment against the state left by the previous ones
// and returns the state for the next. Violating assignments do not consume
// fuel or wear; LastEnd always advances.
func Step(r Rules, loco model.Locomotive, st State, a model.Assignment) (State, Verdict) {
	distance := DistanceKm(a)
	v := Verdict{Status: a.Status, RequiredFuel: RequiredFuel(loco, distance)}

	if !st.LastEnd.IsZero() && a.StartTime.Sub(st.LastEnd) < r.MinGap() {
		v.Reasons = append(v.Reasons, ReasonTurnaround)
	}
	if st.Fuel < v.RequiredFuel {
		v.Reasons = append(v.Reasons, ReasonFuel)
	}
	if st.Km > loco.MaxRunKm || st.Hours > loco.MaxRunHours {
		v.Reasons = append(v.Reasons, ReasonMaintenance)
	}

	for _, reason := range v.Reasons {
		if reason.rank() > v.Reason.rank() {
			v.Reason = reason
		}
	}

	next := st
	if len(v.Reasons) > 0 {
		v.Status = model.AssignmentViolation
	} else {
		next.Fuel -= v.RequiredFuel
		next.Km += distance
		next.Hours += a.EndTime.Sub(a.StartTime).Hours()
	}
	if a.EndTime.After(next.LastEnd) {
		next.LastEnd = a.EndTime
	}
	return next, v
}

// SortAssignments orders by start time, breaking ties by id. The input is not modified.
func SortAssignments(assignments []model.Assignment) []model.Assignment {
	sorted := make([]model.Assignment, len(assignments))
	copy(sorted, assignments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartTime.Equal(sorted[j].StartTime) {
			return sorted[i].StartTime.Before(sorted[j].StartTime)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// Simulate replays one locomotive's assignments in chronological order.
func Simulate(r Rules, loco model.Locomotive, assignments []model.Assignment) []Annotated {
	sorted := SortAssignments(assignments)
	out := make([]Annotated, 0, len(sorted))
	st := InitialState(loco)
	for _, a := range sorted {
		var v Verdict
		st, v = Step(r, loco, st, a)
		out = append(out, Annotated{Assignment: a, Verdict: v})
	}
	return out
}
