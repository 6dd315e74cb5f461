package dispatch

import "loco-dispatcher/internal/model"

// LocoTimeline is one locomotive's simulated assignments and idle gaps within a window.
type LocoTimeline struct {
	Locomotive  model.Locomotive
	Assignments []Annotated
	Idle        []IdlePeriod
}

// GroupByLocomotive buckets assignments by locomotive id, keeping input order.
func GroupByLocomotive(assignments []model.Assignment) map[int64][]model.Assignment {
	out := make(map[int64][]model.Assignment)
	for _, a := range assignments {
		out[a.LocomotiveID] = append(out[a.LocomotiveID], a)
	}
	return out
}

// BuildTimeline runs the simulator and the idle synthesizer for every locomotive.
// Assignments outside window are ignored.
func BuildTimeline(r Rules, window Interval, locos []model.Locomotive, assignments []model.Assignment) []LocoTimeline {
	inWindow := make([]model.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if Overlaps(Interval{Start: a.StartTime, End: a.EndTime}, window) {
			inWindow = append(inWindow, a)
		}
	}
	byLoco := GroupByLocomotive(inWindow)

	out := make([]LocoTimeline, 0, len(locos))
	for _, l := range locos {
		sorted := SortAssignments(byLoco[l.ID])
		out = append(out, LocoTimeline{
			Locomotive:  l,
			Assignments: Simulate(r, l, sorted),
			Idle:        IdlePeriods(r, l.ID, window, sorted),
		})
	}
	return out
}
