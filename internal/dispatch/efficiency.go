package dispatch

import (
	"time"

	"loco-dispatcher/internal/model"
)

// Efficiency summarises one locomotive's utilisation over a reporting window.
type Efficiency struct {
	LocomotiveID     int64
	LocomotiveNumber string
	RunMinutes       float64
	IdleMinutes      float64
	ServiceMinutes   float64
	AvailableMinutes float64
	Percent          float64
}

// ComputeEfficiency sums assignment time clipped to window. serviceTime is
// subtracted from the available time. A non-positive window yields zeros.
func ComputeEfficiency(loco model.Locomotive, window Interval, serviceTime time.Duration, assignments []model.Assignment) Efficiency {
	e := Efficiency{LocomotiveID: loco.ID, LocomotiveNumber: loco.Number}
	if !window.Valid() {
		return e
	}

	var run time.Duration
	for _, a := range assignments {
		if a.LocomotiveID != 0 && a.LocomotiveID != loco.ID {
			continue
		}
		if clipped, ok := Clip(Interval{Start: a.StartTime, End: a.EndTime}, window); ok {
			run += clipped.Duration()
		}
	}

	if serviceTime < 0 {
		serviceTime = 0
	}
	e.RunMinutes = run.Minutes()
	e.ServiceMinutes = serviceTime.Minutes()
	e.AvailableMinutes = window.Duration().Minutes() - e.ServiceMinutes
	if idle := e.AvailableMinutes - e.RunMinutes; idle > 0 {
		e.IdleMinutes = idle
	}
	if e.AvailableMinutes > 0 {
		e.Percent = e.RunMinutes / e.AvailableMinutes * 100
	}
	return e
}

// EfficiencyReport computes one row per locomotive, in the order given.
func EfficiencyReport(window Interval, locos []model.Locomotive, assignments []model.Assignment) []Efficiency {
	byLoco := GroupByLocomotive(assignments)
	out := make([]Efficiency, 0, len(locos))
	for _, l := range locos {
		// Service time stays zero until service events carry a duration.
		out = append(out, ComputeEfficiency(l, window, 0, byLoco[l.ID]))
	}
	return out
}

// FleetEfficiency is the mean percentage across rows, zero for an empty fleet.
func FleetEfficiency(rows []Efficiency) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += r.Percent
	}
	return sum / float64(len(rows))
}
