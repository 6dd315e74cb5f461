package dispatch

import (
	"fmt"
	"time"

	"loco-dispatcher/internal/model"
)

// IdlePeriod is a derived gap in a locomotive's schedule. It is never stored.
type IdlePeriod struct {
	ID           string
	LocomotiveID int64
	Start        time.Time
	End          time.Time
}

// IdlePeriods emits every gap longer than the idle threshold between the
// window start, each assignment, and the window end. assignments must be
// sorted by start time.
func IdlePeriods(r Rules, locoID int64, window Interval, assignments []model.Assignment) []IdlePeriod {
	if !window.Valid() {
		return nil
	}
	var out []IdlePeriod
	cursor := window.Start
	for _, a := range assignments {
		if a.StartTime.Sub(cursor) > r.IdleThreshold {
			out = append(out, IdlePeriod{
				ID:           fmt.Sprintf("idle-%d-%d", locoID, a.ID),
				LocomotiveID: locoID,
				Start:        cursor,
				End:          a.StartTime,
			})
		}
		if a.EndTime.After(cursor) {
			cursor = a.EndTime
		}
	}
	if window.End.Sub(cursor) > r.IdleThreshold {
		out = append(out, IdlePeriod{
			ID:           fmt.Sprintf("idle-end-%d", locoID),
			LocomotiveID: locoID,
			Start:        cursor,
			End:          window.End,
		})
	}
	return out
}
