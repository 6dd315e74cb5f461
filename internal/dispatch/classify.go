package dispatch

import (
	"fmt"
	"strings"

	"loco-dispatcher/internal/model"
)

// Classification is the write-time status of a new assignment.
type Classification struct {
	Status        model.AssignmentStatus
	Reason        *string
	ConflictsWith []int64
}

// Conflict reports whether the candidate overlapped anything.
func (c Classification) Conflict() bool {
	return c.Status == model.AssignmentConflict
}

// Classify checks a candidate interval against the same locomotive's existing
// assignments. selfID is skipped so a stored assignment can be re-checked.
func Classify(candidate Interval, selfID int64, existing []model.Assignment) Classification {
	ids := []int64{}
	for _, e := range existing {
		if selfID != 0 && e.ID == selfID {
			continue
		}
		if Overlaps(candidate, Interval{Start: e.StartTime, End: e.EndTime}) {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return Classification{Status: model.AssignmentPlanned, ConflictsWith: ids}
	}
	reason := overlapReason(ids)
	return Classification{Status: model.AssignmentConflict, Reason: &reason, ConflictsWith: ids}
}

func overlapReason(ids []int64) string {
	refs := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		refs = append(refs, fmt.Sprintf("#%d", id))
	}
	if len(refs) == 0 {
		return string(ReasonOverlap)
	}
	return fmt.Sprintf("%s with assignment %s", ReasonOverlap, strings.Join(refs, ", "))
}
