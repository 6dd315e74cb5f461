package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"loco-dispatcher/internal/dispatch"
	"loco-dispatcher/internal/model"
	"loco-dispatcher/internal/store"
)

// CSS classes the timeline front end styles items by.
const (
	classConflict   = "bg-rose-500 border-rose-700 text-white"
	classViolation  = "bg-amber-500 border-amber-700 text-white"
	classIdle       = "bg-slate-200 border-slate-300 text-slate-500 opacity-50"
	classAssignment = "bg-ktz-blue border-blue-800 text-white"
)

type graphGroup struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type graphItem struct {
	ID              any      `json:"id"`
	Group           int64    `json:"group"`
	Title           string   `json:"title"`
	StartTime       int64    `json:"start_time"`
	EndTime         int64    `json:"end_time"`
	ClassName       string   `json:"className"`
	Status          string   `json:"status"`
	Type            string   `json:"type"`
	ViolationReason string   `json:"violation_reason,omitempty"`
	ConflictReason  *string  `json:"conflict_reason,omitempty"`
	RequiredFuel    *float64 `json:"required_fuel,omitempty"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	TrainNumber     string   `json:"train_number,omitempty"`
	FromStation     string   `json:"from_station,omitempty"`
	ToStation       string   `json:"to_station,omitempty"`
}

type graphResponse struct {
	Groups []graphGroup `json:"groups"`
	Items  []graphItem  `json:"items"`
}

func className(status model.AssignmentStatus) string {
	switch status {
	case model.AssignmentConflict:
		return classConflict
	case model.AssignmentViolation:
		return classViolation
	}
	return classAssignment
}

func locomotiveModels(views []store.LocomotiveView) []model.Locomotive {
	out := make([]model.Locomotive, len(views))
	for i, v := range views {
		out[i] = v.Locomotive
	}
	return out
}

func assignmentModels(views []store.AssignmentView) []model.Assignment {
	out := make([]model.Assignment, len(views))
	for i, v := range views {
		out[i] = v.Assignment
	}
	return out
}

// Graph returns the simulated timeline of every locomotive: stored
// assignments re-classified by the simulator plus synthesized idle gaps.
func (h *Handler) Graph(c *gin.Context) {
	window, err := h.graphWindow(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	ctx := c.Request.Context()

	locos, err := h.store.Locomotives(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	views, err := h.store.AssignmentsInWindow(ctx, window.Start, window.End)
	if err != nil {
		abortWithError(c, err)
		return
	}
	byID := make(map[int64]store.AssignmentView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}

	resp := graphResponse{Groups: make([]graphGroup, 0, len(locos)), Items: []graphItem{}}
	for _, tl := range dispatch.BuildTimeline(h.rules, window, locomotiveModels(locos), assignmentModels(views)) {
		resp.Groups = append(resp.Groups, graphGroup{ID: tl.Locomotive.ID, Title: tl.Locomotive.Number})

		for _, a := range tl.Assignments {
			v := byID[a.Assignment.ID]
			fuel := a.RequiredFuel
			resp.Items = append(resp.Items, graphItem{
				ID:              a.Assignment.ID,
				Group:           tl.Locomotive.ID,
				Title:           fmt.Sprintf("%s: %s→%s", v.TrainNumber, v.FromStation, v.ToStation),
				StartTime:       a.Assignment.StartTime.UnixMilli(),
				EndTime:         a.Assignment.EndTime.UnixMilli(),
				ClassName:       className(a.Status),
				Status:          string(a.Status),
				Type:            "assignment",
				ViolationReason: string(a.Reason),
				ConflictReason:  a.Assignment.ConflictReason,
				RequiredFuel:    &fuel,
				DistanceKm:      a.Assignment.DistanceKm,
				TrainNumber:     v.TrainNumber,
				FromStation:     v.FromStation,
				ToStation:       v.ToStation,
			})
		}
		for _, idle := range tl.Idle {
			resp.Items = append(resp.Items, graphItem{
				ID:        idle.ID,
				Group:     tl.Locomotive.ID,
				Title:     "Idle",
				StartTime: idle.Start.UnixMilli(),
				EndTime:   idle.End.UnixMilli(),
				ClassName: classIdle,
				Status:    "idle",
				Type:      "idle",
			})
		}
	}
	c.JSON(http.StatusOK, resp)
}
