package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"loco-dispatcher/internal/dispatch"
	"loco-dispatcher/internal/model"
	"loco-dispatcher/internal/store"
)

type candidateResponse struct {
	store.LocomotiveView
	FuelPercent float64 `json:"fuel_percent"`
	Score       float64 `json:"score"`
	AtOrigin    bool    `json:"at_origin"`
}

type suggestion struct {
	SuggestionType string  `json:"suggestion_type"`
	AssignmentID   int64   `json:"assignment_id"`
	TrainNumber    string  `json:"train_number"`
	FromLocomotive string  `json:"from_locomotive"`
	ToLocomotive   *string `json:"to_locomotive,omitempty"`
	Reason         string  `json:"reason"`
}

// Recommend ranks idle locomotives for a shoulder.
func (h *Handler) Recommend(c *gin.Context) {
	id, err := pathID(c, "shoulder_id")
	if err != nil {
		abortWithError(c, err)
		return
	}
	ctx := c.Request.Context()

	shoulder, err := h.store.Shoulder(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	locos, err := h.store.Locomotives(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	candidates, err := dispatch.Recommend(shoulder, locomotiveModels(locos), h.rules.RecommendLimit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	views := make(map[int64]store.LocomotiveView, len(locos))
	for _, l := range locos {
		views[l.ID] = l
	}
	out := make([]candidateResponse, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, candidateResponse{
			LocomotiveView: views[cand.Locomotive.ID],
			FuelPercent:    cand.Locomotive.FuelPercent(),
			Score:          cand.Score,
			AtOrigin:       cand.AtOrigin,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Optimization proposes a replacement locomotive for every conflict assignment.
func (h *Handler) Optimization(c *gin.Context) {
	ctx := c.Request.Context()
	conflicts, err := h.store.Conflicts(ctx, nil, nil)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if len(conflicts) == 0 {
		c.JSON(http.StatusOK, []suggestion{})
		return
	}

	locoViews, err := h.store.Locomotives(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	shoulderViews, err := h.store.Shoulders(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	shoulders := make(map[int64]model.Shoulder, len(shoulderViews))
	for _, s := range shoulderViews {
		shoulders[s.ID] = s.Shoulder
	}
	locos := locomotiveModels(locoViews)

	out := make([]suggestion, 0, len(conflicts))
	for _, a := range conflicts {
		s := suggestion{
			SuggestionType: "reassignment",
			AssignmentID:   a.ID,
			TrainNumber:    a.TrainNumber,
			FromLocomotive: a.LocomotiveNumber,
			Reason:         "resolve the time overlap",
		}
		if a.ConflictReason != nil {
			s.Reason = fmt.Sprintf("resolve %s", *a.ConflictReason)
		}

		if shoulder, ok := shoulders[a.ShoulderID]; ok {
			others := make([]model.Locomotive, 0, len(locos))
			for _, l := range locos {
				if l.ID != a.LocomotiveID {
					others = append(others, l)
				}
			}
			if best, err := dispatch.Recommend(&shoulder, others, 1); err == nil && len(best) > 0 {
				number := best[0].Locomotive.Number
				s.ToLocomotive = &number
			}
		}
		out = append(out, s)
	}
	c.JSON(http.StatusOK, out)
}
