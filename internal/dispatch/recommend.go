package dispatch

import (
	"errors"
	"sort"

	"loco-dispatcher/internal/model"
)

// ErrShoulderNotFound is returned when recommendations are requested for a missing shoulder.
var ErrShoulderNotFound = errors.New("shoulder not found")

// Candidate is a scored locomotive for a shoulder.
type Candidate struct {
	Locomotive model.Locomotive
	Score      float64
	AtOrigin   bool
}

// Score: 50 points at the shoulder's origin, plus half the fuel percentage,
// plus a quarter of the sand level.
func Score(shoulder model.Shoulder, loco model.Locomotive) (float64, bool) {
	atOrigin := loco.CurrentStationID != nil && *loco.CurrentStationID == shoulder.StationAID
	score := loco.FuelPercent()/2 + loco.SandLevel/4
	if atOrigin {
		score += 50
	}
	return score, atOrigin
}

// Recommend ranks idle locomotives whose model the shoulder allows and
// returns at most limit of them, best first, ties by id ascending.
func Recommend(shoulder *model.Shoulder, locos []model.Locomotive, limit int) ([]Candidate, error) {
	if shoulder == nil {
		return nil, ErrShoulderNotFound
	}

	candidates := make([]Candidate, 0, len(locos))
	for _, l := range locos {
		if l.Status != model.LocoIdle || !shoulder.Allows(l.Model) {
			continue
		}
		score, atOrigin := Score(*shoulder, l)
		candidates = append(candidates, Candidate{Locomotive: l, Score: score, AtOrigin: atOrigin})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Locomotive.ID < candidates[j].Locomotive.ID
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
