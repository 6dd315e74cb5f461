package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loco-dispatcher/internal/model"
)

func TestComputeEfficiency(t *testing.T) {
	loco := testLoco()
	week := Interval{Start: t0, End: t0.Add(7 * 24 * time.Hour)}
	weekMinutes := 7 * 24 * 60.0

	testCases := []struct {
		name        string
		window      Interval
		assignments []model.Assignment
		run         float64
	}{
		{
			name:        "fully inside",
			window:      week,
			assignments: []model.Assignment{assignment(1, 10, 16, nil)},
			run:         360,
		},
		{
			name:        "partially before the window",
			window:      week,
			assignments: []model.Assignment{assignment(1, -2, 3, nil)},
			run:         180,
		},
		{
			name:        "entirely outside",
			window:      week,
			assignments: []model.Assignment{assignment(1, -10, -2, nil)},
			run:         0,
		},
		{
			name:   "several assignments",
			window: week,
			assignments: []model.Assignment{
				assignment(1, 0, 1, nil),
				assignment(2, 2, 4, nil),
				assignment(3, 167, 170, nil),
			},
			run: 60 + 120 + 60,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := ComputeEfficiency(loco, tc.window, 0, tc.assignments)
			assert.InDelta(t, tc.run, e.RunMinutes, 1e-9)
			assert.InDelta(t, weekMinutes, e.AvailableMinutes, 1e-9)
			assert.InDelta(t, weekMinutes-tc.run, e.IdleMinutes, 1e-9)
			assert.InDelta(t, tc.run/weekMinutes*100, e.Percent, 1e-9)
		})
	}
}

func TestComputeEfficiency_DegenerateWindow(t *testing.T) {
	loco := testLoco()
	for _, window := range []Interval{span(5, 5), span(6, 5)} {
		e := ComputeEfficiency(loco, window, 0, []model.Assignment{assignment(1, 0, 10, nil)})
		assert.Equal(t, Efficiency{LocomotiveID: loco.ID, LocomotiveNumber: loco.Number}, e)
	}
}

func TestComputeEfficiency_ServiceTimeConsumesAvailability(t *testing.T) {
	loco := testLoco()
	e := ComputeEfficiency(loco, span(0, 2), 2*time.Hour, []model.Assignment{assignment(1, 0, 1, nil)})
	assert.Equal(t, 0.0, e.AvailableMinutes)
	assert.Equal(t, 0.0, e.IdleMinutes)
	assert.Equal(t, 0.0, e.Percent)
}

func TestEfficiencyReport(t *testing.T) {
	a := testLoco()
	b := testLoco()
	b.ID, b.Number = 2, "VL80-1542"

	second := assignment(2, 0, 12, nil)
	second.LocomotiveID = 2
	rows := EfficiencyReport(span(0, 24), []model.Locomotive{a, b}, []model.Assignment{
		assignment(1, 0, 6, nil),
		second,
	})

	if assert.Len(t, rows, 2) {
		assert.InDelta(t, 25.0, rows[0].Percent, 1e-9)
		assert.InDelta(t, 50.0, rows[1].Percent, 1e-9)
		assert.Equal(t, "VL80-1542", rows[1].LocomotiveNumber)
	}
	assert.InDelta(t, 37.5, FleetEfficiency(rows), 1e-9)
	assert.Equal(t, 0.0, FleetEfficiency(nil))
}
