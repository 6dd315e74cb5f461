package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loco-dispatcher/internal/model"
)

func km(v float64) *float64 { return &v }

func testLoco() model.Locomotive {
	return model.Locomotive{
		ID:            1,
		Number:        "TE33A-0123",
		Model:         "TE33A",
		Status:        model.LocoIdle,
		FuelCapacity:  6000,
		FuelCurrent:   6000,
		FuelRatePerKm: 2.5,
		SandLevel:     100,
		MaxRunKm:      10000,
		MaxRunHours:   240,
	}
}

func assignment(id int64, fromH, toH float64, distance *float64) model.Assignment {
	return model.Assignment{
		ID:           id,
		LocomotiveID: 1,
		StartTime:    at(fromH),
		EndTime:      at(toH),
		Status:       model.AssignmentPlanned,
		DistanceKm:   distance,
	}
}

func TestSimulate_TurnaroundViolation(t *testing.T) {
	out := Simulate(DefaultRules, testLoco(), []model.Assignment{
		assignment(1, 0, 8, nil),
		assignment(2, 8, 16, nil),
	})
	require.Len(t, out, 2)

	assert.Equal(t, model.AssignmentPlanned, out[0].Status)
	assert.Equal(t, ReasonNone, out[0].Reason)

	assert.Equal(t, model.AssignmentViolation, out[1].Status)
	assert.Equal(t, ReasonTurnaround, out[1].Reason)
}

func TestSimulate_BufferBoundary(t *testing.T) {
	first := assignment(1, 0, 2, nil)
	second := model.Assignment{ID: 2, LocomotiveID: 1, Status: model.AssignmentPlanned, EndTime: at(5)}

	// exactly 70 minutes between assignments is enough
	second.StartTime = at(2).Add(70 * time.Minute)
	out := Simulate(DefaultRules, testLoco(), []model.Assignment{first, second})
	assert.Equal(t, model.AssignmentPlanned, out[1].Status)

	second.StartTime = at(2).Add(69 * time.Minute)
	out = Simulate(DefaultRules, testLoco(), []model.Assignment{first, second})
	assert.Equal(t, model.AssignmentViolation, out[1].Status)
}

func TestStep_InsufficientFuelDoesNotAdvanceState(t *testing.T) {
	loco := testLoco()
	loco.FuelCurrent = 50
	loco.RunKmSinceService = 10
	loco.RunHoursSinceService = 2

	st := InitialState(loco)
	next, v := Step(DefaultRules, loco, st, assignment(1, 0, 3, km(30)))

	assert.Equal(t, model.AssignmentViolation, v.Status)
	assert.Equal(t, ReasonFuel, v.Reason)
	assert.InDelta(t, 75.0, v.RequiredFuel, 1e-9)

	assert.Equal(t, 50.0, next.Fuel)
	assert.Equal(t, 10.0, next.Km)
	assert.Equal(t, 2.0, next.Hours)
	assert.Equal(t, at(3), next.LastEnd, "occupancy still advances")
}

func TestStep_AdvancesStateWhenClean(t *testing.T) {
	loco := testLoco()
	next, v := Step(DefaultRules, loco, InitialState(loco), assignment(1, 0, 4, km(200)))

	assert.Equal(t, model.AssignmentPlanned, v.Status)
	assert.InDelta(t, 6000-500.0, next.Fuel, 1e-9)
	assert.InDelta(t, 200.0, next.Km, 1e-9)
	assert.InDelta(t, 4.0, next.Hours, 1e-9)
}

func TestStep_MissingDistanceStillAccruesHours(t *testing.T) {
	loco := testLoco()
	next, v := Step(DefaultRules, loco, InitialState(loco), assignment(1, 0, 5, nil))

	assert.Equal(t, 0.0, v.RequiredFuel)
	assert.Equal(t, 6000.0, next.Fuel)
	assert.Equal(t, 0.0, next.Km)
	assert.InDelta(t, 5.0, next.Hours, 1e-9)
}

func TestStep_MaintenanceWinsOverEarlierChecks(t *testing.T) {
	loco := testLoco()
	loco.FuelCurrent = 10
	loco.RunHoursSinceService = loco.MaxRunHours + 1

	st := InitialState(loco)
	st.LastEnd = at(0)
	_, v := Step(DefaultRules, loco, st, assignment(1, 0.5, 3, km(100)))

	assert.Equal(t, model.AssignmentViolation, v.Status)
	assert.Equal(t, ReasonMaintenance, v.Reason)
	assert.Equal(t, []Reason{ReasonTurnaround, ReasonFuel, ReasonMaintenance}, v.Reasons)
}

func TestStep_ConflictStatusKeptWithoutViolation(t *testing.T) {
	loco := testLoco()
	a := assignment(1, 0, 2, nil)
	a.Status = model.AssignmentConflict
	_, v := Step(DefaultRules, loco, InitialState(loco), a)
	assert.Equal(t, model.AssignmentConflict, v.Status)
	assert.False(t, v.Violation())
}

func TestSimulate_OrdersByStartThenID(t *testing.T) {
	out := Simulate(DefaultRules, testLoco(), []model.Assignment{
		assignment(3, 10, 12, nil),
		assignment(2, 0, 2, nil),
		assignment(1, 0, 1, nil),
	})
	require.Len(t, out, 3)
	assert.Equal(t, int64(1), out[0].Assignment.ID)
	assert.Equal(t, int64(2), out[1].Assignment.ID)
	assert.Equal(t, int64(3), out[2].Assignment.ID)
	// the second starts at the same instant the first began: overlap counts as no buffer
	assert.Equal(t, ReasonTurnaround, out[1].Reason)
}

func TestSimulate_LastEndIsMaxOfEnds(t *testing.T) {
	// a long assignment followed by a shorter one nested inside it
	out := Simulate(DefaultRules, testLoco(), []model.Assignment{
		assignment(1, 0, 10, nil),
		assignment(2, 1, 2, nil),
		assignment(3, 10.5, 12, nil),
	})
	require.Len(t, out, 3)
	assert.Equal(t, ReasonTurnaround, out[2].Reason, "gap is measured from the latest end, not the previous one")
}

func TestSimulate_FuelDepletesAcrossSequence(t *testing.T) {
	loco := testLoco()
	loco.FuelCurrent = 1000
	out := Simulate(DefaultRules, loco, []model.Assignment{
		assignment(1, 0, 4, km(300)),  // needs 750
		assignment(2, 6, 10, km(300)), // needs 750, only 250 left
		assignment(3, 12, 13, km(40)), // needs 100, still 250 left since #2 did not consume
	})
	assert.Equal(t, model.AssignmentPlanned, out[0].Status)
	assert.Equal(t, ReasonFuel, out[1].Reason)
	assert.Equal(t, model.AssignmentPlanned, out[2].Status)
}
