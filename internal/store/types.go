package store

import (
	"time"

	"loco-dispatcher/internal/dispatch"
	"loco-dispatcher/internal/model"
	"loco-dispatcher/internal/parse"
)

// AssignmentView is an assignment joined with display names.
type AssignmentView struct {
	model.Assignment
	LocomotiveNumber string `json:"loco_number"`
	TrainNumber      string `json:"train_number"`
	FromStation      string `json:"from_station"`
	ToStation        string `json:"to_station"`
	ShoulderName     string `json:"shoulder_name"`
}

// LocomotiveView is a locomotive with its current station's name.
type LocomotiveView struct {
	model.Locomotive
	CurrentStationName string `json:"current_station_name"`
}

// ShoulderView is a shoulder with both station names.
type ShoulderView struct {
	model.Shoulder
	StationAName string `json:"station_a_name"`
	StationBName string `json:"station_b_name"`
}

// NewAssignment is the input for a manually created assignment.
type NewAssignment struct {
	LocomotiveID int64
	TrainID      int64
	ShoulderID   int64
	Start        time.Time
	End          time.Time
	Note         string
	DistanceKm   *float64
}

// CreatedAssignment is the persisted row together with its write-time classification.
type CreatedAssignment struct {
	Assignment     model.Assignment
	Classification dispatch.Classification
}

// ImportSummary reports the outcome of one bulk import.
type ImportSummary struct {
	BatchID            string           `json:"batch_id"`
	ImportedRows       int              `json:"imported_rows"`
	CreatedLocomotives int              `json:"created_locomotives"`
	CreatedStations    int              `json:"created_stations"`
	CreatedTrains      int              `json:"created_trains"`
	ConflictsCount     int              `json:"conflicts_count"`
	Errors             []parse.RowError `json:"errors"`

	// ConflictLocomotives lists locomotives that received a conflicting row.
	ConflictLocomotives []int64 `json:"-"`
}

// ServiceRequest records a completed service at a station.
type ServiceRequest struct {
	LocomotiveID int64
	StationID    int64
	Type         model.ServiceType
	At           time.Time
}

// LifecycleResult counts rows changed by one lifecycle pass.
type LifecycleResult struct {
	Activated int64
	Completed int64
	Enroute   int64
	Idled     int64
}

// DashboardCounts are the raw counters behind the KPI endpoint.
type DashboardCounts struct {
	TotalAssignments     int64
	CompletedAssignments int64
	ConflictAssignments  int64
	LocomotivesByStatus  map[model.LocoStatus]int64
}

// LocomotiveWork is the all-time assignment count and worked time of one locomotive.
type LocomotiveWork struct {
	LocomotiveID     int64
	LocomotiveNumber string
	Assignments      int
	Worked           time.Duration
}
