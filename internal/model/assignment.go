package model

import "time"

// AssignmentStatus is the lifecycle or classification of an assignment.
type AssignmentStatus string

const (
	AssignmentPlanned   AssignmentStatus = "planned"
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentConflict  AssignmentStatus = "conflict"
	AssignmentViolation AssignmentStatus = "violation"
)

// Assignment is one locomotive hauling one train over one shoulder in [StartTime, EndTime).
type Assignment struct {
	ID             int64            `gorm:"primaryKey" json:"id"`
	LocomotiveID   int64            `gorm:"not null;index:idx_assignments_loco_time,priority:1" json:"locomotive_id"`
	TrainID        int64            `gorm:"not null;index" json:"train_id"`
	ShoulderID     int64            `gorm:"not null;index" json:"shoulder_id"`
	StartTime      time.Time        `gorm:"not null;index:idx_assignments_loco_time,priority:2" json:"start_time"`
	EndTime        time.Time        `gorm:"not null;index:idx_assignments_loco_time,priority:3" json:"end_time"`
	Status         AssignmentStatus `gorm:"size:16;not null;default:planned;index" json:"status"`
	ConflictReason *string          `gorm:"size:512" json:"conflict_reason"`
	DistanceKm     *float64         `json:"distance_km"`
	RequiredFuel   *float64         `json:"required_fuel"`
	Note           string           `gorm:"size:1024" json:"note"`
	CreatedAt      time.Time        `json:"-"`
	UpdatedAt      time.Time        `json:"-"`

	Locomotive Locomotive `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Train      Train      `json:"-"`
	Shoulder   Shoulder   `json:"-"`
}
