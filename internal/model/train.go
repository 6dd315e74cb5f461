package model

import "time"

// TrainCategory is the kind of traffic a train carries.
type TrainCategory string

const (
	TrainPassenger TrainCategory = "passenger"
	TrainCargo     TrainCategory = "cargo"
)

// Train is a numbered service hauled by a locomotive over one or more shoulders.
type Train struct {
	ID               int64         `gorm:"primaryKey" json:"id"`
	Number           string        `gorm:"uniqueIndex;size:64;not null" json:"number"`
	Category         TrainCategory `gorm:"size:16;not null;default:cargo" json:"category"`
	RouteDescription string        `gorm:"size:512" json:"route_description"`
	CreatedAt        time.Time     `json:"-"`
}
