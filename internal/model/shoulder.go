package model

import (
	"strings"
	"time"
)

// AnyModel in AllowedModels admits every locomotive model.
const AnyModel = "Any"

// Shoulder is a directed track segment from StationA to StationB.
type Shoulder struct {
	ID                int64     `gorm:"primaryKey" json:"id"`
	StationAID        int64     `gorm:"index:idx_shoulders_pair,priority:1;not null" json:"station_a_id"`
	StationBID        int64     `gorm:"index:idx_shoulders_pair,priority:2;not null" json:"station_b_id"`
	DistanceKm        float64   `gorm:"not null" json:"distance_km"`
	AllowedModels     string    `gorm:"column:allowed_loco_models;size:512" json:"allowed_loco_models"`
	MinTurnaroundMins int       `gorm:"not null;default:60" json:"min_turnaround_mins"`
	CreatedAt         time.Time `json:"-"`

	StationA Station `gorm:"foreignKey:StationAID" json:"-"`
	StationB Station `gorm:"foreignKey:StationBID" json:"-"`
}

// Allows reports whether a locomotive model may run on this shoulder.
func (s Shoulder) Allows(model string) bool {
	for _, m := range strings.Split(s.AllowedModels, ",") {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if strings.EqualFold(m, AnyModel) || m == "*" || m == model {
			return true
		}
	}
	return false
}
