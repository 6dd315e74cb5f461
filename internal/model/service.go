package model

import "time"

// ServiceType is the kind of servicing a locomotive receives.
type ServiceType string

const (
	ServiceFuel       ServiceType = "fuel"
	ServiceSand       ServiceType = "sand"
	ServiceInspection ServiceType = "inspection"
	ServiceFull       ServiceType = "full"
)

// Valid reports whether t is a recognised service type.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceFuel, ServiceSand, ServiceInspection, ServiceFull:
		return true
	}
	return false
}

// ServicePoint is a facility at a station offering one service type.
type ServicePoint struct {
	ID              int64       `gorm:"primaryKey" json:"id"`
	StationID       int64       `gorm:"index;not null" json:"station_id"`
	Type            ServiceType `gorm:"size:16;not null" json:"type"`
	ServiceTimeMins int         `gorm:"not null" json:"service_time_mins"`

	Station Station `json:"-"`
}

// ServiceLog records one completed service event.
type ServiceLog struct {
	ID             int64       `gorm:"primaryKey" json:"id"`
	LocomotiveID   int64       `gorm:"index;not null" json:"locomotive_id"`
	StationID      int64       `gorm:"not null" json:"station_id"`
	ServicePointID *int64      `json:"service_point_id"`
	ServiceType    ServiceType `gorm:"size:16;not null" json:"service_type"`
	PerformedAt    time.Time   `gorm:"not null;index" json:"performed_at"`
	FuelAdded      float64     `gorm:"not null;default:0" json:"fuel_added"`
	SandAdded      float64     `gorm:"not null;default:0" json:"sand_added"`
}
