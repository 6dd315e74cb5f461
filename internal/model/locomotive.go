package model

import "time"

// LocoStatus is the operational state of a locomotive.
type LocoStatus string

const (
	LocoIdle     LocoStatus = "idle"
	LocoEnroute  LocoStatus = "enroute"
	LocoService  LocoStatus = "service"
	LocoRepair   LocoStatus = "repair"
	LocoConflict LocoStatus = "conflict"
)

// Defaults applied to locomotives created implicitly by an import.
const (
	UnknownModel         = "UNKNOWN"
	UnknownDepot         = "НЕ_УКАЗАНО"
	DefaultFuelCapacity  = 6000.0
	DefaultFuelRatePerKm = 2.5
	DefaultSandLevel     = 100.0
	DefaultMaxRunKm      = 10000.0
	DefaultMaxRunHours   = 240.0
)

// Locomotive is the unit of stateful simulation.
type Locomotive struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	Number               string     `gorm:"uniqueIndex;size:64;not null" json:"number"`
	Model                string     `gorm:"size:64;not null" json:"model"`
	Depot                string     `gorm:"size:128;not null" json:"depot"`
	CurrentStationID     *int64     `gorm:"index" json:"current_station_id"`
	Status               LocoStatus `gorm:"size:16;not null;default:idle;index" json:"status"`
	FuelCapacity         float64    `gorm:"not null" json:"fuel_capacity"`
	FuelCurrent          float64    `gorm:"not null" json:"fuel_current"`
	FuelRatePerKm        float64    `gorm:"not null" json:"fuel_rate_per_km"`
	SandLevel            float64    `gorm:"not null" json:"sand_level"`
	RunKmSinceService    float64    `gorm:"not null;default:0" json:"run_km_since_service"`
	RunHoursSinceService float64    `gorm:"not null;default:0" json:"run_hours_since_service"`
	MaxRunKm             float64    `gorm:"not null" json:"max_run_km"`
	MaxRunHours          float64    `gorm:"not null" json:"max_run_hours"`
	LastServiceAt        *time.Time `json:"last_service_at"`
	CreatedAt            time.Time  `json:"-"`
	UpdatedAt            time.Time  `json:"-"`

	CurrentStation *Station `gorm:"foreignKey:CurrentStationID" json:"-"`
}

// NewLocomotive returns a locomotive with full tanks and default limits.
func NewLocomotive(number, model, depot string) Locomotive {
	if model == "" {
		model = UnknownModel
	}
	if depot == "" {
		depot = UnknownDepot
	}
	return Locomotive{
		Number:        number,
		Model:         model,
		Depot:         depot,
		Status:        LocoIdle,
		FuelCapacity:  DefaultFuelCapacity,
		FuelCurrent:   DefaultFuelCapacity,
		FuelRatePerKm: DefaultFuelRatePerKm,
		SandLevel:     DefaultSandLevel,
		MaxRunKm:      DefaultMaxRunKm,
		MaxRunHours:   DefaultMaxRunHours,
	}
}

// FuelPercent is the current fuel as a share of capacity, in [0, 100].
// Without a capacity the raw level is returned.
func (l Locomotive) FuelPercent() float64 {
	if l.FuelCapacity <= 0 {
		return l.FuelCurrent
	}
	p := l.FuelCurrent / l.FuelCapacity * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
