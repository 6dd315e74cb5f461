package dispatch

import (
	"time"

	"loco-dispatcher/config"
)

// Rules are the timing constants the engine applies.
type Rules struct {
	Turnaround     time.Duration
	Fueling        time.Duration
	IdleThreshold  time.Duration
	RecommendLimit int
}

// DefaultRules: 40 min turnaround, 30 min fueling, 30 min idle threshold, top 3 recommendations.
var DefaultRules = Rules{
	Turnaround:     40 * time.Minute,
	Fueling:        30 * time.Minute,
	IdleThreshold:  30 * time.Minute,
	RecommendLimit: 3,
}

// RulesFromConfig converts the dispatch section of the config.
func RulesFromConfig(cfg config.DispatchConfig) Rules {
	r := Rules{
		Turnaround:     time.Duration(cfg.TurnaroundMinutes) * time.Minute,
		Fueling:        time.Duration(cfg.FuelingMinutes) * time.Minute,
		IdleThreshold:  time.Duration(cfg.IdleThresholdMinutes) * time.Minute,
		RecommendLimit: cfg.RecommendLimit,
	}
	if r.Turnaround <= 0 {
		r.Turnaround = DefaultRules.Turnaround
	}
	if r.Fueling <= 0 {
		r.Fueling = DefaultRules.Fueling
	}
	if r.IdleThreshold <= 0 {
		r.IdleThreshold = DefaultRules.IdleThreshold
	}
	if r.RecommendLimit <= 0 {
		r.RecommendLimit = DefaultRules.RecommendLimit
	}
	return r
}

// MinGap is the combined buffer required between consecutive assignments.
func (r Rules) MinGap() time.Duration {
	return r.Turnaround + r.Fueling
}
