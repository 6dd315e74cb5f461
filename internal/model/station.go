package model

import "time"

// Station is a named stop on the network. Code is unique and derived from the name.
type Station struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	Code      string    `gorm:"uniqueIndex;size:128;not null" json:"code"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
