package model

import "time"

// PushSubscription holds a browser push endpoint watching locomotives for conflicts.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Locomotives []*Locomotive `gorm:"many2many:subscription_locomotive_mapping;"`
}
