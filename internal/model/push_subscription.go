package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// A customer subscribes against the repair requests they want updates for.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	RepairRequests []*RepairRequest `gorm:"many2many:subscription_request_mapping;"`
}
