package model

import "time"

// Technician is the local projection of a staff member with the
// technician role. The staff directory itself is managed elsewhere;
// this subsystem only reads it.
type Technician struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Email     string    `gorm:"size:128" json:"email"`
	Active    bool      `gorm:"not null;index" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
