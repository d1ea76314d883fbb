package model

// TechnicianDayLoad is the per-technician-per-business-day slot counter.
// Booked is only ever changed through a conditional UPDATE inside the same
// transaction as the request write it accounts for, which is what keeps the
// daily capacity invariant intact under concurrent bookings.
type TechnicianDayLoad struct {
	TechnicianID int64  `gorm:"primaryKey;autoIncrement:false"`
	Day          string `gorm:"primaryKey;size:10"` // YYYY-MM-DD in business-hours timezone
	Booked       int    `gorm:"not null"`
}
