package model

import "time"

// RequestStatus is the closed set of states a repair request moves through.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// requestTransitions is the transition table for repair requests.
// Acceptance is terminal; a rejected request may be re-opened.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:  {RequestAccepted, RequestRejected},
	RequestRejected: {RequestPending},
	RequestAccepted: {},
}

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition s -> next is in the table.
// A no-op transition (same status) is always allowed.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if s == next {
		return true
	}
	for _, t := range requestTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// RepairRequest is the customer-submitted intake record. It is never
// deleted; rejected and accepted requests are kept for audit.
type RepairRequest struct {
	ID               int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID       int64         `gorm:"not null;index" json:"customer_id"`
	TechnicianID     int64         `gorm:"not null;index" json:"technician_id"`
	IssueDescription string        `gorm:"not null" json:"issue_description"`
	DeviceInfo       string        `gorm:"not null" json:"device_info"`
	AppointmentDate  time.Time     `gorm:"not null;index" json:"appointment_date"`
	Status           RequestStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt        time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null" json:"updated_at"`

	// Associations
	Technician Technician `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
