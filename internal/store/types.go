package store

import (
	"time"

	"repairdesk-backend/internal/model"
)

// Availability is the result of an admission check for one technician-day.
type Availability struct {
	Available        bool `json:"isAvailable"`
	AppointmentCount int  `json:"appointmentCount"`
	Capacity         int  `json:"capacity"`
}

// NewRequest carries the customer input for creating a repair request.
type NewRequest struct {
	CustomerID       int64
	TechnicianID     int64
	IssueDescription string
	DeviceInfo       string
	AppointmentDate  time.Time
}

// Acceptance carries the staff input for accepting a repair request.
type Acceptance struct {
	RequestID        int64
	InitialStatus    model.RepairStatus
	TotalCost        float64
	IdentifiedIssue  string
	IdentifiedDevice string
}

// RepairDetails carries a full replacement of a repair's editable fields.
type RepairDetails struct {
	TotalCost        float64
	IdentifiedIssue  string
	IdentifiedDevice string
}

// RequestFilter scopes repair request listings. A zero TechnicianID means
// no technician scoping (admin view).
type RequestFilter struct {
	TechnicianID int64
	Status       model.RequestStatus
}

// RepairFilter scopes repair record listings by the owning technician.
type RepairFilter struct {
	TechnicianID int64
}
