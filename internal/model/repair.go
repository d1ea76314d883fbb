package model

import "time"

// RepairStatus is the closed set of states for a repair work record.
type RepairStatus string

const (
	RepairDiagnosticsCompleted RepairStatus = "diagnostics completed"
	RepairInProgress           RepairStatus = "repair in progress"
	RepairCompleted            RepairStatus = "repair completed"
)

// repairTransitions permits every pairwise move among the three states.
// Staff correct misfiled statuses in both directions, so no forward-only
// ordering is enforced; tightening this is a table edit, not a code change.
var repairTransitions = map[RepairStatus][]RepairStatus{
	RepairDiagnosticsCompleted: {RepairInProgress, RepairCompleted},
	RepairInProgress:           {RepairDiagnosticsCompleted, RepairCompleted},
	RepairCompleted:            {RepairDiagnosticsCompleted, RepairInProgress},
}

// Valid reports whether s is a known repair status.
func (s RepairStatus) Valid() bool {
	_, ok := repairTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition s -> next is in the table.
func (s RepairStatus) CanTransitionTo(next RepairStatus) bool {
	if s == next {
		return true
	}
	for _, t := range repairTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Repair is the staff-managed work record. Exactly one exists per accepted
// repair request; the unique index backs up the store-level guard.
type Repair struct {
	ID               int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	RepairRequestID  int64        `gorm:"not null;uniqueIndex" json:"repair_request_id"`
	Status           RepairStatus `gorm:"size:32;not null" json:"status"`
	TotalCost        float64      `gorm:"not null" json:"total_cost"`
	IdentifiedIssue  string       `gorm:"not null" json:"identified_issue"`
	IdentifiedDevice string       `gorm:"not null" json:"identified_device"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null" json:"updated_at"`

	// Associations
	RepairRequest RepairRequest `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
