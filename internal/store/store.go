package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"repairdesk-backend/internal/model"
	"repairdesk-backend/internal/schedule"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Technician directory reads.
	ActiveTechnicians(ctx context.Context) ([]model.Technician, error)
	IsActiveTechnician(ctx context.Context, id int64) (bool, error)

	// Admission control and the repair request lifecycle.
	CheckAvailability(ctx context.Context, technicianID int64, date time.Time) (Availability, error)
	CreateRequest(ctx context.Context, req NewRequest) (int64, error)
	SetRequestStatus(ctx context.Context, requestID int64, status model.RequestStatus) error

	// The repair record lifecycle.
	AcceptRequest(ctx context.Context, acc Acceptance) (model.Repair, error)
	UpdateRepairStatus(ctx context.Context, repairID int64, status model.RepairStatus) (model.Repair, error)
	UpdateRepairDetails(ctx context.Context, repairID int64, details RepairDetails) (model.Repair, error)

	// Query facade: role-scoped projections.
	ListRequests(ctx context.Context, filter RequestFilter) ([]model.RepairRequest, error)
	GetRequest(ctx context.Context, id int64) (model.RepairRequest, error)
	ListRepairs(ctx context.Context, filter RepairFilter) ([]model.Repair, error)
	GetRepair(ctx context.Context, id int64) (model.Repair, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db       *gorm.DB
	hours    schedule.BusinessHours
	capacity int
}

// NewGormStore creates a new GORM-backed store with the given business-hours
// window and per-technician daily capacity.
func NewGormStore(db *gorm.DB, hours schedule.BusinessHours, capacity int) Store {
	return &gormStore{db: db, hours: hours, capacity: capacity}
}

// DB exposes the underlying connection for migrations and tests.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ActiveTechnicians lists staff currently taking appointments.
func (s *gormStore) ActiveTechnicians(ctx context.Context) ([]model.Technician, error) {
	var techs []model.Technician
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&techs).Error; err != nil {
		return nil, unavailable(err)
	}
	return techs, nil
}

// IsActiveTechnician resolves whether id refers to an active technician.
func (s *gormStore) IsActiveTechnician(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Technician{}).
		Where("id = ? AND active = ?", id, true).Count(&count).Error; err != nil {
		return false, unavailable(err)
	}
	return count > 0, nil
}

// CheckAvailability counts pending and accepted requests in the technician's
// business-hours window for the given calendar day. The result is advisory:
// the enforcing path is the slot counter inside CreateRequest's transaction.
func (s *gormStore) CheckAvailability(ctx context.Context, technicianID int64, date time.Time) (Availability, error) {
	active, err := s.IsActiveTechnician(ctx, technicianID)
	if err != nil {
		return Availability{}, err
	}
	if !active {
		return Availability{}, ErrNotFound
	}

	start, end := s.hours.DayWindow(date)
	var count int64
	err = s.db.WithContext(ctx).Model(&model.RepairRequest{}).
		Where("technician_id = ? AND appointment_date BETWEEN ? AND ? AND status IN ?",
			technicianID, start, end,
			[]model.RequestStatus{model.RequestPending, model.RequestAccepted}).
		Count(&count).Error
	if err != nil {
		return Availability{}, unavailable(err)
	}

	return Availability{
		Available:        int(count) < s.capacity,
		AppointmentCount: int(count),
		Capacity:         s.capacity,
	}, nil
}

// CreateRequest validates the customer input and inserts a pending request.
// For appointments inside the business-hours window the insert shares a
// transaction with a conditional increment of the technician's day-slot
// counter, so the capacity invariant holds even when bookings race.
func (s *gormStore) CreateRequest(ctx context.Context, req NewRequest) (int64, error) {
	issue := strings.TrimSpace(req.IssueDescription)
	device := strings.TrimSpace(req.DeviceInfo)
	if issue == "" {
		return 0, invalidf("issue description must not be blank")
	}
	if device == "" {
		return 0, invalidf("device info must not be blank")
	}
	if !req.AppointmentDate.After(time.Now()) {
		return 0, invalidf("appointment date must be in the future")
	}

	active, err := s.IsActiveTechnician(ctx, req.TechnicianID)
	if err != nil {
		return 0, err
	}
	if !active {
		return 0, ErrNotFound
	}

	var id int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.hours.Contains(req.AppointmentDate) {
			if err := s.reserveSlot(tx, req.TechnicianID, s.hours.DayKey(req.AppointmentDate)); err != nil {
				return err
			}
		}

		request := model.RepairRequest{
			CustomerID:       req.CustomerID,
			TechnicianID:     req.TechnicianID,
			IssueDescription: issue,
			DeviceInfo:       device,
			AppointmentDate:  req.AppointmentDate,
			Status:           model.RequestPending,
		}
		if err := tx.Create(&request).Error; err != nil {
			return unavailable(err)
		}
		id = request.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// reserveSlot takes one slot of the technician's daily capacity, failing
// with ErrCapacityExceeded when the day is full. The counter row is created
// on first use; the guarded increment is what makes check-then-insert safe.
func (s *gormStore) reserveSlot(tx *gorm.DB, technicianID int64, day string) error {
	seed := model.TechnicianDayLoad{TechnicianID: technicianID, Day: day, Booked: 0}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return unavailable(err)
	}

	res := tx.Model(&model.TechnicianDayLoad{}).
		Where("technician_id = ? AND day = ? AND booked < ?", technicianID, day, s.capacity).
		UpdateColumn("booked", gorm.Expr("booked + ?", 1))
	if res.Error != nil {
		return unavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCapacityExceeded
	}
	return nil
}

// releaseSlot gives back a previously reserved day slot.
func (s *gormStore) releaseSlot(tx *gorm.DB, technicianID int64, day string) error {
	res := tx.Model(&model.TechnicianDayLoad{}).
		Where("technician_id = ? AND day = ? AND booked > ?", technicianID, day, 0).
		UpdateColumn("booked", gorm.Expr("booked - ?", 1))
	if res.Error != nil {
		return unavailable(res.Error)
	}
	return nil
}

// SetRequestStatus moves a request to pending or rejected. Acceptance never
// goes through this path, and accepted requests are immutable here. Moving
// between pending and rejected keeps the slot counter in step with the set
// of capacity-counted requests, so re-opening a rejected request can itself
// fail with ErrCapacityExceeded.
func (s *gormStore) SetRequestStatus(ctx context.Context, requestID int64, status model.RequestStatus) error {
	if status != model.RequestPending && status != model.RequestRejected {
		return invalidf("status must be %q or %q", model.RequestPending, model.RequestRejected)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.RepairRequest
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return unavailable(err)
		}

		if request.Status == status {
			return nil
		}
		if !request.Status.CanTransitionTo(status) {
			return ErrConflict
		}

		counted := s.hours.Contains(request.AppointmentDate)
		day := s.hours.DayKey(request.AppointmentDate)
		if counted && status == model.RequestRejected {
			if err := s.releaseSlot(tx, request.TechnicianID, day); err != nil {
				return err
			}
		}
		if counted && status == model.RequestPending {
			if err := s.reserveSlot(tx, request.TechnicianID, day); err != nil {
				return err
			}
		}

		res := tx.Model(&request).Update("status", status)
		if res.Error != nil {
			return unavailable(res.Error)
		}
		return nil
	})
}

// AcceptRequest creates the repair work record and flips the parent request
// to accepted as one transaction. The status flip is conditional on the
// request not already being accepted, so a concurrent double-accept loses
// cleanly with ErrConflict and never leaves a second repair row behind.
func (s *gormStore) AcceptRequest(ctx context.Context, acc Acceptance) (model.Repair, error) {
	if !acc.InitialStatus.Valid() {
		return model.Repair{}, invalidf("unknown repair status %q", acc.InitialStatus)
	}
	if acc.TotalCost < 0 {
		return model.Repair{}, invalidf("total cost must not be negative")
	}
	issue := strings.TrimSpace(acc.IdentifiedIssue)
	device := strings.TrimSpace(acc.IdentifiedDevice)
	if issue == "" {
		return model.Repair{}, invalidf("identified issue must not be blank")
	}
	if device == "" {
		return model.Repair{}, invalidf("identified device must not be blank")
	}

	var repair model.Repair
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.RepairRequest
		if err := tx.First(&request, acc.RequestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return unavailable(err)
		}

		res := tx.Model(&model.RepairRequest{}).
			Where("id = ? AND status <> ?", acc.RequestID, model.RequestAccepted).
			Update("status", model.RequestAccepted)
		if res.Error != nil {
			return unavailable(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		// A rejected request being accepted directly re-enters the counted
		// set, so its slot has to be taken back first.
		if request.Status == model.RequestRejected && s.hours.Contains(request.AppointmentDate) {
			if err := s.reserveSlot(tx, request.TechnicianID, s.hours.DayKey(request.AppointmentDate)); err != nil {
				return err
			}
		}

		repair = model.Repair{
			RepairRequestID:  acc.RequestID,
			Status:           acc.InitialStatus,
			TotalCost:        acc.TotalCost,
			IdentifiedIssue:  issue,
			IdentifiedDevice: device,
		}
		if err := tx.Create(&repair).Error; err != nil {
			// The unique index on repair_request_id backs up the status
			// guard; a duplicate insert means we lost a race.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return model.Repair{}, err
	}
	return repair, nil
}

// UpdateRepairStatus moves a repair record between work states. Every
// pairwise transition is currently permitted by the transition table.
func (s *gormStore) UpdateRepairStatus(ctx context.Context, repairID int64, status model.RepairStatus) (model.Repair, error) {
	if !status.Valid() {
		return model.Repair{}, invalidf("unknown repair status %q", status)
	}

	var repair model.Repair
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&repair, repairID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return unavailable(err)
		}
		if !repair.Status.CanTransitionTo(status) {
			return ErrConflict
		}
		if err := tx.Model(&repair).Update("status", status).Error; err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return model.Repair{}, err
	}
	return repair, nil
}

// UpdateRepairDetails replaces the cost and diagnosis fields of a repair.
func (s *gormStore) UpdateRepairDetails(ctx context.Context, repairID int64, details RepairDetails) (model.Repair, error) {
	if details.TotalCost < 0 {
		return model.Repair{}, invalidf("total cost must not be negative")
	}
	issue := strings.TrimSpace(details.IdentifiedIssue)
	device := strings.TrimSpace(details.IdentifiedDevice)
	if issue == "" {
		return model.Repair{}, invalidf("identified issue must not be blank")
	}
	if device == "" {
		return model.Repair{}, invalidf("identified device must not be blank")
	}

	var repair model.Repair
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&repair, repairID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return unavailable(err)
		}
		updates := map[string]any{
			"total_cost":        details.TotalCost,
			"identified_issue":  issue,
			"identified_device": device,
		}
		if err := tx.Model(&repair).Updates(updates).Error; err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return model.Repair{}, err
	}
	return repair, nil
}

// ListRequests returns repair requests, newest first, scoped by the filter.
func (s *gormStore) ListRequests(ctx context.Context, filter RequestFilter) ([]model.RepairRequest, error) {
	q := s.db.WithContext(ctx).Model(&model.RepairRequest{})
	if filter.TechnicianID != 0 {
		q = q.Where("technician_id = ?", filter.TechnicianID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var requests []model.RepairRequest
	if err := q.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, unavailable(err)
	}
	return requests, nil
}

// GetRequest returns a single repair request by id.
func (s *gormStore) GetRequest(ctx context.Context, id int64) (model.RepairRequest, error) {
	var request model.RepairRequest
	if err := s.db.WithContext(ctx).First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.RepairRequest{}, ErrNotFound
		}
		return model.RepairRequest{}, unavailable(err)
	}
	return request, nil
}

// ListRepairs returns repair records, newest first, optionally scoped to
// the technician that owns the parent request.
func (s *gormStore) ListRepairs(ctx context.Context, filter RepairFilter) ([]model.Repair, error) {
	q := s.db.WithContext(ctx).Model(&model.Repair{})
	if filter.TechnicianID != 0 {
		q = q.Joins("JOIN repair_requests ON repair_requests.id = repairs.repair_request_id").
			Where("repair_requests.technician_id = ?", filter.TechnicianID)
	}

	var repairs []model.Repair
	if err := q.Order("repairs.created_at DESC").Find(&repairs).Error; err != nil {
		return nil, unavailable(err)
	}
	return repairs, nil
}

// GetRepair returns a single repair record with its parent request loaded.
func (s *gormStore) GetRepair(ctx context.Context, id int64) (model.Repair, error) {
	var repair model.Repair
	if err := s.db.WithContext(ctx).Preload("RepairRequest").First(&repair, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Repair{}, ErrNotFound
		}
		return model.Repair{}, unavailable(err)
	}
	return repair, nil
}
