package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"repairdesk-backend/internal/model"
	"repairdesk-backend/internal/schedule"
)

// newTestStore spins up an in-memory sqlite database with the default
// 09:00-16:59 window, capacity 6, and one active technician.
func newTestStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&model.Technician{},
		&model.RepairRequest{},
		&model.Repair{},
		&model.TechnicianDayLoad{},
		&model.PushSubscription{},
	))

	hours, err := schedule.New("09:00", "16:59", "UTC")
	require.NoError(t, err)

	require.NoError(t, db.Create(&model.Technician{ID: 1, Name: "Alice", Active: true}).Error)
	require.NoError(t, db.Create(&model.Technician{ID: 2, Name: "Bob", Active: false}).Error)

	return NewGormStore(db, hours, 6), db
}

// inWindow returns an appointment time inside the business window on a day
// `daysAhead` in the future.
func inWindow(daysAhead int, hour int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, daysAhead)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func validRequest(technicianID int64, appointment time.Time) NewRequest {
	return NewRequest{
		CustomerID:       7,
		TechnicianID:     technicianID,
		IssueDescription: "cracked screen",
		DeviceInfo:       "iPhone 12",
		AppointmentDate:  appointment,
	}
}

func TestCreateRequest_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	appointment := inWindow(7, 10)

	testCases := []struct {
		name    string
		mutate  func(*NewRequest)
		wantErr error
	}{
		{
			name:    "blank issue description",
			mutate:  func(r *NewRequest) { r.IssueDescription = "   " },
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "blank device info",
			mutate:  func(r *NewRequest) { r.DeviceInfo = "\t" },
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "appointment in the past",
			mutate:  func(r *NewRequest) { r.AppointmentDate = time.Now().Add(-time.Hour) },
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "unknown technician",
			mutate:  func(r *NewRequest) { r.TechnicianID = 999 },
			wantErr: ErrNotFound,
		},
		{
			name:    "inactive technician",
			mutate:  func(r *NewRequest) { r.TechnicianID = 2 },
			wantErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(1, appointment)
			tc.mutate(&req)

			_, err := s.CreateRequest(ctx, req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("valid request succeeds with trimmed fields", func(t *testing.T) {
		req := validRequest(1, appointment)
		req.IssueDescription = "  cracked screen  "

		id, err := s.CreateRequest(ctx, req)
		require.NoError(t, err)
		require.NotZero(t, id)

		created, err := s.GetRequest(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "cracked screen", created.IssueDescription)
		assert.Equal(t, model.RequestPending, created.Status)
	})
}

func TestCreateRequest_DailyCapacity(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	// Fill the technician's day: 6 appointments between 09:00 and 16:59.
	for i := 0; i < 6; i++ {
		_, err := s.CreateRequest(ctx, validRequest(1, inWindow(7, 9+i)))
		require.NoError(t, err)
	}

	t.Run("seventh in-window booking is refused", func(t *testing.T) {
		_, err := s.CreateRequest(ctx, validRequest(1, inWindow(7, 15)))
		assert.ErrorIs(t, err, ErrCapacityExceeded)

		var count int64
		db.Model(&model.RepairRequest{}).Where("technician_id = ?", 1).Count(&count)
		assert.Equal(t, int64(6), count, "refused booking must not insert a row")
	})

	t.Run("availability reports the day as full", func(t *testing.T) {
		avail, err := s.CheckAvailability(ctx, 1, inWindow(7, 0))
		require.NoError(t, err)
		assert.False(t, avail.Available)
		assert.Equal(t, 6, avail.AppointmentCount)
		assert.Equal(t, 6, avail.Capacity)
	})

	t.Run("appointment outside the window is not capacity-counted", func(t *testing.T) {
		evening := inWindow(7, 20)
		_, err := s.CreateRequest(ctx, validRequest(1, evening))
		assert.NoError(t, err, "20:00 appointment must bypass the 09:00-16:59 cap")
	})

	t.Run("other days are unaffected", func(t *testing.T) {
		_, err := s.CreateRequest(ctx, validRequest(1, inWindow(8, 10)))
		assert.NoError(t, err)
	})
}

func TestCreateRequest_ConcurrentBookings(t *testing.T) {
	s, db := newTestStore(t)
	day := inWindow(7, 11)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes int

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateRequest(context.Background(), validRequest(1, day))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	var count int64
	db.Model(&model.RepairRequest{}).
		Where("technician_id = ? AND status IN ?", 1,
			[]model.RequestStatus{model.RequestPending, model.RequestAccepted}).
		Count(&count)

	assert.LessOrEqual(t, count, int64(6), "capacity invariant must hold under concurrent bookings")
	assert.Equal(t, int64(successes), count, "every successful create corresponds to exactly one row")
}

func TestSetRequestStatus(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	t.Run("unknown request", func(t *testing.T) {
		err := s.SetRequestStatus(ctx, 12345, model.RequestRejected)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("accepted may not be written through this path", func(t *testing.T) {
		err := s.SetRequestStatus(ctx, 1, model.RequestAccepted)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("rejecting releases the day slot", func(t *testing.T) {
		for i := 0; i < 6; i++ {
			_, err := s.CreateRequest(ctx, validRequest(1, inWindow(7, 9+i)))
			require.NoError(t, err)
		}
		_, err := s.CreateRequest(ctx, validRequest(1, inWindow(7, 15)))
		require.ErrorIs(t, err, ErrCapacityExceeded)

		require.NoError(t, s.SetRequestStatus(ctx, 1, model.RequestRejected))

		id, err := s.CreateRequest(ctx, validRequest(1, inWindow(7, 15)))
		assert.NoError(t, err, "rejecting a request frees its slot")
		assert.NotZero(t, id)
	})

	t.Run("re-opening a rejected request re-reserves a slot", func(t *testing.T) {
		// The day is full again after the previous subtest; re-opening the
		// rejected request must fail.
		err := s.SetRequestStatus(ctx, 1, model.RequestPending)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})

	t.Run("terminal accepted state is immutable", func(t *testing.T) {
		id, err := s.CreateRequest(ctx, validRequest(1, inWindow(9, 10)))
		require.NoError(t, err)
		_, err = s.AcceptRequest(ctx, Acceptance{
			RequestID:        id,
			InitialStatus:    model.RepairDiagnosticsCompleted,
			TotalCost:        100,
			IdentifiedIssue:  "battery swollen",
			IdentifiedDevice: "Pixel 6",
		})
		require.NoError(t, err)

		err = s.SetRequestStatus(ctx, id, model.RequestRejected)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("setting the current status is a no-op", func(t *testing.T) {
		id, err := s.CreateRequest(ctx, validRequest(1, inWindow(10, 10)))
		require.NoError(t, err)
		assert.NoError(t, s.SetRequestStatus(ctx, id, model.RequestPending))
	})
}

func TestAcceptRequest(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	requestID, err := s.CreateRequest(ctx, validRequest(1, inWindow(7, 10)))
	require.NoError(t, err)

	t.Run("acceptance creates the repair and flips the request", func(t *testing.T) {
		repair, err := s.AcceptRequest(ctx, Acceptance{
			RequestID:        requestID,
			InitialStatus:    model.RepairInProgress,
			TotalCost:        1500.00,
			IdentifiedIssue:  "cracked screen",
			IdentifiedDevice: "iPhone 12",
		})
		require.NoError(t, err)

		assert.Equal(t, requestID, repair.RepairRequestID)
		assert.Equal(t, model.RepairInProgress, repair.Status)
		assert.Equal(t, 1500.00, repair.TotalCost)

		request, err := s.GetRequest(ctx, requestID)
		require.NoError(t, err)
		assert.Equal(t, model.RequestAccepted, request.Status)
	})

	t.Run("re-acceptance fails and leaves exactly one repair row", func(t *testing.T) {
		_, err := s.AcceptRequest(ctx, Acceptance{
			RequestID:        requestID,
			InitialStatus:    model.RepairCompleted,
			TotalCost:        99,
			IdentifiedIssue:  "other",
			IdentifiedDevice: "other",
		})
		assert.ErrorIs(t, err, ErrConflict)

		var count int64
		db.Model(&model.Repair{}).Where("repair_request_id = ?", requestID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("acceptance is atomic", func(t *testing.T) {
		// A request whose acceptance fails must stay pending with no repair
		// row; accepted-ness and repair-row existence always agree.
		id, err := s.CreateRequest(ctx, validRequest(1, inWindow(8, 10)))
		require.NoError(t, err)

		_, err = s.AcceptRequest(ctx, Acceptance{
			RequestID:        id,
			InitialStatus:    "totally broken", // rejected before any write
			TotalCost:        10,
			IdentifiedIssue:  "x",
			IdentifiedDevice: "y",
		})
		require.ErrorIs(t, err, ErrInvalidArgument)

		request, err := s.GetRequest(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.RequestPending, request.Status)

		var count int64
		db.Model(&model.Repair{}).Where("repair_request_id = ?", id).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("validation failures", func(t *testing.T) {
		id, err := s.CreateRequest(ctx, validRequest(1, inWindow(8, 11)))
		require.NoError(t, err)

		base := Acceptance{
			RequestID:        id,
			InitialStatus:    model.RepairDiagnosticsCompleted,
			TotalCost:        50,
			IdentifiedIssue:  "water damage",
			IdentifiedDevice: "Galaxy S22",
		}

		negative := base
		negative.TotalCost = -1
		_, err = s.AcceptRequest(ctx, negative)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		blankIssue := base
		blankIssue.IdentifiedIssue = " "
		_, err = s.AcceptRequest(ctx, blankIssue)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		blankDevice := base
		blankDevice.IdentifiedDevice = ""
		_, err = s.AcceptRequest(ctx, blankDevice)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("unknown request", func(t *testing.T) {
		_, err := s.AcceptRequest(ctx, Acceptance{
			RequestID:        98765,
			InitialStatus:    model.RepairCompleted,
			TotalCost:        10,
			IdentifiedIssue:  "x",
			IdentifiedDevice: "y",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateRepairStatus_AllTransitionsPermitted(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	requestID, err := s.CreateRequest(ctx, validRequest(1, inWindow(7, 10)))
	require.NoError(t, err)
	repair, err := s.AcceptRequest(ctx, Acceptance{
		RequestID:        requestID,
		InitialStatus:    model.RepairDiagnosticsCompleted,
		TotalCost:        200,
		IdentifiedIssue:  "dead battery",
		IdentifiedDevice: "iPhone 13",
	})
	require.NoError(t, err)

	statuses := []model.RepairStatus{
		model.RepairDiagnosticsCompleted,
		model.RepairInProgress,
		model.RepairCompleted,
	}

	// Every pairwise move, including going backwards, must succeed.
	for _, from := range statuses {
		for _, to := range statuses {
			_, err := s.UpdateRepairStatus(ctx, repair.ID, from)
			require.NoError(t, err)
			_, err = s.UpdateRepairStatus(ctx, repair.ID, to)
			assert.NoError(t, err, "transition %q -> %q must be permitted", from, to)
		}
	}

	t.Run("unknown status", func(t *testing.T) {
		_, err := s.UpdateRepairStatus(ctx, repair.ID, "exploded")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("unknown repair", func(t *testing.T) {
		_, err := s.UpdateRepairStatus(ctx, 54321, model.RepairCompleted)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateRepairDetails(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	requestID, err := s.CreateRequest(ctx, validRequest(1, inWindow(7, 10)))
	require.NoError(t, err)
	repair, err := s.AcceptRequest(ctx, Acceptance{
		RequestID:        requestID,
		InitialStatus:    model.RepairDiagnosticsCompleted,
		TotalCost:        200,
		IdentifiedIssue:  "dead battery",
		IdentifiedDevice: "iPhone 13",
	})
	require.NoError(t, err)

	t.Run("full replace of editable fields", func(t *testing.T) {
		updated, err := s.UpdateRepairDetails(ctx, repair.ID, RepairDetails{
			TotalCost:        350.50,
			IdentifiedIssue:  "battery and charging port",
			IdentifiedDevice: "iPhone 13 Pro",
		})
		require.NoError(t, err)
		assert.Equal(t, 350.50, updated.TotalCost)
		assert.Equal(t, "battery and charging port", updated.IdentifiedIssue)
		assert.Equal(t, "iPhone 13 Pro", updated.IdentifiedDevice)
	})

	t.Run("negative cost", func(t *testing.T) {
		_, err := s.UpdateRepairDetails(ctx, repair.ID, RepairDetails{
			TotalCost:        -5,
			IdentifiedIssue:  "x",
			IdentifiedDevice: "y",
		})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("unknown repair", func(t *testing.T) {
		_, err := s.UpdateRepairDetails(ctx, 99999, RepairDetails{
			TotalCost:        5,
			IdentifiedIssue:  "x",
			IdentifiedDevice: "y",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRoleScopedListings(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Technician{ID: 3, Name: "Cara", Active: true}).Error)

	idA, err := s.CreateRequest(ctx, validRequest(1, inWindow(7, 10)))
	require.NoError(t, err)
	idB, err := s.CreateRequest(ctx, validRequest(3, inWindow(7, 10)))
	require.NoError(t, err)

	_, err = s.AcceptRequest(ctx, Acceptance{
		RequestID: idA, InitialStatus: model.RepairInProgress,
		TotalCost: 10, IdentifiedIssue: "a", IdentifiedDevice: "b",
	})
	require.NoError(t, err)
	_, err = s.AcceptRequest(ctx, Acceptance{
		RequestID: idB, InitialStatus: model.RepairInProgress,
		TotalCost: 10, IdentifiedIssue: "a", IdentifiedDevice: "b",
	})
	require.NoError(t, err)

	all, err := s.ListRequests(ctx, RequestFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := s.ListRequests(ctx, RequestFilter{TechnicianID: 3})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, idB, own[0].ID)

	allRepairs, err := s.ListRepairs(ctx, RepairFilter{})
	require.NoError(t, err)
	assert.Len(t, allRepairs, 2)

	ownRepairs, err := s.ListRepairs(ctx, RepairFilter{TechnicianID: 3})
	require.NoError(t, err)
	require.Len(t, ownRepairs, 1)
	assert.Equal(t, idB, ownRepairs[0].RepairRequestID)
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, errors.Is(invalidf("field %s", "x"), ErrInvalidArgument))
	assert.True(t, errors.Is(unavailable(errors.New("conn refused")), ErrUnavailable))
}
