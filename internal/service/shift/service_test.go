package shift

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/mocks"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

var (
	now   = time.Date(2026, 6, 10, 8, 30, 0, 0, time.UTC)
	admin = model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
)

func newService() (*Service, *mocks.ShiftRepository, *mocks.CancellationPeriodRepository, *mocks.UserRepository) {
	shifts := new(mocks.ShiftRepository)
	periods := new(mocks.CancellationPeriodRepository)
	users := new(mocks.UserRepository)
	svc := NewService(shifts, periods, users, audit.Nop(), time.UTC)
	svc.now = func() time.Time { return now }
	return svc, shifts, periods, users
}

func TestCreateShiftDefaults(t *testing.T) {
	svc, shifts, _, users := newService()
	op := &model.User{Base: model.Base{ID: uuid.New()}, Username: "nurse1", Role: model.RoleStaff}
	users.On("Get", mock.Anything, op.ID).Return(op, nil)
	shifts.On("Create", mock.Anything, mock.Anything).Return(nil)

	shift, err := svc.CreateShift(context.Background(), admin, &model.CreateShiftRequest{
		OperatorID: op.ID,
		ShiftDate:  model.NewDate(now),
	})
	require.NoError(t, err)
	assert.Equal(t, "nurse1", shift.OperatorName)
	assert.Equal(t, model.PeriodMorning, shift.Period)
}

func TestCreateShiftDuplicate(t *testing.T) {
	svc, shifts, _, users := newService()
	op := &model.User{Base: model.Base{ID: uuid.New()}, Username: "nurse1", Role: model.RoleStaff}
	users.On("Get", mock.Anything, op.ID).Return(op, nil)
	shifts.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.Conflict("a shift for this operator, date and period already exists", nil))

	_, err := svc.CreateShift(context.Background(), admin, &model.CreateShiftRequest{OperatorID: op.ID, ShiftDate: model.NewDate(now)})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestListActiveShiftsFromToday(t *testing.T) {
	svc, shifts, _, _ := newService()
	staff := model.Actor{UserID: uuid.New(), Role: model.RoleStaff}

	shifts.On("List", mock.Anything, mock.MatchedBy(func(f model.ShiftFilter) bool {
		return f.OperatorID != nil && *f.OperatorID == staff.UserID &&
			f.From != nil && f.From.String() == "2026-06-10"
	})).Return([]*model.OperatorShift{}, nil)

	_, err := svc.ListActiveShifts(context.Background(), staff, model.ListParams{})
	require.NoError(t, err)
	shifts.AssertExpectations(t)
}

func TestCreatePeriodRejectsPastStart(t *testing.T) {
	svc, _, periods, _ := newService()

	_, err := svc.CreatePeriod(context.Background(), admin, &model.CancellationPeriodRequest{
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	})
	assert.ErrorContains(t, err, "start_time cannot be in the past")

	_, err = svc.CreatePeriod(context.Background(), admin, &model.CancellationPeriodRequest{
		StartTime: now.Add(2 * time.Hour),
		EndTime:   now.Add(time.Hour),
	})
	assert.ErrorContains(t, err, "end_time must be after start_time")
	periods.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateStartedPeriodKeepsStart(t *testing.T) {
	svc, _, periods, _ := newService()
	p := &model.CancellationPeriod{
		Base:      model.Base{ID: uuid.New()},
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}
	periods.On("Get", mock.Anything, p.ID).Return(p, nil)
	periods.On("Update", mock.Anything, p).Return(nil)

	got, err := svc.UpdatePeriod(context.Background(), admin, p.ID, &model.CancellationPeriodRequest{
		StartTime: p.StartTime,
		EndTime:   now.Add(3 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, now.Add(3*time.Hour), got.EndTime)
}

func TestEndedPeriodHiddenFromNonAdmins(t *testing.T) {
	svc, _, periods, _ := newService()
	p := &model.CancellationPeriod{
		Base:      model.Base{ID: uuid.New()},
		StartTime: now.Add(-3 * time.Hour),
		EndTime:   now.Add(-time.Hour),
	}
	periods.On("Get", mock.Anything, p.ID).Return(p, nil)

	_, err := svc.GetPeriod(context.Background(), model.Actor{Role: model.RoleCustomer}, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = svc.GetPeriod(context.Background(), admin, p.ID)
	assert.NoError(t, err)
}
