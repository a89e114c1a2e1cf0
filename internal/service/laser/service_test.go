package laser

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

var admin = model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}

func newService() (*Service, *mocks.LaserAreaRepository, *mocks.LaserScheduleRepository) {
	areas := new(mocks.LaserAreaRepository)
	schedules := new(mocks.LaserScheduleRepository)
	return NewService(areas, schedules, audit.Nop()), areas, schedules
}

func TestCreateAreaDefaults(t *testing.T) {
	svc, areas, _ := newService()
	areas.On("Create", mock.Anything, mock.Anything).Return(nil)

	area, err := svc.CreateArea(context.Background(), admin, &model.CreateLaserAreaRequest{Name: " Legs "})
	require.NoError(t, err)
	assert.Equal(t, "Legs", area.Name)
	assert.True(t, area.IsActive)
	assert.Equal(t, model.DefaultDeadlineResetDays, area.DeadlineReset)
	assert.Equal(t, model.DefaultOperateMinutes, area.OperateTime)
}

func TestActiveAreasAreCachedUntilWrite(t *testing.T) {
	svc, areas, _ := newService()
	listed := []*model.LaserArea{{Name: "Face", IsActive: true}}
	areas.On("List", mock.Anything, mock.MatchedBy(func(f model.LaserAreaFilter) bool {
		return f.ActiveOnly
	})).Return(listed, nil)

	for i := 0; i < 3; i++ {
		got, err := svc.ListActiveAreas(context.Background(), model.ListParams{})
		require.NoError(t, err)
		assert.Equal(t, listed, got)
	}
	areas.AssertNumberOfCalls(t, "List", 1)

	areas.On("Delete", mock.Anything, "Face").Return(nil)
	require.NoError(t, svc.DeleteArea(context.Background(), admin, "Face"))

	_, err := svc.ListActiveAreas(context.Background(), model.ListParams{})
	require.NoError(t, err)
	areas.AssertNumberOfCalls(t, "List", 2)
}

func TestInactiveAreaHiddenFromCustomers(t *testing.T) {
	svc, areas, _ := newService()
	areas.On("Get", mock.Anything, "Back").Return(&model.LaserArea{Name: "Back"}, nil)

	_, err := svc.GetArea(context.Background(), model.Actor{Role: model.RoleCustomer}, "Back")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = svc.GetArea(context.Background(), admin, "Back")
	assert.NoError(t, err)
}

func TestCreateScheduleValidatesWindow(t *testing.T) {
	svc, areas, schedules := newService()
	areas.On("Get", mock.Anything, "Face").Return(&model.LaserArea{Name: "Face", OperateTime: 7}, nil)

	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err := svc.CreateSchedule(context.Background(), admin, &model.CreateLaserScheduleRequest{
		LaserArea: "Face", Price: 10, StartTime: &start, EndTime: &end,
	})
	assert.ErrorContains(t, err, "end_time must be after start_time")
	schedules.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	end = start.Add(time.Hour)
	schedules.On("Create", mock.Anything, mock.Anything).Return(nil)
	sched, err := svc.CreateSchedule(context.Background(), admin, &model.CreateLaserScheduleRequest{
		LaserArea: "Face", Price: 10, StartTime: &start, EndTime: &end,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, sched.OperateTime)
}

func TestCreateScheduleUnknownArea(t *testing.T) {
	svc, areas, _ := newService()
	areas.On("Get", mock.Anything, "Nope").Return(nil, apperrors.NotFound("laser area", nil))

	_, err := svc.CreateSchedule(context.Background(), admin, &model.CreateLaserScheduleRequest{LaserArea: "Nope"})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestListActiveSchedulesUsesNow(t *testing.T) {
	svc, _, schedules := newService()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	schedules.On("List", mock.Anything, mock.MatchedBy(func(f model.LaserScheduleFilter) bool {
		return f.ScheduledOnly && f.ActiveAt != nil && f.ActiveAt.Equal(now)
	})).Return([]*model.LaserAreaSchedule{}, nil)

	_, err := svc.ListActiveSchedules(context.Background(), model.ListParams{})
	require.NoError(t, err)
	schedules.AssertExpectations(t)
}
