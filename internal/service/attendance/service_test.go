package attendance

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

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newService() (*Service, *mocks.AttendanceRepository, *mocks.UserRepository) {
	repo := new(mocks.AttendanceRepository)
	users := new(mocks.UserRepository)
	svc := NewService(repo, users, audit.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, users
}

func TestCheckInAndOut(t *testing.T) {
	svc, repo, _ := newService()
	staff := model.Actor{UserID: uuid.New(), Role: model.RoleStaff}

	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *model.StaffAttendance) bool {
		return a.StaffID == staff.UserID && a.EntryTimestamp.Equal(fixedNow) && !a.HasExited
	})).Return(nil)

	entry, err := svc.CheckIn(context.Background(), staff)
	require.NoError(t, err)

	entry.ID = uuid.New()
	entry.EntryTimestamp = fixedNow.Add(-8 * time.Hour)
	repo.On("Get", mock.Anything, entry.ID).Return(entry, nil)
	repo.On("Update", mock.Anything, entry).Return(nil)

	out, err := svc.CheckOut(context.Background(), staff, entry.ID)
	require.NoError(t, err)
	assert.True(t, out.HasExited)
	assert.Equal(t, fixedNow, *out.ExitTimestamp)

	_, err = svc.CheckOut(context.Background(), staff, entry.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestStaffCannotSeeOthersEntries(t *testing.T) {
	svc, repo, _ := newService()
	entry := &model.StaffAttendance{Base: model.Base{ID: uuid.New()}, StaffID: uuid.New()}
	repo.On("Get", mock.Anything, entry.ID).Return(entry, nil)

	_, err := svc.Get(context.Background(), model.Actor{UserID: uuid.New(), Role: model.RoleStaff}, entry.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	got, err := svc.Get(context.Background(), model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestListScopesStaffToOwnRows(t *testing.T) {
	svc, repo, _ := newService()
	staff := model.Actor{UserID: uuid.New(), Role: model.RoleStaff}
	repo.On("List", mock.Anything, mock.MatchedBy(func(f model.AttendanceFilter) bool {
		return f.StaffID != nil && *f.StaffID == staff.UserID
	})).Return([]*model.StaffAttendance{}, nil)

	_, err := svc.List(context.Background(), staff, model.AttendanceFilter{})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreateRejectsExitBeforeEntry(t *testing.T) {
	svc, repo, users := newService()
	staffID := uuid.New()
	users.On("Get", mock.Anything, staffID).Return(&model.User{Role: model.RoleStaff}, nil)

	exit := fixedNow.Add(-time.Hour)
	_, err := svc.Create(context.Background(), model.Actor{Role: model.RoleAdmin}, &model.CreateAttendanceRequest{
		StaffID:       staffID,
		ExitTimestamp: &exit,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateRequiresStaffUser(t *testing.T) {
	svc, _, users := newService()
	id := uuid.New()
	users.On("Get", mock.Anything, id).Return(&model.User{Role: model.RoleCustomer}, nil)

	_, err := svc.Create(context.Background(), model.Actor{Role: model.RoleAdmin}, &model.CreateAttendanceRequest{StaffID: id})
	assert.ErrorContains(t, err, "not a staff member")
}
