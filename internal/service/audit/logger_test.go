package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) Create(ctx context.Context, log *model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *mockAuditRepo) List(ctx context.Context, filter repository.AuditFilter) ([]*model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]*model.AuditLog)
	return logs, args.Error(1)
}

func (m *mockAuditRepo) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func TestAsyncLoggerWritesEntries(t *testing.T) {
	repo := new(mockAuditRepo)
	actor := uuid.New()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *model.AuditLog) bool {
		return l.UserID != nil && *l.UserID == actor &&
			l.Action == model.AuditActionCreate &&
			l.EntityType == model.AuditEntityReservation &&
			l.IPAddress == "10.0.0.1" &&
			string(l.Changes) == `{"status":"PENDING"}`
	})).Return(nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	logger := NewAsyncLogger(NewService(repo), 4)
	ctx := WithClient(context.Background(), "10.0.0.1", "test")

	logger.Log(ctx, actor, model.AuditActionCreate, model.AuditEntityReservation, "r1",
		&LogOptions{Changes: map[string]string{"status": "PENDING"}})
	logger.Log(ctx, uuid.Nil, model.AuditActionLogin, model.AuditEntityUser, "u1", nil)
	logger.Close()

	repo.AssertExpectations(t)
}

func TestAsyncLoggerDropsEntriesAfterClose(t *testing.T) {
	repo := new(mockAuditRepo)
	logger := NewAsyncLogger(NewService(repo), 4)
	logger.Close()

	assert.NotPanics(t, func() {
		logger.Log(context.Background(), uuid.New(), model.AuditActionUpdate, model.AuditEntityPayment, "p1", nil)
	})
	logger.Close()
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAsyncLoggerCloseWhileLogging(t *testing.T) {
	repo := new(mockAuditRepo)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	logger := NewAsyncLogger(NewService(repo), 8)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				logger.Log(context.Background(), uuid.Nil, model.AuditActionLogin, model.AuditEntityUser, "u1", nil)
			}
		}()
	}
	logger.Close()
	wg.Wait()
}

func TestWriteWithoutActor(t *testing.T) {
	repo := new(mockAuditRepo)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *model.AuditLog) bool {
		return l.UserID == nil && l.Changes == nil
	})).Return(nil)

	err := NewService(repo).Write(context.Background(), uuid.Nil, model.AuditActionSignup, model.AuditEntityUser, "u1", nil)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCleanupUsesRetention(t *testing.T) {
	repo := new(mockAuditRepo)
	repo.On("Cleanup", mock.Anything, mock.MatchedBy(func(before time.Time) bool {
		return before.Before(time.Now().AddDate(0, 0, -29))
	})).Return(int64(7), nil)

	n, err := NewService(repo).Cleanup(context.Background(), 30)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}
