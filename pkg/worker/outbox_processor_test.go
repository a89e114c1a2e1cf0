package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockOutboxRepo) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	events, _ := args.Get(0).([]*model.OutboxEvent)
	return events, args.Error(1)
}

func (m *MockOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error {
	return m.Called(ctx, id, errMsg, retryAt).Error(0)
}

func (m *MockOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

func (m *MockBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	args := m.Called(ctx, channel)
	return nil, args.Error(1)
}

func (m *MockBroker) Close() error {
	return m.Called().Error(0)
}

func newProcessor(t *testing.T, repo *MockOutboxRepo, broker *MockBroker, maxDeliveries int) (*OutboxProcessor, *metrics.Metrics) {
	t.Helper()
	m := metrics.New("test", prometheus.NewRegistry())
	p, err := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		MaxDeliveries: maxDeliveries,
	}, logger.NewLogger(&logger.Config{Output: io.Discard}), m)
	require.NoError(t, err)
	p.sleep = func(time.Duration) {}
	return p, m
}

func TestProcessBatchPublishesAndMarksProcessed(t *testing.T) {
	repo := new(MockOutboxRepo)
	broker := new(MockBroker)
	p, m := newProcessor(t, repo, broker, 3)

	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventReservationCreated,
		Payload:   json.RawMessage(`{"id":"1"}`),
	}

	repo.On("GetPendingEventsWithLock", mock.Anything, 10).Return([]*model.OutboxEvent{event}, nil)
	broker.On("Publish", mock.Anything, model.EventReservationCreated, mock.MatchedBy(func(msg messaging.Message) bool {
		return msg.ID == event.ID.String() && msg.Type == event.EventType
	})).Return(nil)
	repo.On("MarkProcessed", mock.Anything, event.ID).Return(nil)

	require.NoError(t, p.ProcessBatch(context.Background()))

	repo.AssertExpectations(t)
	broker.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsProcessed))
}

func TestProcessBatchSchedulesRetry(t *testing.T) {
	repo := new(MockOutboxRepo)
	broker := new(MockBroker)
	p, m := newProcessor(t, repo, broker, 3)

	event := &model.OutboxEvent{ID: uuid.New(), EventType: model.EventPaymentFailed, Payload: json.RawMessage(`{}`)}

	repo.On("GetPendingEventsWithLock", mock.Anything, 10).Return([]*model.OutboxEvent{event}, nil)
	broker.On("Publish", mock.Anything, model.EventPaymentFailed, mock.Anything).Return(errors.New("redis down")).Twice()
	repo.On("MarkFailed", mock.Anything, event.ID, "redis down", mock.MatchedBy(func(at *time.Time) bool {
		return at != nil && at.After(time.Now().Add(-time.Second))
	})).Return(nil)

	require.NoError(t, p.ProcessBatch(context.Background()))

	repo.AssertExpectations(t)
	broker.AssertNumberOfCalls(t, "Publish", 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsFailed))
}

func TestProcessBatchGivesUpAfterMaxDeliveries(t *testing.T) {
	repo := new(MockOutboxRepo)
	broker := new(MockBroker)
	p, _ := newProcessor(t, repo, broker, 3)

	event := &model.OutboxEvent{ID: uuid.New(), EventType: model.EventPaymentFailed, RetryCount: 2}

	repo.On("GetPendingEventsWithLock", mock.Anything, 10).Return([]*model.OutboxEvent{event}, nil)
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	repo.On("MarkFailed", mock.Anything, event.ID, "redis down", (*time.Time)(nil)).Return(nil)

	require.NoError(t, p.ProcessBatch(context.Background()))
	repo.AssertExpectations(t)
}

func TestProcessBatchRepositoryError(t *testing.T) {
	repo := new(MockOutboxRepo)
	broker := new(MockBroker)
	p, _ := newProcessor(t, repo, broker, 3)

	repo.On("GetPendingEventsWithLock", mock.Anything, 10).Return(nil, errors.New("db gone"))

	err := p.ProcessBatch(context.Background())
	assert.ErrorContains(t, err, "db gone")
	broker.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestNewOutboxProcessorRejectsInvalidConfig(t *testing.T) {
	_, err := NewOutboxProcessor(nil, nil, OutboxProcessorConfig{}, nil, nil)
	assert.Error(t, err)
}
