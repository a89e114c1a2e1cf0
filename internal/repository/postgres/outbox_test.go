package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func TestOutboxRepository_CreateSendsPayloadAsText(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewOutboxRepository(base)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
		WithArgs(sqlmock.AnyArg(), model.EventReservationCreated, `{"id":"1"}`,
			model.OutboxStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := &model.OutboxEvent{EventType: model.EventReservationCreated, Payload: json.RawMessage(`{"id":"1"}`)}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.Equal(t, model.OutboxStatusPending, event.Status)
}

func TestOutboxRepository_CreateRejectsEmptyPayload(t *testing.T) {
	base, _ := setupMock(t)
	repo := NewOutboxRepository(base)

	assert.Error(t, repo.Create(context.Background(), &model.OutboxEvent{EventType: "x"}))
}

func TestOutboxRepository_ClaimsPendingEvents(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewOutboxRepository(base)

	now := time.Now()
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WithArgs(model.OutboxStatusProcessing, model.OutboxStatusPending, sqlmock.AnyArg(), 25).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_type", "payload", "status", "error_message", "retry_count", "retry_at",
			"created_at", "updated_at", "processed_at",
		}).AddRow(id.String(), model.EventPaymentCompleted, []byte(`{}`), "PROCESSING", nil, 0, nil, now, now, nil))

	events, err := repo.GetPendingEventsWithLock(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, model.OutboxStatusProcessing, events[0].Status)
}

func TestOutboxRepository_MarkFailed(t *testing.T) {
	tests := []struct {
		name       string
		retryAt    *time.Time
		wantStatus model.OutboxStatus
	}{
		{"retry scheduled", func() *time.Time { t := time.Now().Add(time.Minute); return &t }(), model.OutboxStatusPending},
		{"gives up", nil, model.OutboxStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, mock := setupMock(t)
			repo := NewOutboxRepository(base)

			id := uuid.New()
			mock.ExpectExec(regexp.QuoteMeta("retry_count = retry_count + 1")).
				WithArgs(tt.wantStatus, "redis down", sqlmock.AnyArg(), id).
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, repo.MarkFailed(context.Background(), id, "redis down", tt.retryAt))
		})
	}
}
