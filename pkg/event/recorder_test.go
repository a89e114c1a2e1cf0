package event

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/mocks"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

func TestEmitWritesOutboxRow(t *testing.T) {
	repo := new(mocks.OutboxRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *model.OutboxEvent) bool {
		return e.EventType == model.EventReservationConfirmed && string(e.Payload) == `{"id":"abc"}`
	})).Return(nil)

	NewRecorder(repo).Emit(context.Background(), model.EventReservationConfirmed, map[string]string{"id": "abc"})
	repo.AssertExpectations(t)
}

func TestEmitSwallowsErrors(t *testing.T) {
	repo := new(mocks.OutboxRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		NewRecorder(repo).Emit(context.Background(), model.EventPaymentFailed, struct{}{})
	})
	repo.AssertNumberOfCalls(t, "Create", 1)
}

type paymentPayload struct{}

func (paymentPayload) PaymentLabels() (string, string) { return "PAYPAL", "COMPLETED" }

type capture struct {
	types []string
}

func (c *capture) Emit(_ context.Context, eventType string, _ interface{}) {
	c.types = append(c.types, eventType)
}

func TestWithMetricsCountsAndForwards(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	next := &capture{}
	r := WithMetrics(next, m)

	r.Emit(context.Background(), model.EventReservationConfirmed, struct{}{})
	r.Emit(context.Background(), model.EventPaymentCompleted, paymentPayload{})

	assert.Equal(t, []string{model.EventReservationConfirmed, model.EventPaymentCompleted}, next.types)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reservations.WithLabelValues("confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Payments.WithLabelValues("PAYPAL", "COMPLETED")))
}
