package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Recorder writes domain events to the outbox for the worker to publish.
type Recorder interface {
	Emit(ctx context.Context, eventType string, payload interface{})
}

type outboxRecorder struct {
	repo repository.OutboxRepository
}

func NewRecorder(repo repository.OutboxRepository) Recorder {
	return &outboxRecorder{repo: repo}
}

// Emit never fails the caller; a lost event is logged.
func (r *outboxRecorder) Emit(ctx context.Context, eventType string, payload interface{}) {
	if err := r.emit(ctx, eventType, payload); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to record event")
	}
}

func (r *outboxRecorder) emit(ctx context.Context, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return r.repo.Create(context.WithoutCancel(ctx), &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	})
}

type nopRecorder struct{}

// Nop discards events.
func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) Emit(context.Context, string, interface{}) {}

// PaymentLabeled is implemented by payment event payloads so the counting
// recorder can label them without knowing their type.
type PaymentLabeled interface {
	PaymentLabels() (paymentType, status string)
}

type countingRecorder struct {
	next    Recorder
	metrics *metrics.Metrics
}

// WithMetrics counts reservation.* events by their resulting status and
// payment events by type and status before passing them on.
func WithMetrics(next Recorder, m *metrics.Metrics) Recorder {
	if m == nil {
		return next
	}
	return &countingRecorder{next: next, metrics: m}
}

func (r *countingRecorder) Emit(ctx context.Context, eventType string, payload interface{}) {
	switch {
	case strings.HasPrefix(eventType, "reservation."):
		r.metrics.Reservations.WithLabelValues(strings.TrimPrefix(eventType, "reservation.")).Inc()
	case strings.HasPrefix(eventType, "payment."):
		if p, ok := payload.(PaymentLabeled); ok {
			typ, status := p.PaymentLabels()
			r.metrics.Payments.WithLabelValues(typ, status).Inc()
		}
	}
	r.next.Emit(ctx, eventType, payload)
}
