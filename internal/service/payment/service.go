package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/internal/service/reservation"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/event"
	"github.com/jwalitptl/clinic-api/pkg/gateway/paypal"
)

// Gateway captures and refunds PayPal orders.
type Gateway interface {
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Capture, error)
	RefundCapture(ctx context.Context, captureID string) (*paypal.Refund, error)
}

// SlotChecker re-applies the booking rules to a reservation about to be
// confirmed.
type SlotChecker interface {
	CheckSlot(ctx context.Context, r *model.Reservation) error
}

type Service struct {
	payments     repository.PaymentRepository
	discounts    repository.DiscountCodeRepository
	reservations repository.ReservationRepository
	slots        SlotChecker
	gateway      Gateway
	auditor      audit.Auditor
	events       event.Recorder
	now          func() time.Time
}

func NewService(payments repository.PaymentRepository, discounts repository.DiscountCodeRepository,
	reservations repository.ReservationRepository, slots SlotChecker, gateway Gateway,
	auditor audit.Auditor, events event.Recorder) *Service {
	return &Service{
		payments:     payments,
		discounts:    discounts,
		reservations: reservations,
		slots:        slots,
		gateway:      gateway,
		auditor:      auditor,
		events:       events,
		now:          time.Now,
	}
}

// Event is the payload of payment.* outbox events.
type Event struct {
	PaymentID     uuid.UUID           `json:"payment_id"`
	UserID        uuid.UUID           `json:"user_id"`
	ReservationID uuid.UUID           `json:"reservation_id"`
	Amount        float64             `json:"amount"`
	Status        model.PaymentStatus `json:"status"`
	PaymentType   model.PaymentType   `json:"payment_type"`
	FailureReason *string             `json:"failure_reason,omitempty"`
}

func (e Event) PaymentLabels() (string, string) {
	return string(e.PaymentType), string(e.Status)
}

func (s *Service) emit(ctx context.Context, eventType string, p *model.Payment) {
	s.events.Emit(ctx, eventType, Event{
		PaymentID:     p.ID,
		UserID:        p.UserID,
		ReservationID: p.ReservationID,
		Amount:        p.Amount,
		Status:        p.Status,
		PaymentType:   p.PaymentType,
		FailureReason: p.FailureReason,
	})
}

func (s *Service) emitConfirmed(ctx context.Context, p *model.Payment) {
	s.emit(ctx, model.EventPaymentCompleted, p)
	s.events.Emit(ctx, model.EventReservationConfirmed, reservation.Event{
		ReservationID: p.ReservationID,
		UserID:        p.UserID,
		Status:        model.ReservationConfirmed,
		FinalAmount:   p.Amount,
	})
}

// Create pays for one of the caller's reservations. PayPal orders are
// captured immediately; a gateway failure is stored as a FAILED payment and
// returned without error.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreatePaymentRequest) (*model.Payment, error) {
	res, err := s.reservations.Get(ctx, req.ReservationID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.BadRequest("reservation does not exist", err)
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	if res.UserID != actor.UserID {
		return nil, apperrors.BadRequest("reservation does not exist", nil)
	}
	if res.Status == model.ReservationCancelled || res.Status == model.ReservationCompleted {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot pay for a %s reservation", res.Status), nil)
	}
	if err := s.ensureUnpaid(ctx, res); err != nil {
		return nil, err
	}

	p := &model.Payment{
		UserID:        actor.UserID,
		ReservationID: res.ID,
		Amount:        res.FinalAmount,
		Status:        model.PaymentPending,
		PaymentType:   req.PaymentType,
	}
	if p.PaymentType == "" {
		p.PaymentType = model.PaymentTypePayPal
	}

	code := strings.TrimSpace(req.DiscountCode)
	if code != "" {
		if p.Amount, err = s.applyDiscount(ctx, code, p.Amount); err != nil {
			return nil, err
		}
		p.DiscountCode = &code
	}

	if p.PaymentType != model.PaymentTypePayPal {
		if err := s.payments.Create(ctx, p, model.SettleOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create payment: %w", err)
		}
		s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityPayment, p.ID.String(), &audit.LogOptions{Changes: p})
		return p, nil
	}

	orderID := strings.TrimSpace(req.PaypalOrderID)
	if orderID == "" {
		return nil, apperrors.BadRequest("paypal_order_id is required for PayPal payments", nil)
	}
	p.PaypalOrderID = &orderID

	if err := s.slots.CheckSlot(ctx, res); err != nil {
		return nil, err
	}
	return s.capture(ctx, actor, p)
}

// ensureUnpaid rejects a reservation that is paid or already carries a
// PENDING or COMPLETED payment.
func (s *Service) ensureUnpaid(ctx context.Context, res *model.Reservation) error {
	if res.IsPaid {
		return apperrors.Conflict("reservation is already paid", nil)
	}
	open, err := s.payments.HasOpen(ctx, res.ID)
	if err != nil {
		return err
	}
	if open {
		return apperrors.Conflict("reservation already has a pending or completed payment", nil)
	}
	return nil
}

func (s *Service) capture(ctx context.Context, actor model.Actor, p *model.Payment) (*model.Payment, error) {
	capture, err := s.gateway.CaptureOrder(ctx, *p.PaypalOrderID)
	if err != nil {
		log.Warn().Err(err).Str("order_id", *p.PaypalOrderID).Msg("paypal capture failed")
		return s.recordFailure(ctx, actor, p, gatewayReason(err))
	}

	now := s.now()
	p.Status = model.PaymentCompleted
	p.PaypalTransactionID = &capture.CaptureID
	p.PaymentTimestamp = &now

	err = s.payments.Create(ctx, p, model.SettleOptions{
		RedeemDiscount:     p.DiscountCode,
		ConfirmReservation: true,
	})
	if err != nil {
		// Captured but not stored: refund the capture.
		if _, refundErr := s.gateway.RefundCapture(context.WithoutCancel(ctx), capture.CaptureID); refundErr != nil {
			log.Error().Err(refundErr).Str("capture_id", capture.CaptureID).Msg("failed to refund orphaned capture")
		}
		p.Status = model.PaymentPending
		p.PaypalTransactionID = nil
		p.PaymentTimestamp = nil
		if _, recErr := s.recordFailure(ctx, actor, p, err.Error()); recErr != nil {
			log.Error().Err(recErr).Msg("failed to record failed payment")
		}
		return nil, err
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityPayment, p.ID.String(), &audit.LogOptions{Changes: p})
	s.emitConfirmed(ctx, p)
	return p, nil
}

func (s *Service) recordFailure(ctx context.Context, actor model.Actor, p *model.Payment, reason string) (*model.Payment, error) {
	p.Status = model.PaymentFailed
	p.FailureReason = &reason
	if err := s.payments.Create(context.WithoutCancel(ctx), p, model.SettleOptions{}); err != nil {
		return nil, fmt.Errorf("failed to record failed payment: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityPayment, p.ID.String(), &audit.LogOptions{Changes: p})
	s.emit(ctx, model.EventPaymentFailed, p)
	return p, nil
}

func gatewayReason(err error) string {
	var apiErr *paypal.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// AdminCreate records a payment directly, e.g. one settled at the front desk.
func (s *Service) AdminCreate(ctx context.Context, actor model.Actor, req *model.AdminCreatePaymentRequest) (*model.Payment, error) {
	p := &model.Payment{
		UserID:              req.UserID,
		ReservationID:       req.ReservationID,
		Amount:              model.RoundMoney(req.Amount),
		Status:              req.Status,
		PaymentType:         req.PaymentType,
		PaypalTransactionID: req.PaypalTransactionID,
	}
	if p.Status == "" {
		p.Status = model.PaymentPending
	}
	if p.PaymentType == "" {
		p.PaymentType = model.PaymentTypePayPal
	}
	if err := p.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	res, err := s.reservations.Get(ctx, p.ReservationID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.BadRequest("reservation does not exist", err)
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	if res.UserID != p.UserID {
		return nil, apperrors.BadRequest("reservation belongs to another user", nil)
	}
	if p.Status == model.PaymentPending || p.Status == model.PaymentCompleted {
		if err := s.ensureUnpaid(ctx, res); err != nil {
			return nil, err
		}
	}

	opts := model.SettleOptions{}
	if p.Status == model.PaymentCompleted {
		if err := s.slots.CheckSlot(ctx, res); err != nil {
			return nil, err
		}
		now := s.now()
		p.PaymentTimestamp = &now
		opts.ConfirmReservation = true
	}

	if err := s.payments.Create(ctx, p, opts); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityPayment, p.ID.String(), &audit.LogOptions{Changes: p})
	if opts.ConfirmReservation {
		s.emitConfirmed(ctx, p)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Payment, error) {
	p, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.UserID != actor.UserID {
		return nil, apperrors.NotFound("payment", nil)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, filter model.PaymentFilter) ([]*model.Payment, error) {
	if !actor.IsAdmin() {
		filter.UserID = &actor.UserID
	}
	payments, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (s *Service) ListPending(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, error) {
	status := model.PaymentPending
	filter.Status = &status
	return s.List(ctx, model.Actor{Role: model.RoleAdmin}, filter)
}

// Update is the admin edit. Status only moves forward; completing a payment
// confirms its reservation and consumes its discount code. Moving to
// REFUNDED goes through Refund.
func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdatePaymentRequest) (*model.Payment, error) {
	p, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := p.Status

	if req.Status != nil && !prev.CanTransitionTo(*req.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot change payment status from %s to %s", prev, *req.Status), nil)
	}
	if req.Status != nil && *req.Status == model.PaymentRefunded && prev != model.PaymentRefunded {
		return s.Refund(ctx, actor, id)
	}

	if req.Amount != nil {
		p.Amount = model.RoundMoney(*req.Amount)
	}
	if req.PaypalTransactionID != nil {
		p.PaypalTransactionID = req.PaypalTransactionID
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if err := p.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	opts := model.SettleOptions{ExpectedStatus: prev}
	completing := p.Status == model.PaymentCompleted && prev != model.PaymentCompleted
	if completing {
		res, err := s.reservations.Get(ctx, p.ReservationID)
		if err != nil {
			return nil, fmt.Errorf("failed to load reservation: %w", err)
		}
		if res.IsPaid {
			return nil, apperrors.Conflict("reservation is already paid", nil)
		}
		if err := s.slots.CheckSlot(ctx, res); err != nil {
			return nil, err
		}
		now := s.now()
		p.PaymentTimestamp = &now
		opts.ConfirmReservation = true
		opts.RedeemDiscount = p.DiscountCode
	}

	if err := s.payments.Update(ctx, p, opts); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityPayment, p.ID.String(), &audit.LogOptions{Changes: req})
	switch {
	case completing:
		s.emitConfirmed(ctx, p)
	case p.Status == model.PaymentFailed && prev != model.PaymentFailed:
		s.emit(ctx, model.EventPaymentFailed, p)
	}
	return p, nil
}

// Refund returns a completed payment. PayPal captures are refunded through
// the gateway first; the reservation is released afterwards.
func (s *Service) Refund(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Payment, error) {
	p, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentCompleted {
		return nil, apperrors.Conflict("only completed payments can be refunded", nil)
	}

	if p.PaymentType == model.PaymentTypePayPal && p.PaypalTransactionID != nil {
		if _, err := s.gateway.RefundCapture(ctx, *p.PaypalTransactionID); err != nil {
			log.Error().Err(err).Str("payment_id", p.ID.String()).Msg("paypal refund failed")
			return nil, apperrors.Conflict("payment gateway rejected the refund: "+gatewayReason(err), err)
		}
	}

	if err := s.payments.MarkRefunded(ctx, p); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionRefund, model.AuditEntityPayment, p.ID.String(), nil)
	s.emitRefunded(ctx, p)
	return p, nil
}

func (s *Service) emitRefunded(ctx context.Context, p *model.Payment) {
	s.emit(ctx, model.EventPaymentRefunded, p)
	s.events.Emit(ctx, model.EventReservationCancelled, reservation.Event{
		ReservationID: p.ReservationID,
		UserID:        p.UserID,
		Status:        model.ReservationCancelled,
	})
}

// ExpirePending cancels PayPal payments left PENDING for longer than ttl and
// offline ones left PENDING for longer than offlineTTL.
func (s *Service) ExpirePending(ctx context.Context, ttl, offlineTTL time.Duration) (int, error) {
	now := s.now()
	groups := []struct {
		types  []model.PaymentType
		before time.Time
	}{
		{[]model.PaymentType{model.PaymentTypePayPal}, now.Add(-ttl)},
		{[]model.PaymentType{model.PaymentTypeCreditCard, model.PaymentTypeBankTransfer}, now.Add(-offlineTTL)},
	}

	total := 0
	for _, g := range groups {
		expired, err := s.payments.ExpirePending(ctx, g.types, g.before)
		if err != nil {
			return total, err
		}
		for _, p := range expired {
			s.auditor.Log(ctx, uuid.Nil, model.AuditActionCancel, model.AuditEntityPayment, p.ID.String(), &audit.LogOptions{
				Metadata: map[string]string{"reason": "expired"},
			})
			s.emit(ctx, model.EventPaymentExpired, p)
		}
		total += len(expired)
	}
	return total, nil
}
