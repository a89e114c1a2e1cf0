package reservation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// Create books a schedule. Customers book for themselves; admins must name
// the user. New reservations start PENDING until paid.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateReservationRequest) (*model.Reservation, error) {
	userID := actor.UserID
	if actor.IsAdmin() {
		if req.UserID == nil {
			return nil, apperrors.BadRequest("user_id is required", nil)
		}
		userID = *req.UserID
	}

	r := &model.Reservation{
		UserID:               userID,
		ScheduleID:           req.ScheduleID,
		LaserArea:            req.LaserArea,
		LaserAreaSchedules:   dedupe(req.LaserAreaSchedules),
		SessionNumber:        req.SessionNumber,
		ReservationType:      req.ReservationType,
		Status:               model.ReservationPending,
		IsCharged:            req.IsCharged,
		UsedDiscountCode:     req.UsedDiscountCode,
		TotalPrice:           model.RoundMoney(req.TotalPrice),
		FinalAmount:          model.RoundMoney(req.FinalAmount),
		DiscountCode:         req.DiscountCode,
		RequestTimestamp:     req.RequestTimestamp,
		ReservationTimestamp: req.ReservationTimestamp,
	}
	if r.ReservationType == "" {
		r.ReservationType = model.ReservationStandard
	}
	if req.IsOnline != nil {
		r.IsOnline = *req.IsOnline
	}
	if r.RequestTimestamp == nil {
		now := s.now()
		r.RequestTimestamp = &now
	}
	if err := r.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	sched, err := s.repos.Schedules.Get(ctx, r.ScheduleID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.BadRequest("schedule does not exist", err)
		}
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if err := s.checkLaser(ctx, r); err != nil {
		return nil, err
	}
	if err := s.checkSlot(ctx, sched, nil); err != nil {
		return nil, err
	}

	if err := s.repos.Reservations.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityReservation, r.ID.String(), &audit.LogOptions{Changes: r})
	s.emit(ctx, model.EventReservationCreated, r)
	return r, nil
}

// checkLaser validates the laser area and laser schedules a reservation
// refers to.
func (s *Service) checkLaser(ctx context.Context, r *model.Reservation) error {
	if r.LaserArea != nil {
		area, err := s.repos.LaserAreas.Get(ctx, *r.LaserArea)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return apperrors.BadRequest("laser area does not exist", err)
			}
			return fmt.Errorf("failed to load laser area: %w", err)
		}
		if !area.IsActive {
			return apperrors.BadRequest("laser area is not active", nil)
		}
	}

	if len(r.LaserAreaSchedules) > 0 {
		n, err := s.repos.LaserSchedules.CountExisting(ctx, r.LaserAreaSchedules)
		if err != nil {
			return fmt.Errorf("failed to check laser schedules: %w", err)
		}
		if n != len(r.LaserAreaSchedules) {
			return apperrors.BadRequest("one or more laser area schedules do not exist", nil)
		}
	}
	return nil
}

// Get applies the caller's scope: customers see their own reservations and
// operators those on their schedules.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Reservation, error) {
	r, err := s.repos.Reservations.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin():
		return r, nil
	case actor.Role == model.RoleStaff:
		sched, err := s.repos.Schedules.Get(ctx, r.ScheduleID)
		if err != nil {
			return nil, fmt.Errorf("failed to load schedule: %w", err)
		}
		if sched.OperatorID == actor.UserID {
			return r, nil
		}
	case r.UserID == actor.UserID:
		return r, nil
	}
	return nil, apperrors.NotFound("reservation", nil)
}

func (s *Service) List(ctx context.Context, actor model.Actor, filter model.ReservationFilter) ([]*model.Reservation, error) {
	switch {
	case actor.IsAdmin():
	case actor.Role == model.RoleStaff:
		filter.OperatorID = &actor.UserID
	default:
		filter.UserID = &actor.UserID
	}

	reservations, err := s.repos.Reservations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

func (s *Service) ListUnpaid(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, error) {
	filter.UnpaidOnly = true
	reservations, err := s.repos.Reservations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid reservations: %w", err)
	}
	return reservations, nil
}

// Update is the admin edit. Status changes follow the reservation
// lifecycle and confirming re-checks the slot.
func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateReservationRequest) (*model.Reservation, error) {
	r, err := s.repos.Reservations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := *r

	if req.ScheduleID != nil {
		r.ScheduleID = *req.ScheduleID
	}
	if req.LaserArea != nil {
		r.LaserArea = req.LaserArea
	}
	if req.LaserAreaSchedules != nil {
		r.LaserAreaSchedules = dedupe(req.LaserAreaSchedules)
	}
	if req.SessionNumber != nil {
		r.SessionNumber = *req.SessionNumber
	}
	if req.ReservationType != nil {
		r.ReservationType = *req.ReservationType
	}
	if req.IsOnline != nil {
		r.IsOnline = *req.IsOnline
	}
	if req.IsCharged != nil {
		r.IsCharged = *req.IsCharged
	}
	if req.IsPaid != nil {
		r.IsPaid = *req.IsPaid
	}
	if req.TotalPrice != nil {
		r.TotalPrice = model.RoundMoney(*req.TotalPrice)
	}
	if req.FinalAmount != nil {
		r.FinalAmount = model.RoundMoney(*req.FinalAmount)
	}
	if req.DiscountCode != nil {
		r.DiscountCode = req.DiscountCode
	}
	if req.UsedDiscountCode != nil {
		r.UsedDiscountCode = *req.UsedDiscountCode
	}
	if req.ReservationTimestamp != nil {
		r.ReservationTimestamp = req.ReservationTimestamp
	}
	if req.Status != nil {
		if !prev.Status.CanTransitionTo(*req.Status) {
			return nil, apperrors.Conflict(fmt.Sprintf("cannot change reservation status from %s to %s", prev.Status, *req.Status), nil)
		}
		r.Status = *req.Status
	}
	if err := r.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if err := s.checkLaser(ctx, r); err != nil {
		return nil, err
	}

	scheduleChanged := r.ScheduleID != prev.ScheduleID
	if r.Status == model.ReservationConfirmed && (prev.Status != model.ReservationConfirmed || scheduleChanged) {
		sched, err := s.repos.Schedules.Get(ctx, r.ScheduleID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.BadRequest("schedule does not exist", err)
			}
			return nil, fmt.Errorf("failed to load schedule: %w", err)
		}
		if err := s.checkSlot(ctx, sched, &r.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repos.Reservations.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityReservation, r.ID.String(), &audit.LogOptions{Changes: req})
	if r.Status != prev.Status {
		if eventType, ok := statusEvent(r.Status); ok {
			s.emit(ctx, eventType, r)
		}
	}
	return r, nil
}

// Cancel lets a customer withdraw one of their own unpaid reservations.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Reservation, error) {
	r, err := s.repos.Reservations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != actor.UserID {
		return nil, apperrors.NotFound("reservation", nil)
	}
	if r.IsPaid {
		return nil, apperrors.Conflict("paid reservations cannot be cancelled, request a refund instead", nil)
	}
	if r.Status == model.ReservationCancelled {
		return r, nil
	}
	if !r.Status.CanTransitionTo(model.ReservationCancelled) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot cancel a %s reservation", r.Status), nil)
	}

	r.Status = model.ReservationCancelled
	if err := s.repos.Reservations.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to cancel reservation: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCancel, model.AuditEntityReservation, r.ID.String(), nil)
	s.emit(ctx, model.EventReservationCancelled, r)
	return r, nil
}

// MarkComplete is used by the operator who ran the session.
func (s *Service) MarkComplete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Reservation, error) {
	r, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if r.Status != model.ReservationConfirmed && r.Status != model.ReservationPending {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot complete a %s reservation", r.Status), nil)
	}

	r.Status = model.ReservationCompleted
	if err := s.repos.Reservations.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to complete reservation: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionComplete, model.AuditEntityReservation, r.ID.String(), nil)
	s.emit(ctx, model.EventReservationCompleted, r)
	return r, nil
}

// Reminders lists confirmed reservations scheduled on day.
func (s *Service) Reminders(ctx context.Context, day model.Date) ([]*model.ReservationReminder, error) {
	reminders, err := s.repos.Reservations.ListReminders(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return []uuid.UUID{}
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
