package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func (s *Service) CreateSchedule(ctx context.Context, actor model.Actor, req *model.CreateScheduleRequest) (*model.ReservationSchedule, error) {
	if _, err := s.requireOperator(ctx, req.OperatorID); err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, apperrors.BadRequest("date is required", nil)
	}

	sched := &model.ReservationSchedule{
		OperatorID: req.OperatorID,
		Date:       req.Date,
		Period:     req.Period,
		TimeSlot:   req.TimeSlot,
		Duration:   model.DefaultScheduleDuration,
	}
	if req.Duration != nil {
		sched.Duration = *req.Duration
	}
	if err := sched.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.repos.Schedules.Create(ctx, sched); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntitySchedule, sched.ID.String(), &audit.LogOptions{Changes: sched})
	return sched, nil
}

func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*model.ReservationSchedule, error) {
	return s.repos.Schedules.Get(ctx, id)
}

func (s *Service) ListSchedules(ctx context.Context, filter model.ScheduleFilter) ([]*model.ReservationSchedule, error) {
	schedules, err := s.repos.Schedules.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// Available lists the schedules on day that are not booked and do not
// start inside a cancellation period.
func (s *Service) Available(ctx context.Context, day *model.Date, params model.ListParams) ([]*model.ReservationSchedule, error) {
	if day == nil || day.IsZero() {
		return nil, apperrors.BadRequest(MsgDateRequired, nil)
	}

	schedules, err := s.repos.Schedules.List(ctx, model.ScheduleFilter{
		ListParams:    params,
		Date:          day,
		AvailableOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list available schedules: %w", err)
	}

	now := s.now()
	periods, err := s.repos.Cancellations.List(ctx, model.CancellationPeriodFilter{
		ListParams: model.ListParams{PageSize: model.MaxPageSize},
		ActiveAt:   &now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cancellation periods: %w", err)
	}
	if len(periods) == 0 {
		return schedules, nil
	}

	available := make([]*model.ReservationSchedule, 0, len(schedules))
	for _, sched := range schedules {
		start, _, err := sched.TimeSlot.Bounds(sched.Date, s.loc)
		if err != nil {
			continue
		}
		if !coveredByAny(periods, start) {
			available = append(available, sched)
		}
	}
	return available, nil
}

func coveredByAny(periods []*model.CancellationPeriod, t time.Time) bool {
	for _, p := range periods {
		if p.Covers(t) {
			return true
		}
	}
	return false
}

func (s *Service) UpdateSchedule(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateScheduleRequest) (*model.ReservationSchedule, error) {
	sched, err := s.repos.Schedules.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.OperatorID != nil {
		if _, err := s.requireOperator(ctx, *req.OperatorID); err != nil {
			return nil, err
		}
		sched.OperatorID = *req.OperatorID
	}
	if req.Date != nil {
		sched.Date = *req.Date
	}
	if req.Period != nil {
		sched.Period = *req.Period
	}
	if req.TimeSlot != nil {
		sched.TimeSlot = *req.TimeSlot
	}
	if req.Duration != nil {
		sched.Duration = *req.Duration
	}
	if err := sched.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.repos.Schedules.Update(ctx, sched); err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntitySchedule, sched.ID.String(), &audit.LogOptions{Changes: req})
	return sched, nil
}
