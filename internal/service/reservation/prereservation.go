package reservation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func (s *Service) CreatePreReservation(ctx context.Context, actor model.Actor, req *model.CreatePreReservationRequest) (*model.PreReservation, error) {
	p := &model.PreReservation{
		UserID:              req.UserID,
		LaserAreaScheduleID: req.LaserAreaScheduleID,
		SessionCount:        req.SessionCount,
		LastSessionDate:     req.LastSessionDate,
	}
	if err := p.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if err := s.requireLaserSchedule(ctx, p.LaserAreaScheduleID); err != nil {
		return nil, err
	}

	if err := s.repos.PreReservations.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create pre-reservation: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityPreReservation, p.ID.String(), &audit.LogOptions{Changes: p})
	return p, nil
}

func (s *Service) GetPreReservation(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.PreReservation, error) {
	p, err := s.repos.PreReservations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.UserID != actor.UserID {
		return nil, apperrors.NotFound("pre-reservation", nil)
	}
	return p, nil
}

func (s *Service) ListPreReservations(ctx context.Context, actor model.Actor, filter model.PreReservationFilter) ([]*model.PreReservation, error) {
	if !actor.IsAdmin() {
		filter.UserID = &actor.UserID
	}
	rows, err := s.repos.PreReservations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pre-reservations: %w", err)
	}
	return rows, nil
}

func (s *Service) UpdatePreReservation(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdatePreReservationRequest) (*model.PreReservation, error) {
	p, err := s.repos.PreReservations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.LaserAreaScheduleID != nil {
		if err := s.requireLaserSchedule(ctx, *req.LaserAreaScheduleID); err != nil {
			return nil, err
		}
		p.LaserAreaScheduleID = *req.LaserAreaScheduleID
	}
	if req.SessionCount != nil {
		p.SessionCount = *req.SessionCount
	}
	if req.LastSessionDate != nil {
		p.LastSessionDate = *req.LastSessionDate
	}
	if err := p.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.repos.PreReservations.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update pre-reservation: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityPreReservation, p.ID.String(), &audit.LogOptions{Changes: req})
	return p, nil
}

func (s *Service) requireLaserSchedule(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repos.LaserSchedules.Get(ctx, id); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.BadRequest("laser area schedule does not exist", err)
		}
		return fmt.Errorf("failed to load laser area schedule: %w", err)
	}
	return nil
}
