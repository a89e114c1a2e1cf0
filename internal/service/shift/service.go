package shift

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	shifts  repository.ShiftRepository
	periods repository.CancellationPeriodRepository
	users   repository.UserRepository
	auditor audit.Auditor
	loc     *time.Location
	now     func() time.Time
}

func NewService(shifts repository.ShiftRepository, periods repository.CancellationPeriodRepository,
	users repository.UserRepository, auditor audit.Auditor, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		shifts:  shifts,
		periods: periods,
		users:   users,
		auditor: auditor,
		loc:     loc,
		now:     time.Now,
	}
}

func (s *Service) today() model.Date {
	return model.NewDate(s.now().In(s.loc))
}

// CreateShift assigns an operator to a day. operator_name defaults to the
// operator's username and period to MORNING.
func (s *Service) CreateShift(ctx context.Context, actor model.Actor, req *model.CreateShiftRequest) (*model.OperatorShift, error) {
	operator, err := s.users.Get(ctx, req.OperatorID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.BadRequest("operator does not exist", err)
		}
		return nil, fmt.Errorf("failed to load operator: %w", err)
	}
	if operator.Role != model.RoleStaff {
		return nil, apperrors.BadRequest("operator must be a staff member", nil)
	}

	shift := &model.OperatorShift{
		OperatorID:   operator.ID,
		OperatorName: strings.TrimSpace(req.OperatorName),
		ShiftDate:    req.ShiftDate,
		Period:       model.PeriodMorning,
	}
	if shift.OperatorName == "" {
		shift.OperatorName = operator.Username
	}
	if req.Period != nil {
		shift.Period = *req.Period
	}
	if err := shift.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.shifts.Create(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityShift, shift.ID.String(), &audit.LogOptions{Changes: shift})
	return shift, nil
}

func (s *Service) GetShift(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.OperatorShift, error) {
	shift, err := s.shifts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && shift.OperatorID != actor.UserID {
		return nil, apperrors.NotFound("shift", nil)
	}
	return shift, nil
}

func (s *Service) ListShifts(ctx context.Context, actor model.Actor, filter model.ShiftFilter) ([]*model.OperatorShift, error) {
	if !actor.IsAdmin() {
		filter.OperatorID = &actor.UserID
	}
	shifts, err := s.shifts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

// ListActiveShifts returns the caller's shifts from today on.
func (s *Service) ListActiveShifts(ctx context.Context, actor model.Actor, params model.ListParams) ([]*model.OperatorShift, error) {
	today := s.today()
	return s.ListShifts(ctx, actor, model.ShiftFilter{ListParams: params, From: &today})
}

func (s *Service) UpdateShift(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateShiftRequest) (*model.OperatorShift, error) {
	shift, err := s.shifts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.OperatorName != nil {
		shift.OperatorName = strings.TrimSpace(*req.OperatorName)
	}
	if req.ShiftDate != nil {
		shift.ShiftDate = *req.ShiftDate
	}
	if req.Period != nil {
		shift.Period = *req.Period
	}
	if err := shift.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.shifts.Update(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to update shift: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityShift, shift.ID.String(), &audit.LogOptions{Changes: req})
	return shift, nil
}

func (s *Service) DeleteShift(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := s.shifts.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	s.auditor.Log(ctx, actor.UserID, model.AuditActionDelete, model.AuditEntityShift, id.String(), nil)
	return nil
}
