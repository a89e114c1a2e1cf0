package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo    repository.AttendanceRepository
	users   repository.UserRepository
	auditor audit.Auditor
	now     func() time.Time
}

func NewService(repo repository.AttendanceRepository, users repository.UserRepository, auditor audit.Auditor) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		auditor: auditor,
		now:     time.Now,
	}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateAttendanceRequest) (*model.StaffAttendance, error) {
	if err := s.requireStaff(ctx, req.StaffID); err != nil {
		return nil, err
	}

	a := &model.StaffAttendance{
		StaffID:        req.StaffID,
		EntryTimestamp: s.now(),
		ExitTimestamp:  req.ExitTimestamp,
		HasExited:      req.ExitTimestamp != nil,
	}
	if req.EntryTimestamp != nil {
		a.EntryTimestamp = *req.EntryTimestamp
	}
	if err := a.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create attendance: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityAttendance, a.ID.String(), &audit.LogOptions{Changes: a})
	return a, nil
}

// Get returns the entry; staff only see their own.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.StaffAttendance, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && a.StaffID != actor.UserID {
		return nil, apperrors.NotFound("staff attendance", nil)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, filter model.AttendanceFilter) ([]*model.StaffAttendance, error) {
	if !actor.IsAdmin() {
		filter.StaffID = &actor.UserID
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return rows, nil
}

// ListActive returns entries of staff still on site.
func (s *Service) ListActive(ctx context.Context, filter model.AttendanceFilter) ([]*model.StaffAttendance, error) {
	filter.ActiveOnly = true
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list active attendance: %w", err)
	}
	return rows, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateAttendanceRequest) (*model.StaffAttendance, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.EntryTimestamp != nil {
		a.EntryTimestamp = *req.EntryTimestamp
	}
	if req.ExitTimestamp != nil {
		a.ExitTimestamp = req.ExitTimestamp
		a.HasExited = true
	}
	if req.HasExited != nil {
		a.HasExited = *req.HasExited
	}
	if err := a.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update attendance: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityAttendance, a.ID.String(), &audit.LogOptions{Changes: req})
	return a, nil
}

// CheckIn opens an attendance entry for the calling staff member.
func (s *Service) CheckIn(ctx context.Context, actor model.Actor) (*model.StaffAttendance, error) {
	a := &model.StaffAttendance{
		StaffID:        actor.UserID,
		EntryTimestamp: s.now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to check in: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityAttendance, a.ID.String(), nil)
	return a, nil
}

// CheckOut closes one of the caller's own entries.
func (s *Service) CheckOut(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.StaffAttendance, error) {
	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.HasExited {
		return nil, apperrors.Conflict("already checked out", nil)
	}

	now := s.now()
	a.ExitTimestamp = &now
	a.HasExited = true
	if err := a.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to check out: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityAttendance, a.ID.String(), nil)
	return a, nil
}

func (s *Service) requireStaff(ctx context.Context, id uuid.UUID) error {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.BadRequest("staff member does not exist", err)
		}
		return fmt.Errorf("failed to load staff member: %w", err)
	}
	if u.Role != model.RoleStaff {
		return apperrors.BadRequest("user is not a staff member", nil)
	}
	return nil
}
