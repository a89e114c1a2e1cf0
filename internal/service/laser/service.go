package laser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const (
	activeCacheTTL     = time.Minute
	activeCacheCleanup = 5 * time.Minute
)

type Service struct {
	areas     repository.LaserAreaRepository
	schedules repository.LaserScheduleRepository
	auditor   audit.Auditor
	active    *cache.Cache
	now       func() time.Time
}

func NewService(areas repository.LaserAreaRepository, schedules repository.LaserScheduleRepository, auditor audit.Auditor) *Service {
	return &Service{
		areas:     areas,
		schedules: schedules,
		auditor:   auditor,
		active:    cache.New(activeCacheTTL, activeCacheCleanup),
		now:       time.Now,
	}
}

func (s *Service) CreateArea(ctx context.Context, actor model.Actor, req *model.CreateLaserAreaRequest) (*model.LaserArea, error) {
	area := &model.LaserArea{
		Name:          strings.TrimSpace(req.Name),
		DeadlineReset: model.DefaultDeadlineResetDays,
		IsActive:      true,
		OperateTime:   model.DefaultOperateMinutes,
	}
	if req.CurrentPrice != nil {
		area.CurrentPrice = *req.CurrentPrice
	}
	if req.DeadlineReset != nil {
		area.DeadlineReset = *req.DeadlineReset
	}
	if req.IsActive != nil {
		area.IsActive = *req.IsActive
	}
	if req.OperateTime != nil {
		area.OperateTime = *req.OperateTime
	}
	if err := area.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.areas.Create(ctx, area); err != nil {
		return nil, fmt.Errorf("failed to create laser area: %w", err)
	}
	s.active.Flush()

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityLaserArea, area.Name, &audit.LogOptions{Changes: area})
	return area, nil
}

// GetArea loads an area by name. Non-admin callers only see active areas.
func (s *Service) GetArea(ctx context.Context, actor model.Actor, name string) (*model.LaserArea, error) {
	area, err := s.areas.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !area.IsActive {
		return nil, apperrors.NotFound("laser area", nil)
	}
	return area, nil
}

func (s *Service) ListAreas(ctx context.Context, filter model.LaserAreaFilter) ([]*model.LaserArea, error) {
	areas, err := s.areas.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list laser areas: %w", err)
	}
	return areas, nil
}

// ListActiveAreas serves the public service listing from a short-lived cache.
func (s *Service) ListActiveAreas(ctx context.Context, params model.ListParams) ([]*model.LaserArea, error) {
	key := fmt.Sprintf("%s|%d|%d", params.Search, params.Limit(), params.Offset())
	if cached, ok := s.active.Get(key); ok {
		return cached.([]*model.LaserArea), nil
	}

	areas, err := s.ListAreas(ctx, model.LaserAreaFilter{ListParams: params, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	s.active.SetDefault(key, areas)
	return areas, nil
}

func (s *Service) UpdateArea(ctx context.Context, actor model.Actor, name string, req *model.UpdateLaserAreaRequest) (*model.LaserArea, error) {
	area, err := s.areas.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if req.CurrentPrice != nil {
		area.CurrentPrice = *req.CurrentPrice
	}
	if req.DeadlineReset != nil {
		area.DeadlineReset = *req.DeadlineReset
	}
	if req.IsActive != nil {
		area.IsActive = *req.IsActive
	}
	if req.OperateTime != nil {
		area.OperateTime = *req.OperateTime
	}
	if err := area.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.areas.Update(ctx, area); err != nil {
		return nil, fmt.Errorf("failed to update laser area: %w", err)
	}
	s.active.Flush()

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityLaserArea, area.Name, &audit.LogOptions{Changes: req})
	return area, nil
}

func (s *Service) DeleteArea(ctx context.Context, actor model.Actor, name string) error {
	if err := s.areas.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete laser area: %w", err)
	}
	s.active.Flush()

	s.auditor.Log(ctx, actor.UserID, model.AuditActionDelete, model.AuditEntityLaserArea, name, nil)
	return nil
}

func (s *Service) CreateSchedule(ctx context.Context, actor model.Actor, req *model.CreateLaserScheduleRequest) (*model.LaserAreaSchedule, error) {
	area, err := s.areas.Get(ctx, req.LaserArea)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.BadRequest("laser area does not exist", err)
		}
		return nil, err
	}

	sched := &model.LaserAreaSchedule{
		LaserArea:   area.Name,
		Price:       req.Price,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		OperateTime: area.OperateTime,
	}
	if req.OperateTime != nil {
		sched.OperateTime = *req.OperateTime
	}
	if err := sched.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.schedules.Create(ctx, sched); err != nil {
		return nil, fmt.Errorf("failed to create laser schedule: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityLaserSchedule, sched.ID.String(), &audit.LogOptions{Changes: sched})
	return sched, nil
}

// GetSchedule hides unscheduled rows from non-admin callers.
func (s *Service) GetSchedule(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.LaserAreaSchedule, error) {
	sched, err := s.schedules.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && sched.StartTime == nil {
		return nil, apperrors.NotFound("laser area schedule", nil)
	}
	return sched, nil
}

func (s *Service) ListSchedules(ctx context.Context, actor model.Actor, filter model.LaserScheduleFilter) ([]*model.LaserAreaSchedule, error) {
	if !actor.IsAdmin() {
		filter.ScheduledOnly = true
	}
	schedules, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list laser schedules: %w", err)
	}
	return schedules, nil
}

// ListActiveSchedules returns schedules running now or starting later.
func (s *Service) ListActiveSchedules(ctx context.Context, params model.ListParams) ([]*model.LaserAreaSchedule, error) {
	now := s.now()
	schedules, err := s.schedules.List(ctx, model.LaserScheduleFilter{
		ListParams:    params,
		ScheduledOnly: true,
		ActiveAt:      &now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active laser schedules: %w", err)
	}
	return schedules, nil
}

func (s *Service) UpdateSchedule(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateLaserScheduleRequest) (*model.LaserAreaSchedule, error) {
	sched, err := s.schedules.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Price != nil {
		sched.Price = *req.Price
	}
	if req.StartTime != nil {
		sched.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		sched.EndTime = req.EndTime
	}
	if req.OperateTime != nil {
		sched.OperateTime = *req.OperateTime
	}
	if err := sched.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.schedules.Update(ctx, sched); err != nil {
		return nil, fmt.Errorf("failed to update laser schedule: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityLaserSchedule, sched.ID.String(), &audit.LogOptions{Changes: req})
	return sched, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete laser schedule: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionDelete, model.AuditEntityLaserSchedule, id.String(), nil)
	return nil
}
