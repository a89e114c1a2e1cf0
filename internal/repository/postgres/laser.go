package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const (
	laserAreaColumns     = `name, current_price, deadline_reset, is_active, operate_time, created_at, updated_at`
	laserScheduleColumns = `id, laser_area, price, start_time, end_time, operate_time, created_at, updated_at`
)

type laserAreaRepository struct {
	BaseRepository
}

func NewLaserAreaRepository(base BaseRepository) repository.LaserAreaRepository {
	return &laserAreaRepository{base}
}

func (r *laserAreaRepository) Create(ctx context.Context, area *model.LaserArea) error {
	query := `
		INSERT INTO laser_areas (
			name, current_price, deadline_reset, is_active, operate_time, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	area.CreatedAt = time.Now()
	area.UpdatedAt = area.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		area.Name, area.CurrentPrice, area.DeadlineReset, area.IsActive, area.OperateTime,
		area.CreatedAt, area.UpdatedAt)
	if err != nil {
		return mapError(fmt.Errorf("failed to create laser area: %w", err), "laser area")
	}
	return nil
}

func (r *laserAreaRepository) Get(ctx context.Context, name string) (*model.LaserArea, error) {
	var area model.LaserArea
	query := `SELECT ` + laserAreaColumns + ` FROM laser_areas WHERE name = $1`
	if err := r.db.GetContext(ctx, &area, query, name); err != nil {
		return nil, mapError(err, "laser area")
	}
	return &area, nil
}

func (r *laserAreaRepository) List(ctx context.Context, filter model.LaserAreaFilter) ([]*model.LaserArea, error) {
	var w where
	w.search(filter.Search, "name")
	if filter.ActiveOnly {
		w.add("is_active = TRUE")
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + laserAreaColumns + ` FROM laser_areas` + w.String() + ` ORDER BY name` + limit

	areas := []*model.LaserArea{}
	if err := r.db.SelectContext(ctx, &areas, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list laser areas: %w", err)
	}
	return areas, nil
}

func (r *laserAreaRepository) Update(ctx context.Context, area *model.LaserArea) error {
	query := `
		UPDATE laser_areas SET
			current_price = $1,
			deadline_reset = $2,
			is_active = $3,
			operate_time = $4,
			updated_at = $5
		WHERE name = $6
	`

	area.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		area.CurrentPrice, area.DeadlineReset, area.IsActive, area.OperateTime, area.UpdatedAt, area.Name)
	if err != nil {
		return mapError(fmt.Errorf("failed to update laser area: %w", err), "laser area")
	}
	return expectOne(result, "laser area")
}

func (r *laserAreaRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM laser_areas WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete laser area: %w", err)
	}
	return expectOne(result, "laser area")
}

type laserScheduleRepository struct {
	BaseRepository
}

func NewLaserScheduleRepository(base BaseRepository) repository.LaserScheduleRepository {
	return &laserScheduleRepository{base}
}

func (r *laserScheduleRepository) Create(ctx context.Context, s *model.LaserAreaSchedule) error {
	query := `
		INSERT INTO laser_area_schedules (
			id, laser_area, price, start_time, end_time, operate_time, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.LaserArea, s.Price, s.StartTime, s.EndTime, s.OperateTime, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return mapError(fmt.Errorf("failed to create laser schedule: %w", err), "laser area schedule")
	}
	return nil
}

func (r *laserScheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.LaserAreaSchedule, error) {
	var s model.LaserAreaSchedule
	query := `SELECT ` + laserScheduleColumns + ` FROM laser_area_schedules WHERE id = $1`
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, mapError(err, "laser area schedule")
	}
	return &s, nil
}

func (r *laserScheduleRepository) List(ctx context.Context, filter model.LaserScheduleFilter) ([]*model.LaserAreaSchedule, error) {
	var w where
	w.search(filter.Search, "laser_area")
	if filter.LaserArea != nil {
		w.add("laser_area = ?", *filter.LaserArea)
	}
	if filter.ScheduledOnly {
		w.add("start_time IS NOT NULL")
	}
	if filter.ActiveAt != nil {
		w.add("(end_time IS NULL OR end_time >= ?)", *filter.ActiveAt)
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + laserScheduleColumns + ` FROM laser_area_schedules` + w.String() +
		` ORDER BY start_time NULLS LAST, laser_area` + limit

	schedules := []*model.LaserAreaSchedule{}
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list laser schedules: %w", err)
	}
	return schedules, nil
}

func (r *laserScheduleRepository) Update(ctx context.Context, s *model.LaserAreaSchedule) error {
	query := `
		UPDATE laser_area_schedules SET
			price = $1,
			start_time = $2,
			end_time = $3,
			operate_time = $4,
			updated_at = $5
		WHERE id = $6
	`

	s.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query, s.Price, s.StartTime, s.EndTime, s.OperateTime, s.UpdatedAt, s.ID)
	if err != nil {
		return mapError(fmt.Errorf("failed to update laser schedule: %w", err), "laser area schedule")
	}
	return expectOne(result, "laser area schedule")
}

func (r *laserScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM laser_area_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete laser schedule: %w", err)
	}
	return expectOne(result, "laser area schedule")
}

func (r *laserScheduleRepository) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	query := `SELECT COUNT(*) FROM laser_area_schedules WHERE id = ANY($1::uuid[])`
	if err := r.db.GetContext(ctx, &n, query, pq.Array(uuidStrings(ids))); err != nil {
		return 0, fmt.Errorf("failed to count laser schedules: %w", err)
	}
	return n, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
