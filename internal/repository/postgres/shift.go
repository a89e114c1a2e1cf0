package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const shiftColumns = `id, operator_id, operator_name, shift_date, period, created_at, updated_at`

type shiftRepository struct {
	BaseRepository
}

func NewShiftRepository(base BaseRepository) repository.ShiftRepository {
	return &shiftRepository{base}
}

func (r *shiftRepository) Create(ctx context.Context, s *model.OperatorShift) error {
	query := `
		INSERT INTO operator_shifts (
			id, operator_id, operator_name, shift_date, period, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OperatorID, s.OperatorName, s.ShiftDate, s.Period, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return mapError(fmt.Errorf("failed to create shift: %w", err), "operator shift")
	}
	return nil
}

func (r *shiftRepository) Get(ctx context.Context, id uuid.UUID) (*model.OperatorShift, error) {
	var s model.OperatorShift
	query := `SELECT ` + shiftColumns + ` FROM operator_shifts WHERE id = $1`
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, mapError(err, "operator shift")
	}
	return &s, nil
}

func (r *shiftRepository) List(ctx context.Context, filter model.ShiftFilter) ([]*model.OperatorShift, error) {
	var w where
	w.search(filter.Search, "operator_name", "shift_date::text")
	if filter.OperatorID != nil {
		w.add("operator_id = ?", *filter.OperatorID)
	}
	if filter.From != nil {
		w.add("shift_date >= ?", *filter.From)
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + shiftColumns + ` FROM operator_shifts` + w.String() +
		` ORDER BY shift_date, period` + limit

	shifts := []*model.OperatorShift{}
	if err := r.db.SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

func (r *shiftRepository) Update(ctx context.Context, s *model.OperatorShift) error {
	query := `
		UPDATE operator_shifts SET
			operator_name = $1,
			shift_date = $2,
			period = $3,
			updated_at = $4
		WHERE id = $5
	`

	s.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query, s.OperatorName, s.ShiftDate, s.Period, s.UpdatedAt, s.ID)
	if err != nil {
		return mapError(fmt.Errorf("failed to update shift: %w", err), "operator shift")
	}
	return expectOne(result, "operator shift")
}

func (r *shiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM operator_shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return expectOne(result, "operator shift")
}

type cancellationPeriodRepository struct {
	BaseRepository
}

func NewCancellationPeriodRepository(base BaseRepository) repository.CancellationPeriodRepository {
	return &cancellationPeriodRepository{base}
}

func (r *cancellationPeriodRepository) Create(ctx context.Context, p *model.CancellationPeriod) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cancellation_periods (id, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.StartTime, p.EndTime, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapError(fmt.Errorf("failed to create cancellation period: %w", err), "cancellation period")
	}
	return nil
}

func (r *cancellationPeriodRepository) Get(ctx context.Context, id uuid.UUID) (*model.CancellationPeriod, error) {
	var p model.CancellationPeriod
	query := `SELECT id, start_time, end_time, created_at, updated_at FROM cancellation_periods WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, mapError(err, "cancellation period")
	}
	return &p, nil
}

func (r *cancellationPeriodRepository) List(ctx context.Context, filter model.CancellationPeriodFilter) ([]*model.CancellationPeriod, error) {
	var w where
	if filter.ActiveAt != nil {
		w.add("end_time >= ?", *filter.ActiveAt)
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT id, start_time, end_time, created_at, updated_at FROM cancellation_periods` +
		w.String() + ` ORDER BY start_time` + limit

	periods := []*model.CancellationPeriod{}
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list cancellation periods: %w", err)
	}
	return periods, nil
}

func (r *cancellationPeriodRepository) Update(ctx context.Context, p *model.CancellationPeriod) error {
	p.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx,
		`UPDATE cancellation_periods SET start_time = $1, end_time = $2, updated_at = $3 WHERE id = $4`,
		p.StartTime, p.EndTime, p.UpdatedAt, p.ID)
	if err != nil {
		return mapError(fmt.Errorf("failed to update cancellation period: %w", err), "cancellation period")
	}
	return expectOne(result, "cancellation period")
}

func (r *cancellationPeriodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cancellation_periods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cancellation period: %w", err)
	}
	return expectOne(result, "cancellation period")
}

func (r *cancellationPeriodRepository) Covers(ctx context.Context, t time.Time) (bool, error) {
	var covered bool
	query := `SELECT EXISTS (SELECT 1 FROM cancellation_periods WHERE start_time <= $1 AND end_time >= $1)`
	if err := r.db.GetContext(ctx, &covered, query, t); err != nil {
		return false, fmt.Errorf("failed to check cancellation periods: %w", err)
	}
	return covered, nil
}
