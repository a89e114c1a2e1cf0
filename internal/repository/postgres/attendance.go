package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const attendanceColumns = `id, staff_id, entry_timestamp, exit_timestamp, has_exited, created_at, updated_at`

type attendanceRepository struct {
	BaseRepository
}

func NewAttendanceRepository(base BaseRepository) repository.AttendanceRepository {
	return &attendanceRepository{base}
}

func (r *attendanceRepository) Create(ctx context.Context, a *model.StaffAttendance) error {
	query := `
		INSERT INTO staff_attendance (
			id, staff_id, entry_timestamp, exit_timestamp, has_exited, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.StaffID, a.EntryTimestamp, a.ExitTimestamp, a.HasExited, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return mapError(fmt.Errorf("failed to create attendance: %w", err), "staff attendance")
	}
	return nil
}

func (r *attendanceRepository) Get(ctx context.Context, id uuid.UUID) (*model.StaffAttendance, error) {
	var a model.StaffAttendance
	query := `SELECT ` + attendanceColumns + ` FROM staff_attendance WHERE id = $1`
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, mapError(err, "staff attendance")
	}
	return &a, nil
}

func (r *attendanceRepository) List(ctx context.Context, filter model.AttendanceFilter) ([]*model.StaffAttendance, error) {
	var w where
	if filter.StaffID != nil {
		w.add("staff_id = ?", *filter.StaffID)
	}
	if filter.ActiveOnly {
		w.add("has_exited = FALSE")
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + attendanceColumns + ` FROM staff_attendance` + w.String() +
		` ORDER BY entry_timestamp DESC` + limit

	rows := []*model.StaffAttendance{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return rows, nil
}

func (r *attendanceRepository) Update(ctx context.Context, a *model.StaffAttendance) error {
	query := `
		UPDATE staff_attendance SET
			entry_timestamp = $1,
			exit_timestamp = $2,
			has_exited = $3,
			updated_at = $4
		WHERE id = $5
	`

	a.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query, a.EntryTimestamp, a.ExitTimestamp, a.HasExited, a.UpdatedAt, a.ID)
	if err != nil {
		return mapError(fmt.Errorf("failed to update attendance: %w", err), "staff attendance")
	}
	return expectOne(result, "staff attendance")
}
