package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const (
	scheduleColumns = `s.id, s.operator_id, s.date, s.period, s.time_slot, s.duration, s.created_at, s.updated_at`

	reservationColumns = `r.id, r.user_id, r.schedule_id, r.laser_area, r.session_number, r.reservation_type,
	r.status, r.is_online, r.is_charged, r.is_paid, r.used_discount_code, r.total_price,
	r.final_amount, r.discount_code, r.request_timestamp, r.reservation_timestamp,
	r.created_at, r.updated_at`
)

type scheduleRepository struct {
	BaseRepository
}

func NewScheduleRepository(base BaseRepository) repository.ScheduleRepository {
	return &scheduleRepository{base}
}

func (r *scheduleRepository) Create(ctx context.Context, s *model.ReservationSchedule) error {
	query := `
		INSERT INTO reservation_schedules (
			id, operator_id, date, period, time_slot, duration, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OperatorID, s.Date, s.Period, s.TimeSlot, s.Duration, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return mapError(fmt.Errorf("failed to create schedule: %w", err), "reservation schedule")
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.ReservationSchedule, error) {
	var s model.ReservationSchedule
	query := `SELECT ` + scheduleColumns + ` FROM reservation_schedules s WHERE s.id = $1`
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, mapError(err, "reservation schedule")
	}
	return &s, nil
}

func (r *scheduleRepository) List(ctx context.Context, filter model.ScheduleFilter) ([]*model.ReservationSchedule, error) {
	var w where
	w.search(filter.Search, "u.username")
	if filter.Date != nil {
		w.add("s.date = ?", *filter.Date)
	}
	if filter.OperatorID != nil {
		w.add("s.operator_id = ?", *filter.OperatorID)
	}
	if filter.AvailableOnly {
		w.add(`NOT EXISTS (
			SELECT 1 FROM reservations r
			WHERE r.schedule_id = s.id AND r.status = 'CONFIRMED'
		)`)
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + scheduleColumns + `
		FROM reservation_schedules s
		JOIN users u ON u.id = s.operator_id` + w.String() + ` ORDER BY s.date, s.time_slot` + limit

	schedules := []*model.ReservationSchedule{}
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) Update(ctx context.Context, s *model.ReservationSchedule) error {
	query := `
		UPDATE reservation_schedules SET
			operator_id = $1,
			date = $2,
			period = $3,
			time_slot = $4,
			duration = $5,
			updated_at = $6
		WHERE id = $7
	`

	s.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		s.OperatorID, s.Date, s.Period, s.TimeSlot, s.Duration, s.UpdatedAt, s.ID)
	if err != nil {
		return mapError(fmt.Errorf("failed to update schedule: %w", err), "reservation schedule")
	}
	return expectOne(result, "reservation schedule")
}

type reservationRepository struct {
	BaseRepository
}

func NewReservationRepository(base BaseRepository) repository.ReservationRepository {
	return &reservationRepository{base}
}

func (r *reservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (
			id, user_id, schedule_id, laser_area, session_number, reservation_type,
			status, is_online, is_charged, is_paid, used_discount_code, total_price,
			final_amount, discount_code, request_timestamp, reservation_timestamp,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	res.ID = uuid.New()
	res.CreatedAt = time.Now()
	res.UpdatedAt = res.CreatedAt

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			res.ID,
			res.UserID,
			res.ScheduleID,
			res.LaserArea,
			res.SessionNumber,
			res.ReservationType,
			res.Status,
			res.IsOnline,
			res.IsCharged,
			res.IsPaid,
			res.UsedDiscountCode,
			res.TotalPrice,
			res.FinalAmount,
			res.DiscountCode,
			res.RequestTimestamp,
			res.ReservationTimestamp,
			res.CreatedAt,
			res.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return insertLaserSchedules(ctx, tx, res.ID, res.LaserAreaSchedules)
	})
	if err != nil {
		return mapError(fmt.Errorf("failed to create reservation: %w", err), "reservation")
	}
	return nil
}

func (r *reservationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	query := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = $1`
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		return nil, mapError(err, "reservation")
	}
	if err := r.loadLaserSchedules(ctx, []*model.Reservation{&res}); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) List(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, error) {
	var w where
	w.search(filter.Search, "u.username")
	if filter.UserID != nil {
		w.add("r.user_id = ?", *filter.UserID)
	}
	if filter.OperatorID != nil {
		w.add("s.operator_id = ?", *filter.OperatorID)
	}
	if filter.Status != nil {
		w.add("r.status = ?", *filter.Status)
	}
	if filter.ScheduleDate != nil {
		w.add("s.date = ?", *filter.ScheduleDate)
	}
	if filter.UnpaidOnly {
		w.add("r.is_paid = FALSE")
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + reservationColumns + `
		FROM reservations r
		JOIN reservation_schedules s ON s.id = r.schedule_id
		JOIN users u ON u.id = r.user_id` + w.String() + ` ORDER BY s.date DESC, s.time_slot, r.created_at` + limit

	reservations := []*model.Reservation{}
	if err := r.db.SelectContext(ctx, &reservations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	if err := r.loadLaserSchedules(ctx, reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) Update(ctx context.Context, res *model.Reservation) error {
	query := `
		UPDATE reservations SET
			schedule_id = $1,
			laser_area = $2,
			session_number = $3,
			reservation_type = $4,
			status = $5,
			is_online = $6,
			is_charged = $7,
			is_paid = $8,
			used_discount_code = $9,
			total_price = $10,
			final_amount = $11,
			discount_code = $12,
			reservation_timestamp = $13,
			updated_at = $14
		WHERE id = $15
	`

	res.UpdatedAt = time.Now()
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			res.ScheduleID,
			res.LaserArea,
			res.SessionNumber,
			res.ReservationType,
			res.Status,
			res.IsOnline,
			res.IsCharged,
			res.IsPaid,
			res.UsedDiscountCode,
			res.TotalPrice,
			res.FinalAmount,
			res.DiscountCode,
			res.ReservationTimestamp,
			res.UpdatedAt,
			res.ID,
		)
		if err != nil {
			return mapError(fmt.Errorf("failed to update reservation: %w", err), "reservation")
		}
		if err := expectOne(result, "reservation"); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM reservation_laser_schedules WHERE reservation_id = $1`, res.ID); err != nil {
			return fmt.Errorf("failed to clear laser schedules: %w", err)
		}
		if err := insertLaserSchedules(ctx, tx, res.ID, res.LaserAreaSchedules); err != nil {
			return mapError(fmt.Errorf("failed to link laser schedules: %w", err), "reservation")
		}
		return nil
	})
}

func (r *reservationRepository) HasConfirmed(ctx context.Context, scheduleID uuid.UUID, exclude *uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE schedule_id = $1 AND status = 'CONFIRMED' AND ($2::uuid IS NULL OR id <> $2::uuid)
	)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, scheduleID, exclude); err != nil {
		return false, fmt.Errorf("failed to check confirmed reservations: %w", err)
	}
	return exists, nil
}

func (r *reservationRepository) ListReminders(ctx context.Context, day model.Date) ([]*model.ReservationReminder, error) {
	query := `
		SELECT r.id AS reservation_id, u.username, u.email, p.phone_number,
			s.date, s.time_slot, r.laser_area
		FROM reservations r
		JOIN reservation_schedules s ON s.id = r.schedule_id
		JOIN users u ON u.id = r.user_id
		LEFT JOIN customer_profiles p ON p.user_id = r.user_id
		WHERE s.date = $1 AND r.status = 'CONFIRMED'
		ORDER BY s.time_slot
	`

	reminders := []*model.ReservationReminder{}
	if err := r.db.SelectContext(ctx, &reminders, query, day); err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

func (r *reservationRepository) loadLaserSchedules(ctx context.Context, reservations []*model.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*model.Reservation, len(reservations))
	ids := make([]uuid.UUID, 0, len(reservations))
	for _, res := range reservations {
		res.LaserAreaSchedules = []uuid.UUID{}
		byID[res.ID] = res
		ids = append(ids, res.ID)
	}

	var links []struct {
		ReservationID uuid.UUID `db:"reservation_id"`
		ScheduleID    uuid.UUID `db:"laser_area_schedule_id"`
	}
	query := `
		SELECT reservation_id, laser_area_schedule_id
		FROM reservation_laser_schedules
		WHERE reservation_id = ANY($1::uuid[])
	`
	if err := r.db.SelectContext(ctx, &links, query, pq.Array(uuidStrings(ids))); err != nil {
		return fmt.Errorf("failed to load laser schedules: %w", err)
	}
	for _, link := range links {
		if res, ok := byID[link.ReservationID]; ok {
			res.LaserAreaSchedules = append(res.LaserAreaSchedules, link.ScheduleID)
		}
	}
	return nil
}

func insertLaserSchedules(ctx context.Context, tx *sqlx.Tx, reservationID uuid.UUID, ids []uuid.UUID) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reservation_laser_schedules (reservation_id, laser_area_schedule_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, reservationID, id); err != nil {
			return err
		}
	}
	return nil
}

type preReservationRepository struct {
	BaseRepository
}

func NewPreReservationRepository(base BaseRepository) repository.PreReservationRepository {
	return &preReservationRepository{base}
}

const preReservationColumns = `p.id, p.user_id, p.laser_area_schedule_id, p.session_count,
	p.last_session_date, p.created_at, p.updated_at`

func (r *preReservationRepository) Create(ctx context.Context, p *model.PreReservation) error {
	query := `
		INSERT INTO pre_reservations (
			id, user_id, laser_area_schedule_id, session_count, last_session_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.LaserAreaScheduleID, p.SessionCount, p.LastSessionDate, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapError(fmt.Errorf("failed to create pre-reservation: %w", err), "pre-reservation")
	}
	return nil
}

func (r *preReservationRepository) Get(ctx context.Context, id uuid.UUID) (*model.PreReservation, error) {
	var p model.PreReservation
	query := `SELECT ` + preReservationColumns + ` FROM pre_reservations p WHERE p.id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, mapError(err, "pre-reservation")
	}
	return &p, nil
}

func (r *preReservationRepository) List(ctx context.Context, filter model.PreReservationFilter) ([]*model.PreReservation, error) {
	var w where
	w.search(filter.Search, "u.username")
	if filter.UserID != nil {
		w.add("p.user_id = ?", *filter.UserID)
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + preReservationColumns + `
		FROM pre_reservations p
		JOIN users u ON u.id = p.user_id` + w.String() + ` ORDER BY p.last_session_date DESC` + limit

	items := []*model.PreReservation{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list pre-reservations: %w", err)
	}
	return items, nil
}

func (r *preReservationRepository) Update(ctx context.Context, p *model.PreReservation) error {
	query := `
		UPDATE pre_reservations SET
			laser_area_schedule_id = $1,
			session_count = $2,
			last_session_date = $3,
			updated_at = $4
		WHERE id = $5
	`

	p.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		p.LaserAreaScheduleID, p.SessionCount, p.LastSessionDate, p.UpdatedAt, p.ID)
	if err != nil {
		return mapError(fmt.Errorf("failed to update pre-reservation: %w", err), "pre-reservation")
	}
	return expectOne(result, "pre-reservation")
}
