package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context, filter model.UserFilter) ([]*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	TokenRepository interface {
		StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateResetToken(ctx context.Context, token string) error
	}

	AttendanceRepository interface {
		Create(ctx context.Context, a *model.StaffAttendance) error
		Get(ctx context.Context, id uuid.UUID) (*model.StaffAttendance, error)
		List(ctx context.Context, filter model.AttendanceFilter) ([]*model.StaffAttendance, error)
		Update(ctx context.Context, a *model.StaffAttendance) error
	}

	ProfileRepository interface {
		Create(ctx context.Context, p *model.CustomerProfile) error
		Get(ctx context.Context, id uuid.UUID) (*model.CustomerProfile, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.CustomerProfile, error)
		List(ctx context.Context, filter model.ProfileFilter) ([]*model.CustomerProfile, error)
		Update(ctx context.Context, p *model.CustomerProfile) error
	}

	CommentRepository interface {
		Create(ctx context.Context, c *model.Comment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Comment, error)
		List(ctx context.Context, filter model.CommentFilter) ([]*model.Comment, error)
		Update(ctx context.Context, c *model.Comment) error
	}

	LaserAreaRepository interface {
		Create(ctx context.Context, area *model.LaserArea) error
		Get(ctx context.Context, name string) (*model.LaserArea, error)
		List(ctx context.Context, filter model.LaserAreaFilter) ([]*model.LaserArea, error)
		Update(ctx context.Context, area *model.LaserArea) error
		Delete(ctx context.Context, name string) error
	}

	LaserScheduleRepository interface {
		Create(ctx context.Context, s *model.LaserAreaSchedule) error
		Get(ctx context.Context, id uuid.UUID) (*model.LaserAreaSchedule, error)
		List(ctx context.Context, filter model.LaserScheduleFilter) ([]*model.LaserAreaSchedule, error)
		Update(ctx context.Context, s *model.LaserAreaSchedule) error
		Delete(ctx context.Context, id uuid.UUID) error
		CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
	}

	ScheduleRepository interface {
		Create(ctx context.Context, s *model.ReservationSchedule) error
		Get(ctx context.Context, id uuid.UUID) (*model.ReservationSchedule, error)
		List(ctx context.Context, filter model.ScheduleFilter) ([]*model.ReservationSchedule, error)
		Update(ctx context.Context, s *model.ReservationSchedule) error
	}

	ReservationRepository interface {
		Create(ctx context.Context, r *model.Reservation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
		List(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, error)
		Update(ctx context.Context, r *model.Reservation) error
		// HasConfirmed reports whether the schedule already carries a
		// CONFIRMED reservation other than exclude.
		HasConfirmed(ctx context.Context, scheduleID uuid.UUID, exclude *uuid.UUID) (bool, error)
		ListReminders(ctx context.Context, day model.Date) ([]*model.ReservationReminder, error)
	}

	PreReservationRepository interface {
		Create(ctx context.Context, p *model.PreReservation) error
		Get(ctx context.Context, id uuid.UUID) (*model.PreReservation, error)
		List(ctx context.Context, filter model.PreReservationFilter) ([]*model.PreReservation, error)
		Update(ctx context.Context, p *model.PreReservation) error
	}

	ShiftRepository interface {
		Create(ctx context.Context, s *model.OperatorShift) error
		Get(ctx context.Context, id uuid.UUID) (*model.OperatorShift, error)
		List(ctx context.Context, filter model.ShiftFilter) ([]*model.OperatorShift, error)
		Update(ctx context.Context, s *model.OperatorShift) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	CancellationPeriodRepository interface {
		Create(ctx context.Context, p *model.CancellationPeriod) error
		Get(ctx context.Context, id uuid.UUID) (*model.CancellationPeriod, error)
		List(ctx context.Context, filter model.CancellationPeriodFilter) ([]*model.CancellationPeriod, error)
		Update(ctx context.Context, p *model.CancellationPeriod) error
		Delete(ctx context.Context, id uuid.UUID) error
		// Covers reports whether any period contains t.
		Covers(ctx context.Context, t time.Time) (bool, error)
	}

	PaymentRepository interface {
		// Create inserts the payment and applies opts in one transaction.
		Create(ctx context.Context, p *model.Payment, opts model.SettleOptions) error
		Get(ctx context.Context, id uuid.UUID) (*model.Payment, error)
		List(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, error)
		HasOpen(ctx context.Context, reservationID uuid.UUID) (bool, error)
		// Update persists p only if its stored status still equals
		// opts.ExpectedStatus.
		Update(ctx context.Context, p *model.Payment, opts model.SettleOptions) error
		// MarkRefunded sets the payment REFUNDED and releases its reservation.
		MarkRefunded(ctx context.Context, p *model.Payment) error
		ExpirePending(ctx context.Context, types []model.PaymentType, before time.Time) ([]*model.Payment, error)
	}

	DiscountCodeRepository interface {
		Create(ctx context.Context, d *model.DiscountCode) error
		Get(ctx context.Context, code string) (*model.DiscountCode, error)
		List(ctx context.Context, filter model.DiscountFilter) ([]*model.DiscountCode, error)
		Update(ctx context.Context, d *model.DiscountCode) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// GetPendingEventsWithLock claims up to limit due events for this
		// worker by moving them to PROCESSING.
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter AuditFilter) ([]*model.AuditLog, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}
)

type AuditFilter struct {
	model.ListParams
	UserID     *uuid.UUID
	EntityType string
	EntityID   string
}
