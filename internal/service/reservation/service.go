package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/event"
)

const (
	MsgSlotBooked    = "time slot already booked"
	MsgSlotCancelled = "time slot falls within a cancellation period"
	MsgDateRequired  = "Date parameter is required."
)

// Repositories groups the stores the reservation workflow reads and writes.
type Repositories struct {
	Schedules       repository.ScheduleRepository
	Reservations    repository.ReservationRepository
	PreReservations repository.PreReservationRepository
	Cancellations   repository.CancellationPeriodRepository
	LaserAreas      repository.LaserAreaRepository
	LaserSchedules  repository.LaserScheduleRepository
	Users           repository.UserRepository
}

type Service struct {
	repos   Repositories
	auditor audit.Auditor
	events  event.Recorder
	loc     *time.Location
	now     func() time.Time
}

// NewService builds the service. Slot hours are interpreted in loc.
func NewService(repos Repositories, auditor audit.Auditor, events event.Recorder, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repos:   repos,
		auditor: auditor,
		events:  events,
		loc:     loc,
		now:     time.Now,
	}
}

// Event is the payload of reservation.* outbox events.
type Event struct {
	ReservationID uuid.UUID               `json:"reservation_id"`
	UserID        uuid.UUID               `json:"user_id"`
	ScheduleID    uuid.UUID               `json:"schedule_id"`
	Status        model.ReservationStatus `json:"status"`
	FinalAmount   float64                 `json:"final_amount"`
}

func (s *Service) emit(ctx context.Context, eventType string, r *model.Reservation) {
	s.events.Emit(ctx, eventType, Event{
		ReservationID: r.ID,
		UserID:        r.UserID,
		ScheduleID:    r.ScheduleID,
		Status:        r.Status,
		FinalAmount:   r.FinalAmount,
	})
}

// statusEvent maps a reservation status to the event announcing it.
func statusEvent(status model.ReservationStatus) (string, bool) {
	switch status {
	case model.ReservationConfirmed:
		return model.EventReservationConfirmed, true
	case model.ReservationCancelled:
		return model.EventReservationCancelled, true
	case model.ReservationCompleted:
		return model.EventReservationCompleted, true
	}
	return "", false
}

func (s *Service) requireOperator(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.repos.Users.Get(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.BadRequest("operator does not exist", err)
		}
		return nil, fmt.Errorf("failed to load operator: %w", err)
	}
	if u.Role != model.RoleStaff {
		return nil, apperrors.BadRequest("operator must be a staff member", nil)
	}
	return u, nil
}

// checkSlot rejects a schedule whose slot starts inside a cancellation
// period or already carries a confirmed reservation other than exclude.
func (s *Service) checkSlot(ctx context.Context, sched *model.ReservationSchedule, exclude *uuid.UUID) error {
	start, _, err := sched.TimeSlot.Bounds(sched.Date, s.loc)
	if err != nil {
		return apperrors.BadRequest(err.Error(), err)
	}

	blocked, err := s.repos.Cancellations.Covers(ctx, start)
	if err != nil {
		return fmt.Errorf("failed to check cancellation periods: %w", err)
	}
	if blocked {
		return apperrors.Conflict(MsgSlotCancelled, nil)
	}

	booked, err := s.repos.Reservations.HasConfirmed(ctx, sched.ID, exclude)
	if err != nil {
		return fmt.Errorf("failed to check slot: %w", err)
	}
	if booked {
		return apperrors.Conflict(MsgSlotBooked, nil)
	}
	return nil
}

// CheckSlot loads the reservation's schedule and applies the slot rules.
// Payments call it before capturing money.
func (s *Service) CheckSlot(ctx context.Context, r *model.Reservation) error {
	sched, err := s.repos.Schedules.Get(ctx, r.ScheduleID)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}
	return s.checkSlot(ctx, sched, &r.ID)
}
