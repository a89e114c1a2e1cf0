package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeSlot is one of the fixed two-hour booking windows, written as
// "<start>-<end>" in 24h clock hours.
type TimeSlot string

const (
	Slot8To10  TimeSlot = "8-10"
	Slot10To12 TimeSlot = "10-12"
	Slot12To14 TimeSlot = "12-14"
	Slot15To17 TimeSlot = "15-17"
	Slot17To19 TimeSlot = "17-19"
	Slot19To21 TimeSlot = "19-21"
	Slot21To23 TimeSlot = "21-23"
	Slot23To1  TimeSlot = "23-1"
	Slot1To3   TimeSlot = "1-3"
	Slot3To5   TimeSlot = "3-5"
)

var TimeSlots = []TimeSlot{
	Slot8To10, Slot10To12, Slot12To14, Slot15To17, Slot17To19,
	Slot19To21, Slot21To23, Slot23To1, Slot1To3, Slot3To5,
}

func (t TimeSlot) Valid() bool {
	for _, s := range TimeSlots {
		if s == t {
			return true
		}
	}
	return false
}

func (t TimeSlot) hours() (int, int, error) {
	parts := strings.SplitN(string(t), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time slot %q", t)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time slot %q", t)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time slot %q", t)
	}
	return start, end, nil
}

// Bounds returns the slot's start and end on the given day. Slots that
// cross midnight ("23-1") end on the following day.
func (t TimeSlot) Bounds(day Date, loc *time.Location) (time.Time, time.Time, error) {
	startHour, endHour, err := t.hours()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, startHour, 0, 0, 0, loc)
	end := time.Date(y, m, d, endHour, 0, 0, 0, loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

type DayPeriod string

const (
	PeriodMorning   DayPeriod = "MORNING"
	PeriodAfternoon DayPeriod = "AFTERNOON"
)

func (p DayPeriod) Valid() bool {
	return p == PeriodMorning || p == PeriodAfternoon
}

type ReservationType string

const (
	ReservationStandard ReservationType = "STANDARD"
	ReservationPremium  ReservationType = "PREMIUM"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled, ReservationCompleted},
	ReservationConfirmed: {ReservationCompleted, ReservationCancelled},
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s. Staying in the
// same status is always allowed.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const DefaultScheduleDuration = 30

// ReservationSchedule is an operator's time slot on a given day.
type ReservationSchedule struct {
	Base
	OperatorID uuid.UUID `json:"operator_id" db:"operator_id"`
	Date       Date      `json:"date" db:"date"`
	Period     DayPeriod `json:"period" db:"period"`
	TimeSlot   TimeSlot  `json:"time_slot" db:"time_slot"`
	Duration   int       `json:"duration" db:"duration"`
}

func (s *ReservationSchedule) Validate() error {
	if !s.Period.Valid() {
		return fmt.Errorf("invalid period %q", s.Period)
	}
	if !s.TimeSlot.Valid() {
		return fmt.Errorf("invalid time slot %q", s.TimeSlot)
	}
	if s.Duration <= 0 {
		return errors.New("duration must be greater than zero")
	}
	return nil
}

type ScheduleFilter struct {
	ListParams
	Date       *Date
	OperatorID *uuid.UUID
	// AvailableOnly drops schedules that already carry a confirmed reservation.
	AvailableOnly bool
}

type CreateScheduleRequest struct {
	OperatorID uuid.UUID `json:"operator_id" binding:"required"`
	Date       Date      `json:"date"`
	Period     DayPeriod `json:"period" binding:"required,oneof=MORNING AFTERNOON"`
	TimeSlot   TimeSlot  `json:"time_slot" binding:"required,timeslot"`
	Duration   *int      `json:"duration" binding:"omitempty,gt=0"`
}

type UpdateScheduleRequest struct {
	OperatorID *uuid.UUID `json:"operator_id"`
	Date       *Date      `json:"date"`
	Period     *DayPeriod `json:"period" binding:"omitempty,oneof=MORNING AFTERNOON"`
	TimeSlot   *TimeSlot  `json:"time_slot" binding:"omitempty,timeslot"`
	Duration   *int       `json:"duration" binding:"omitempty,gt=0"`
}

type Reservation struct {
	Base
	UserID               uuid.UUID         `json:"user_id" db:"user_id"`
	ScheduleID           uuid.UUID         `json:"schedule_id" db:"schedule_id"`
	LaserArea            *string           `json:"laser_area,omitempty" db:"laser_area"`
	LaserAreaSchedules   []uuid.UUID       `json:"laser_area_schedules" db:"-"`
	SessionNumber        int               `json:"session_number" db:"session_number"`
	ReservationType      ReservationType   `json:"reservation_type" db:"reservation_type"`
	Status               ReservationStatus `json:"status" db:"status"`
	IsOnline             bool              `json:"is_online" db:"is_online"`
	IsCharged            bool              `json:"is_charged" db:"is_charged"`
	IsPaid               bool              `json:"is_paid" db:"is_paid"`
	UsedDiscountCode     bool              `json:"used_discount_code" db:"used_discount_code"`
	TotalPrice           float64           `json:"total_price" db:"total_price"`
	FinalAmount          float64           `json:"final_amount" db:"final_amount"`
	DiscountCode         *string           `json:"discount_code,omitempty" db:"discount_code"`
	RequestTimestamp     *time.Time        `json:"request_timestamp,omitempty" db:"request_timestamp"`
	ReservationTimestamp *time.Time        `json:"reservation_timestamp,omitempty" db:"reservation_timestamp"`
}

func (r *Reservation) Validate() error {
	if r.SessionNumber <= 0 {
		return errors.New("session_number must be greater than zero")
	}
	if r.ReservationType != ReservationStandard && r.ReservationType != ReservationPremium {
		return fmt.Errorf("invalid reservation_type %q", r.ReservationType)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if r.TotalPrice < 0 || r.FinalAmount < 0 {
		return errors.New("prices cannot be negative")
	}
	if r.FinalAmount > r.TotalPrice {
		return errors.New("final_amount cannot exceed total_price")
	}
	if r.RequestTimestamp != nil && r.ReservationTimestamp != nil &&
		r.ReservationTimestamp.Before(*r.RequestTimestamp) {
		return errors.New("reservation_timestamp cannot be before request_timestamp")
	}
	if r.UsedDiscountCode && (r.DiscountCode == nil || *r.DiscountCode == "") {
		return errors.New("used_discount_code requires a discount_code")
	}
	return nil
}

type ReservationFilter struct {
	ListParams
	UserID       *uuid.UUID
	OperatorID   *uuid.UUID
	Status       *ReservationStatus
	ScheduleDate *Date
	UnpaidOnly   bool
}

type CreateReservationRequest struct {
	// UserID is only honoured on the admin endpoint.
	UserID               *uuid.UUID      `json:"user_id"`
	ScheduleID           uuid.UUID       `json:"schedule_id" binding:"required"`
	LaserArea            *string         `json:"laser_area"`
	LaserAreaSchedules   []uuid.UUID     `json:"laser_area_schedules"`
	SessionNumber        int             `json:"session_number" binding:"required,gt=0"`
	ReservationType      ReservationType `json:"reservation_type" binding:"omitempty,oneof=STANDARD PREMIUM"`
	IsOnline             *bool           `json:"is_online"`
	IsCharged            bool            `json:"is_charged"`
	TotalPrice           float64         `json:"total_price" binding:"min=0"`
	FinalAmount          float64         `json:"final_amount" binding:"min=0"`
	DiscountCode         *string         `json:"discount_code" binding:"omitempty,max=10"`
	UsedDiscountCode     bool            `json:"used_discount_code"`
	RequestTimestamp     *time.Time      `json:"request_timestamp"`
	ReservationTimestamp *time.Time      `json:"reservation_timestamp"`
}

type UpdateReservationRequest struct {
	ScheduleID           *uuid.UUID         `json:"schedule_id"`
	LaserArea            *string            `json:"laser_area"`
	LaserAreaSchedules   []uuid.UUID        `json:"laser_area_schedules"`
	SessionNumber        *int               `json:"session_number" binding:"omitempty,gt=0"`
	ReservationType      *ReservationType   `json:"reservation_type" binding:"omitempty,oneof=STANDARD PREMIUM"`
	Status               *ReservationStatus `json:"status" binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED COMPLETED"`
	IsOnline             *bool              `json:"is_online"`
	IsCharged            *bool              `json:"is_charged"`
	IsPaid               *bool              `json:"is_paid"`
	TotalPrice           *float64           `json:"total_price" binding:"omitempty,min=0"`
	FinalAmount          *float64           `json:"final_amount" binding:"omitempty,min=0"`
	DiscountCode         *string            `json:"discount_code" binding:"omitempty,max=10"`
	UsedDiscountCode     *bool              `json:"used_discount_code"`
	ReservationTimestamp *time.Time         `json:"reservation_timestamp"`
}

// ReservationReminder is the joined view used for next-day reminders.
type ReservationReminder struct {
	ReservationID uuid.UUID `db:"reservation_id"`
	Username      string    `db:"username"`
	Email         string    `db:"email"`
	PhoneNumber   *string   `db:"phone_number"`
	Date          Date      `db:"date"`
	TimeSlot      TimeSlot  `db:"time_slot"`
	LaserArea     *string   `db:"laser_area"`
}

type PreReservation struct {
	Base
	UserID              uuid.UUID `json:"user_id" db:"user_id"`
	LaserAreaScheduleID uuid.UUID `json:"laser_area_schedule_id" db:"laser_area_schedule_id"`
	SessionCount        int       `json:"session_count" db:"session_count"`
	LastSessionDate     Date      `json:"last_session_date" db:"last_session_date"`
}

func (p *PreReservation) Validate() error {
	if p.SessionCount <= 0 {
		return errors.New("session_count must be greater than zero")
	}
	if p.LastSessionDate.IsZero() {
		return errors.New("last_session_date is required")
	}
	return nil
}

type PreReservationFilter struct {
	ListParams
	UserID *uuid.UUID
}

type CreatePreReservationRequest struct {
	UserID              uuid.UUID `json:"user_id" binding:"required"`
	LaserAreaScheduleID uuid.UUID `json:"laser_area_schedule_id" binding:"required"`
	SessionCount        int       `json:"session_count" binding:"required,gt=0"`
	LastSessionDate     Date      `json:"last_session_date"`
}

type UpdatePreReservationRequest struct {
	LaserAreaScheduleID *uuid.UUID `json:"laser_area_schedule_id"`
	SessionCount        *int       `json:"session_count" binding:"omitempty,gt=0"`
	LastSessionDate     *Date      `json:"last_session_date"`
}
