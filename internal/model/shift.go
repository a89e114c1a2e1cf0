package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type OperatorShift struct {
	Base
	OperatorID   uuid.UUID `json:"operator_id" db:"operator_id"`
	OperatorName string    `json:"operator_name" db:"operator_name"`
	ShiftDate    Date      `json:"shift_date" db:"shift_date"`
	Period       DayPeriod `json:"period" db:"period"`
}

func (s *OperatorShift) Validate() error {
	if len(s.OperatorName) > 50 {
		return errors.New("operator_name must be at most 50 characters")
	}
	if s.ShiftDate.IsZero() {
		return errors.New("shift_date is required")
	}
	if !s.Period.Valid() {
		return errors.New("invalid period")
	}
	return nil
}

type ShiftFilter struct {
	ListParams
	OperatorID *uuid.UUID
	// From keeps shifts on or after this day.
	From *Date
}

type CreateShiftRequest struct {
	OperatorID   uuid.UUID  `json:"operator_id" binding:"required"`
	OperatorName string     `json:"operator_name" binding:"max=50"`
	ShiftDate    Date       `json:"shift_date"`
	Period       *DayPeriod `json:"period" binding:"omitempty,oneof=MORNING AFTERNOON"`
}

type UpdateShiftRequest struct {
	OperatorName *string    `json:"operator_name" binding:"omitempty,max=50"`
	ShiftDate    *Date      `json:"shift_date"`
	Period       *DayPeriod `json:"period" binding:"omitempty,oneof=MORNING AFTERNOON"`
}

// CancellationPeriod blocks bookings whose slot starts inside it.
type CancellationPeriod struct {
	Base
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
}

func (p *CancellationPeriod) Validate(now time.Time) error {
	if p.StartTime.IsZero() || p.EndTime.IsZero() {
		return errors.New("start_time and end_time are required")
	}
	if !p.EndTime.After(p.StartTime) {
		return errors.New("end_time must be after start_time")
	}
	if p.StartTime.Before(now) {
		return errors.New("start_time cannot be in the past")
	}
	return nil
}

func (p *CancellationPeriod) Covers(t time.Time) bool {
	return !t.Before(p.StartTime) && !t.After(p.EndTime)
}

type CancellationPeriodFilter struct {
	ListParams
	// ActiveAt keeps periods that have not ended at that instant.
	ActiveAt *time.Time
}

type CancellationPeriodRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}
