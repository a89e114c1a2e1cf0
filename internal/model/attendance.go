package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrExitBeforeEntry = errors.New("exit timestamp must be after entry timestamp")

type StaffAttendance struct {
	Base
	StaffID        uuid.UUID  `json:"staff_id" db:"staff_id"`
	EntryTimestamp time.Time  `json:"entry_timestamp" db:"entry_timestamp"`
	ExitTimestamp  *time.Time `json:"exit_timestamp,omitempty" db:"exit_timestamp"`
	HasExited      bool       `json:"has_exited" db:"has_exited"`
}

func (a *StaffAttendance) Validate() error {
	if a.ExitTimestamp != nil && !a.ExitTimestamp.After(a.EntryTimestamp) {
		return ErrExitBeforeEntry
	}
	return nil
}

type AttendanceFilter struct {
	ListParams
	StaffID    *uuid.UUID
	ActiveOnly bool
}

type CreateAttendanceRequest struct {
	StaffID        uuid.UUID  `json:"staff_id" binding:"required"`
	EntryTimestamp *time.Time `json:"entry_timestamp"`
	ExitTimestamp  *time.Time `json:"exit_timestamp"`
}

type UpdateAttendanceRequest struct {
	EntryTimestamp *time.Time `json:"entry_timestamp"`
	ExitTimestamp  *time.Time `json:"exit_timestamp"`
	HasExited      *bool      `json:"has_exited"`
}
