package model

import (
	"errors"
	"strings"
	"time"
)

const (
	DefaultDeadlineResetDays = 30
	DefaultOperateMinutes    = 5
)

// LaserArea is a bookable treatment area. Its name is the primary key.
type LaserArea struct {
	Name          string    `json:"name" db:"name"`
	CurrentPrice  float64   `json:"current_price" db:"current_price"`
	DeadlineReset int       `json:"deadline_reset" db:"deadline_reset"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	OperateTime   int       `json:"operate_time" db:"operate_time"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (a *LaserArea) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("name cannot be blank")
	}
	if len(a.Name) > 50 {
		return errors.New("name must be at most 50 characters")
	}
	if a.CurrentPrice < 0 {
		return errors.New("current_price cannot be negative")
	}
	if a.DeadlineReset < 0 || a.OperateTime < 0 {
		return errors.New("deadline_reset and operate_time cannot be negative")
	}
	return nil
}

type LaserAreaSchedule struct {
	Base
	LaserArea   string     `json:"laser_area" db:"laser_area"`
	Price       float64    `json:"price" db:"price"`
	StartTime   *time.Time `json:"start_time,omitempty" db:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty" db:"end_time"`
	OperateTime int        `json:"operate_time" db:"operate_time"`
}

func (s *LaserAreaSchedule) Validate() error {
	if s.LaserArea == "" {
		return errors.New("laser_area is required")
	}
	if s.Price < 0 {
		return errors.New("price cannot be negative")
	}
	if s.StartTime != nil && s.EndTime != nil && !s.EndTime.After(*s.StartTime) {
		return errors.New("end_time must be after start_time")
	}
	return nil
}

type LaserAreaFilter struct {
	ListParams
	ActiveOnly bool
}

type LaserScheduleFilter struct {
	ListParams
	LaserArea     *string
	ScheduledOnly bool
	// ActiveAt keeps schedules whose window has not ended at that instant.
	ActiveAt *time.Time
}

type CreateLaserAreaRequest struct {
	Name          string   `json:"name" binding:"required,max=50"`
	CurrentPrice  *float64 `json:"current_price" binding:"omitempty,min=0"`
	DeadlineReset *int     `json:"deadline_reset" binding:"omitempty,min=0"`
	IsActive      *bool    `json:"is_active"`
	OperateTime   *int     `json:"operate_time" binding:"omitempty,min=0"`
}

type UpdateLaserAreaRequest struct {
	CurrentPrice  *float64 `json:"current_price" binding:"omitempty,min=0"`
	DeadlineReset *int     `json:"deadline_reset" binding:"omitempty,min=0"`
	IsActive      *bool    `json:"is_active"`
	OperateTime   *int     `json:"operate_time" binding:"omitempty,min=0"`
}

type CreateLaserScheduleRequest struct {
	LaserArea   string     `json:"laser_area" binding:"required"`
	Price       float64    `json:"price" binding:"min=0"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	OperateTime *int       `json:"operate_time" binding:"omitempty,min=0"`
}

type UpdateLaserScheduleRequest struct {
	Price       *float64   `json:"price" binding:"omitempty,min=0"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	OperateTime *int       `json:"operate_time" binding:"omitempty,min=0"`
}
