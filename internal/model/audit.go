package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes,omitempty" db:"changes"`
	Metadata   json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	AuditActionCreate   = "create"
	AuditActionUpdate   = "update"
	AuditActionDelete   = "delete"
	AuditActionLogin    = "login"
	AuditActionSignup   = "signup"
	AuditActionReset    = "reset_password"
	AuditActionCancel   = "cancel"
	AuditActionComplete = "complete"
	AuditActionRefund   = "refund"

	AuditEntityUser               = "user"
	AuditEntityAttendance         = "staff_attendance"
	AuditEntityProfile            = "customer_profile"
	AuditEntityComment            = "comment"
	AuditEntityLaserArea          = "laser_area"
	AuditEntityLaserSchedule      = "laser_area_schedule"
	AuditEntitySchedule           = "reservation_schedule"
	AuditEntityReservation        = "reservation"
	AuditEntityPreReservation     = "pre_reservation"
	AuditEntityShift              = "operator_shift"
	AuditEntityCancellationPeriod = "cancellation_period"
	AuditEntityPayment            = "payment"
	AuditEntityDiscountCode       = "discount_code"
)
