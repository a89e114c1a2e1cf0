package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// Payment status only moves forward; there is no way back to PENDING and
// FAILED, REFUNDED and CANCELLED are terminal.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentCompleted: {PaymentRefunded},
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return len(paymentTransitions[s]) == 0
}

// CanTransitionTo reports whether a payment in status s may move to next.
// Re-applying the current status is accepted as a no-op.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentType string

const (
	PaymentTypePayPal       PaymentType = "PAYPAL"
	PaymentTypeCreditCard   PaymentType = "CREDIT_CARD"
	PaymentTypeBankTransfer PaymentType = "BANK_TRANSFER"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypePayPal, PaymentTypeCreditCard, PaymentTypeBankTransfer:
		return true
	}
	return false
}

type Payment struct {
	Base
	UserID              uuid.UUID     `json:"user_id" db:"user_id"`
	ReservationID       uuid.UUID     `json:"reservation_id" db:"reservation_id"`
	Amount              float64       `json:"amount" db:"amount"`
	Status              PaymentStatus `json:"status" db:"status"`
	PaymentType         PaymentType   `json:"payment_type" db:"payment_type"`
	PaypalOrderID       *string       `json:"paypal_order_id,omitempty" db:"paypal_order_id"`
	PaypalTransactionID *string       `json:"paypal_transaction_id,omitempty" db:"paypal_transaction_id"`
	DiscountCode        *string       `json:"discount_code,omitempty" db:"discount_code"`
	FailureReason       *string       `json:"failure_reason,omitempty" db:"failure_reason"`
	PaymentTimestamp    *time.Time    `json:"payment_timestamp,omitempty" db:"payment_timestamp"`
}

func (p *Payment) Validate() error {
	if p.Amount < 0 {
		return errors.New("amount cannot be negative")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", p.Status)
	}
	if !p.PaymentType.Valid() {
		return fmt.Errorf("invalid payment_type %q", p.PaymentType)
	}
	if p.PaypalTransactionID != nil && len(*p.PaypalTransactionID) > 100 {
		return errors.New("paypal_transaction_id must be at most 100 characters")
	}
	if p.PaymentType == PaymentTypePayPal && p.Status == PaymentCompleted &&
		(p.PaypalTransactionID == nil || *p.PaypalTransactionID == "") {
		return errors.New("paypal_transaction_id is required for completed PayPal payments")
	}
	return nil
}

type PaymentFilter struct {
	ListParams
	UserID *uuid.UUID
	Status *PaymentStatus
	From   *time.Time
	To     *time.Time
}

// CreatePaymentRequest is submitted by a customer paying for a reservation.
type CreatePaymentRequest struct {
	ReservationID uuid.UUID   `json:"reservation_id" binding:"required"`
	PaymentType   PaymentType `json:"payment_type" binding:"omitempty,oneof=PAYPAL CREDIT_CARD BANK_TRANSFER"`
	PaypalOrderID string      `json:"paypal_order_id" binding:"max=100"`
	DiscountCode  string      `json:"discount_code" binding:"max=10"`
}

type AdminCreatePaymentRequest struct {
	UserID              uuid.UUID     `json:"user_id" binding:"required"`
	ReservationID       uuid.UUID     `json:"reservation_id" binding:"required"`
	Amount              float64       `json:"amount" binding:"min=0"`
	Status              PaymentStatus `json:"status" binding:"omitempty,oneof=PENDING COMPLETED FAILED REFUNDED CANCELLED"`
	PaymentType         PaymentType   `json:"payment_type" binding:"omitempty,oneof=PAYPAL CREDIT_CARD BANK_TRANSFER"`
	PaypalTransactionID *string       `json:"paypal_transaction_id" binding:"omitempty,max=100"`
}

type UpdatePaymentRequest struct {
	Amount              *float64       `json:"amount" binding:"omitempty,min=0"`
	Status              *PaymentStatus `json:"status" binding:"omitempty,oneof=PENDING COMPLETED FAILED REFUNDED CANCELLED"`
	PaypalTransactionID *string        `json:"paypal_transaction_id" binding:"omitempty,max=100"`
}

// SettleOptions describes the side effects written in the same transaction
// as a payment row.
type SettleOptions struct {
	// RedeemDiscount consumes one use of this code.
	RedeemDiscount *string
	// ConfirmReservation marks the reservation paid and CONFIRMED.
	ConfirmReservation bool
	// ExpectedStatus guards updates against concurrent status changes.
	ExpectedStatus PaymentStatus
}
