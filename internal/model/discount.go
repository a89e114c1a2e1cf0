package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrDiscountUnavailable   = errors.New("discount code already used or exhausted")
	ErrDiscountExpired       = errors.New("discount code has expired")
	ErrDiscountExceedsAmount = errors.New("discount cannot exceed payment amount")
)

// DiscountCode is keyed by its code.
type DiscountCode struct {
	Code       string     `json:"code" db:"code"`
	Amount     float64    `json:"amount" db:"amount"`
	IsUsed     bool       `json:"is_used" db:"is_used"`
	ValidUntil *time.Time `json:"valid_until,omitempty" db:"valid_until"`
	MaxUsage   int        `json:"max_usage" db:"max_usage"`
	UsageCount int        `json:"usage_count" db:"usage_count"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

func (d *DiscountCode) Validate() error {
	if strings.TrimSpace(d.Code) == "" {
		return errors.New("code cannot be blank")
	}
	if len(d.Code) > 10 {
		return errors.New("code must be at most 10 characters")
	}
	if d.Amount < 0 {
		return errors.New("amount cannot be negative")
	}
	if d.MaxUsage <= 0 {
		return errors.New("max_usage must be greater than zero")
	}
	if d.UsageCount < 0 || d.UsageCount > d.MaxUsage {
		return errors.New("usage_count cannot exceed max_usage")
	}
	return nil
}

// Check reports why the code cannot be redeemed at now, if it cannot.
func (d *DiscountCode) Check(now time.Time) error {
	if d.IsUsed || d.UsageCount >= d.MaxUsage {
		return ErrDiscountUnavailable
	}
	if d.ValidUntil != nil && d.ValidUntil.Before(now) {
		return ErrDiscountExpired
	}
	return nil
}

// Apply returns amount minus the discount without consuming a use.
func (d *DiscountCode) Apply(amount float64, now time.Time) (float64, error) {
	if err := d.Check(now); err != nil {
		return 0, err
	}
	discounted := RoundMoney(amount - d.Amount)
	if discounted < 0 {
		return 0, ErrDiscountExceedsAmount
	}
	return discounted, nil
}

type DiscountFilter struct {
	ListParams
	ValidAt *time.Time
}

type CreateDiscountCodeRequest struct {
	Code       string     `json:"code" binding:"required,max=10"`
	Amount     float64    `json:"amount" binding:"min=0"`
	ValidUntil *time.Time `json:"valid_until"`
	MaxUsage   *int       `json:"max_usage" binding:"omitempty,gt=0"`
}

type UpdateDiscountCodeRequest struct {
	Amount     *float64   `json:"amount" binding:"omitempty,min=0"`
	IsUsed     *bool      `json:"is_used"`
	ValidUntil *time.Time `json:"valid_until"`
	MaxUsage   *int       `json:"max_usage" binding:"omitempty,gt=0"`
}
