package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// applyDiscount prices amount with code without consuming a use; the use
// is taken in the same transaction as the payment insert.
func (s *Service) applyDiscount(ctx context.Context, code string, amount float64) (float64, error) {
	d, err := s.discounts.Get(ctx, code)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return 0, apperrors.BadRequest("invalid discount code", err)
		}
		return 0, fmt.Errorf("failed to load discount code: %w", err)
	}

	discounted, err := d.Apply(amount, s.now())
	if err != nil {
		return 0, apperrors.BadRequest(err.Error(), err)
	}
	return discounted, nil
}

func (s *Service) CreateDiscount(ctx context.Context, actor model.Actor, req *model.CreateDiscountCodeRequest) (*model.DiscountCode, error) {
	d := &model.DiscountCode{
		Code:       strings.TrimSpace(req.Code),
		Amount:     model.RoundMoney(req.Amount),
		ValidUntil: req.ValidUntil,
		MaxUsage:   1,
	}
	if req.MaxUsage != nil {
		d.MaxUsage = *req.MaxUsage
	}
	if err := s.validateDiscount(d, req.ValidUntil); err != nil {
		return nil, err
	}

	if err := s.discounts.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create discount code: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityDiscountCode, d.Code, &audit.LogOptions{Changes: d})
	return d, nil
}

func (s *Service) GetDiscount(ctx context.Context, code string) (*model.DiscountCode, error) {
	return s.discounts.Get(ctx, code)
}

func (s *Service) ListDiscounts(ctx context.Context, filter model.DiscountFilter) ([]*model.DiscountCode, error) {
	codes, err := s.discounts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list discount codes: %w", err)
	}
	return codes, nil
}

// ListValidDiscounts returns codes that can still be redeemed now.
func (s *Service) ListValidDiscounts(ctx context.Context, params model.ListParams) ([]*model.DiscountCode, error) {
	now := s.now()
	return s.ListDiscounts(ctx, model.DiscountFilter{ListParams: params, ValidAt: &now})
}

func (s *Service) UpdateDiscount(ctx context.Context, actor model.Actor, code string, req *model.UpdateDiscountCodeRequest) (*model.DiscountCode, error) {
	d, err := s.discounts.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if req.Amount != nil {
		d.Amount = model.RoundMoney(*req.Amount)
	}
	if req.IsUsed != nil {
		d.IsUsed = *req.IsUsed
	}
	if req.ValidUntil != nil {
		d.ValidUntil = req.ValidUntil
	}
	if req.MaxUsage != nil {
		d.MaxUsage = *req.MaxUsage
	}
	if err := s.validateDiscount(d, req.ValidUntil); err != nil {
		return nil, err
	}

	if err := s.discounts.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update discount code: %w", err)
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionUpdate, model.AuditEntityDiscountCode, d.Code, &audit.LogOptions{Changes: req})
	return d, nil
}

// validateDiscount checks d and rejects a newly supplied validUntil that is
// already past.
func (s *Service) validateDiscount(d *model.DiscountCode, validUntil *time.Time) error {
	if err := d.Validate(); err != nil {
		return apperrors.BadRequest(err.Error(), err)
	}
	if validUntil != nil && validUntil.Before(s.now()) {
		err := errors.New("valid_until cannot be in the past")
		return apperrors.BadRequest(err.Error(), err)
	}
	return nil
}
