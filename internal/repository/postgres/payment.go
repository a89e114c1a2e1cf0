package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const paymentColumns = `p.id, p.user_id, p.reservation_id, p.amount, p.status, p.payment_type,
	p.paypal_order_id, p.paypal_transaction_id, p.discount_code, p.failure_reason,
	p.payment_timestamp, p.created_at, p.updated_at`

type paymentRepository struct {
	BaseRepository
}

func NewPaymentRepository(base BaseRepository) repository.PaymentRepository {
	return &paymentRepository{base}
}

func (r *paymentRepository) Create(ctx context.Context, p *model.Payment, opts model.SettleOptions) error {
	query := `
		INSERT INTO payments (
			id, user_id, reservation_id, amount, status, payment_type, paypal_order_id,
			paypal_transaction_id, discount_code, failure_reason, payment_timestamp,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if opts.RedeemDiscount != nil {
			if err := redeemDiscount(ctx, tx, *opts.RedeemDiscount); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, query,
			p.ID,
			p.UserID,
			p.ReservationID,
			p.Amount,
			p.Status,
			p.PaymentType,
			p.PaypalOrderID,
			p.PaypalTransactionID,
			p.DiscountCode,
			p.FailureReason,
			p.PaymentTimestamp,
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err != nil {
			return mapError(fmt.Errorf("failed to create payment: %w", err), "payment")
		}

		if opts.ConfirmReservation {
			return confirmReservation(ctx, tx, p.ReservationID)
		}
		return nil
	})
}

func (r *paymentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, mapError(err, "payment")
	}
	return &p, nil
}

// HasOpen reports whether the reservation already has a PENDING or
// COMPLETED payment.
func (r *paymentRepository) HasOpen(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	var open bool
	err := r.db.GetContext(ctx, &open, `
		SELECT EXISTS (
			SELECT 1 FROM payments WHERE reservation_id = $1 AND status IN ($2, $3)
		)`, reservationID, model.PaymentPending, model.PaymentCompleted)
	if err != nil {
		return false, fmt.Errorf("failed to check open payments: %w", err)
	}
	return open, nil
}

func (r *paymentRepository) List(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, error) {
	var w where
	w.search(filter.Search, "u.username", "p.paypal_transaction_id")
	if filter.UserID != nil {
		w.add("p.user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		w.add("p.status = ?", *filter.Status)
	}
	if filter.From != nil {
		w.add("p.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("p.created_at < ?", *filter.To)
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + paymentColumns + `
		FROM payments p
		JOIN users u ON u.id = p.user_id` + w.String() + ` ORDER BY p.created_at DESC` + limit

	payments := []*model.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *model.Payment, opts model.SettleOptions) error {
	query := `
		UPDATE payments SET
			amount = $1,
			status = $2,
			paypal_transaction_id = $3,
			discount_code = $4,
			failure_reason = $5,
			payment_timestamp = $6,
			updated_at = $7
		WHERE id = $8 AND status = $9
	`

	p.UpdatedAt = time.Now()
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if opts.RedeemDiscount != nil {
			if err := redeemDiscount(ctx, tx, *opts.RedeemDiscount); err != nil {
				return err
			}
		}

		result, err := tx.ExecContext(ctx, query,
			p.Amount,
			p.Status,
			p.PaypalTransactionID,
			p.DiscountCode,
			p.FailureReason,
			p.PaymentTimestamp,
			p.UpdatedAt,
			p.ID,
			opts.ExpectedStatus,
		)
		if err != nil {
			return mapError(fmt.Errorf("failed to update payment: %w", err), "payment")
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.Conflict("payment status changed, reload and retry", nil)
		}

		if opts.ConfirmReservation {
			return confirmReservation(ctx, tx, p.ReservationID)
		}
		return nil
	})
}

func (r *paymentRepository) MarkRefunded(ctx context.Context, p *model.Payment) error {
	now := time.Now()
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE payments SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4`,
			model.PaymentRefunded, now, p.ID, model.PaymentCompleted)
		if err != nil {
			return fmt.Errorf("failed to refund payment: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.Conflict("only completed payments can be refunded", nil)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE reservations SET status = $1, is_paid = FALSE, updated_at = $2
			WHERE id = $3`,
			model.ReservationCancelled, now, p.ReservationID); err != nil {
			return fmt.Errorf("failed to release reservation: %w", err)
		}

		p.Status = model.PaymentRefunded
		p.UpdatedAt = now
		return nil
	})
}

// ExpirePending cancels PENDING payments of the given types created before
// the cutoff and returns them.
func (r *paymentRepository) ExpirePending(ctx context.Context, types []model.PaymentType, before time.Time) ([]*model.Payment, error) {
	query := `
		UPDATE payments p SET
			status = $1,
			failure_reason = 'payment was not completed in time',
			updated_at = NOW()
		WHERE p.status = $2 AND p.payment_type = ANY($3) AND p.created_at < $4
		RETURNING ` + paymentColumns

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	expired := []*model.Payment{}
	if err := r.db.SelectContext(ctx, &expired, query,
		model.PaymentCancelled, model.PaymentPending, pq.Array(names), before); err != nil {
		return nil, fmt.Errorf("failed to expire pending payments: %w", err)
	}
	return expired, nil
}

// redeemDiscount consumes one use of code, failing when another request
// used it up first.
func redeemDiscount(ctx context.Context, tx *sqlx.Tx, code string) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE discount_codes SET
			usage_count = usage_count + 1,
			is_used = (usage_count + 1 >= max_usage),
			updated_at = NOW()
		WHERE code = $1
		AND NOT is_used
		AND usage_count < max_usage
		AND (valid_until IS NULL OR valid_until >= NOW())`, code)
	if err != nil {
		return fmt.Errorf("failed to redeem discount code: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.Conflict(model.ErrDiscountUnavailable.Error(), nil)
	}
	return nil
}

// confirmReservation marks an unpaid reservation paid and CONFIRMED. The
// partial unique index rejects a second confirmed reservation on the same
// schedule.
func confirmReservation(ctx context.Context, tx *sqlx.Tx, reservationID uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE reservations SET status = $1, is_paid = TRUE, updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $1) AND NOT is_paid`,
		model.ReservationConfirmed, reservationID, model.ReservationPending)
	if err != nil {
		return mapError(fmt.Errorf("failed to confirm reservation: %w", err), "reservation")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.Conflict("reservation is already paid or can no longer be confirmed", nil)
	}
	return nil
}

type discountCodeRepository struct {
	BaseRepository
}

func NewDiscountCodeRepository(base BaseRepository) repository.DiscountCodeRepository {
	return &discountCodeRepository{base}
}

const discountColumns = `code, amount, is_used, valid_until, max_usage, usage_count, created_at, updated_at`

func (r *discountCodeRepository) Create(ctx context.Context, d *model.DiscountCode) error {
	query := `
		INSERT INTO discount_codes (
			code, amount, is_used, valid_until, max_usage, usage_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		d.Code, d.Amount, d.IsUsed, d.ValidUntil, d.MaxUsage, d.UsageCount, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return mapError(fmt.Errorf("failed to create discount code: %w", err), "discount code")
	}
	return nil
}

func (r *discountCodeRepository) Get(ctx context.Context, code string) (*model.DiscountCode, error) {
	var d model.DiscountCode
	query := `SELECT ` + discountColumns + ` FROM discount_codes WHERE code = $1`
	if err := r.db.GetContext(ctx, &d, query, code); err != nil {
		return nil, mapError(err, "discount code")
	}
	return &d, nil
}

func (r *discountCodeRepository) List(ctx context.Context, filter model.DiscountFilter) ([]*model.DiscountCode, error) {
	var w where
	w.search(filter.Search, "code")
	if filter.ValidAt != nil {
		w.add("is_used = FALSE AND usage_count < max_usage AND (valid_until IS NULL OR valid_until >= ?)", *filter.ValidAt)
	}
	limit, args := w.page(filter.Limit(), filter.Offset())

	query := `SELECT ` + discountColumns + ` FROM discount_codes` + w.String() + ` ORDER BY created_at DESC` + limit

	codes := []*model.DiscountCode{}
	if err := r.db.SelectContext(ctx, &codes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list discount codes: %w", err)
	}
	return codes, nil
}

func (r *discountCodeRepository) Update(ctx context.Context, d *model.DiscountCode) error {
	query := `
		UPDATE discount_codes SET
			amount = $1,
			is_used = $2,
			valid_until = $3,
			max_usage = $4,
			usage_count = $5,
			updated_at = $6
		WHERE code = $7
	`

	d.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		d.Amount, d.IsUsed, d.ValidUntil, d.MaxUsage, d.UsageCount, d.UpdatedAt, d.Code)
	if err != nil {
		return mapError(fmt.Errorf("failed to update discount code: %w", err), "discount code")
	}
	return expectOne(result, "discount code")
}
