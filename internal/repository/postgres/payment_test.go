package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func completedPayment() *model.Payment {
	txID := "CAPTURE-1"
	now := time.Now()
	return &model.Payment{
		UserID:              uuid.New(),
		ReservationID:       uuid.New(),
		Amount:              80,
		Status:              model.PaymentCompleted,
		PaymentType:         model.PaymentTypePayPal,
		PaypalTransactionID: &txID,
		PaymentTimestamp:    &now,
	}
}

func TestPaymentRepository_CreateSettlesInOneTransaction(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewPaymentRepository(base)

	p := completedPayment()
	code := "SPRING"
	p.DiscountCode = &code

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE discount_codes SET")).
		WithArgs(code).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = $1, is_paid = TRUE")).
		WithArgs(model.ReservationConfirmed, p.ReservationID, model.ReservationPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), p, model.SettleOptions{
		RedeemDiscount:     &code,
		ConfirmReservation: true,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
}

func TestPaymentRepository_CreateRollsBackWhenDiscountExhausted(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewPaymentRepository(base)

	code := "ONCE"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE discount_codes SET")).
		WithArgs(code).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), completedPayment(), model.SettleOptions{RedeemDiscount: &code})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), model.ErrDiscountUnavailable.Error())
}

func TestPaymentRepository_CreateRejectsSecondConfirmation(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewPaymentRepository(base)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = $1, is_paid = TRUE")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "reservations_one_confirmed_per_slot"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), completedPayment(), model.SettleOptions{ConfirmReservation: true})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, "time slot already booked", appErr.Message)
}

func TestPaymentRepository_CreateRejectsPaidReservation(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewPaymentRepository(base)

	p := completedPayment()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("AND status IN ($3, $1) AND NOT is_paid")).
		WithArgs(model.ReservationConfirmed, p.ReservationID, model.ReservationPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), p, model.SettleOptions{ConfirmReservation: true})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Contains(t, appErr.Message, "already paid")
}

func TestPaymentRepository_CreateRejectsSecondOpenPayment(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewPaymentRepository(base)

	p := completedPayment()
	p.Status = model.PaymentPending
	p.PaymentType = model.PaymentTypeBankTransfer
	p.PaypalTransactionID = nil

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payments_one_open_per_reservation"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), p, model.SettleOptions{})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, "reservation already has a pending or completed payment", appErr.Message)
}

func TestPaymentRepository_HasOpen(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewPaymentRepository(base)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(id, model.PaymentPending, model.PaymentCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	open, err := repo.HasOpen(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestPaymentRepository_UpdateDetectsConcurrentChange(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewPaymentRepository(base)

	p := completedPayment()
	p.ID = uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET")).
		WithArgs(
			p.Amount, p.Status, p.PaypalTransactionID, p.DiscountCode, p.FailureReason,
			sqlmock.AnyArg(), sqlmock.AnyArg(), p.ID, model.PaymentPending,
		).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), p, model.SettleOptions{ExpectedStatus: model.PaymentPending})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestPaymentRepository_MarkRefundedReleasesReservation(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewPaymentRepository(base)

	p := completedPayment()
	p.ID = uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $1")).
		WithArgs(model.PaymentRefunded, sqlmock.AnyArg(), p.ID, model.PaymentCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = $1, is_paid = FALSE")).
		WithArgs(model.ReservationCancelled, sqlmock.AnyArg(), p.ReservationID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.MarkRefunded(context.Background(), p))
	assert.Equal(t, model.PaymentRefunded, p.Status)
}

func TestPaymentRepository_ExpirePending(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewPaymentRepository(base)

	cutoff := time.Now().Add(-30 * time.Minute)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE payments p SET")).
		WithArgs(model.PaymentCancelled, model.PaymentPending, sqlmock.AnyArg(), cutoff).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "reservation_id", "amount", "status", "payment_type",
			"paypal_order_id", "paypal_transaction_id", "discount_code", "failure_reason",
			"payment_timestamp", "created_at", "updated_at",
		}).AddRow(
			uuid.NewString(), uuid.NewString(), uuid.NewString(), 50.0, "CANCELLED", "BANK_TRANSFER",
			nil, nil, nil, "payment was not completed in time",
			nil, now, now,
		))

	expired, err := repo.ExpirePending(context.Background(),
		[]model.PaymentType{model.PaymentTypeCreditCard, model.PaymentTypeBankTransfer}, cutoff)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, model.PaymentCancelled, expired[0].Status)
	assert.Equal(t, model.PaymentTypeBankTransfer, expired[0].PaymentType)
}

func TestDiscountCodeRepository_ListValid(t *testing.T) {
	base, mock := setupMock(t)
	repo := NewDiscountCodeRepository(base)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("is_used = FALSE AND usage_count < max_usage")).
		WithArgs(now, model.DefaultPageSize, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"code", "amount", "is_used", "valid_until", "max_usage", "usage_count", "created_at", "updated_at",
		}).AddRow("WELCOME", 10.0, false, nil, 5, 1, now, now))

	codes, err := repo.List(context.Background(), model.DiscountFilter{ValidAt: &now})
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "WELCOME", codes[0].Code)
	assert.Equal(t, 5, codes[0].MaxUsage)
}
