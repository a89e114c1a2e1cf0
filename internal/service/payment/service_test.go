package payment

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/mocks"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/gateway/paypal"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CaptureOrder(ctx context.Context, orderID string) (*paypal.Capture, error) {
	args := m.Called(ctx, orderID)
	c, _ := args.Get(0).(*paypal.Capture)
	return c, args.Error(1)
}

func (m *mockGateway) RefundCapture(ctx context.Context, captureID string) (*paypal.Refund, error) {
	args := m.Called(ctx, captureID)
	r, _ := args.Get(0).(*paypal.Refund)
	return r, args.Error(1)
}

type mockSlots struct {
	mock.Mock
}

func (m *mockSlots) CheckSlot(ctx context.Context, r *model.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

type fakeRecorder struct {
	types []string
}

func (f *fakeRecorder) Emit(_ context.Context, eventType string, _ interface{}) {
	f.types = append(f.types, eventType)
}

type fixture struct {
	svc          *Service
	payments     *mocks.PaymentRepository
	discounts    *mocks.DiscountCodeRepository
	reservations *mocks.ReservationRepository
	slots        *mockSlots
	gateway      *mockGateway
	events       *fakeRecorder
}

var now = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		payments:     new(mocks.PaymentRepository),
		discounts:    new(mocks.DiscountCodeRepository),
		reservations: new(mocks.ReservationRepository),
		slots:        new(mockSlots),
		gateway:      new(mockGateway),
		events:       &fakeRecorder{},
	}
	f.svc = NewService(f.payments, f.discounts, f.reservations, f.slots, f.gateway, audit.Nop(), f.events)
	f.svc.now = func() time.Time { return now }
	return f
}

var customer = model.Actor{UserID: uuid.New(), Role: model.RoleCustomer}

func ownReservation() *model.Reservation {
	return &model.Reservation{
		Base:        model.Base{ID: uuid.New()},
		UserID:      customer.UserID,
		ScheduleID:  uuid.New(),
		Status:      model.ReservationPending,
		TotalPrice:  120,
		FinalAmount: 100,
	}
}

func TestCreatePayPalPaymentCompletes(t *testing.T) {
	f := newFixture()
	res := ownReservation()
	f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)
	f.payments.On("HasOpen", mock.Anything, res.ID).Return(false, nil)
	f.discounts.On("Get", mock.Anything, "SAVE20").Return(&model.DiscountCode{Code: "SAVE20", Amount: 20, MaxUsage: 1}, nil)
	f.slots.On("CheckSlot", mock.Anything, res).Return(nil)
	f.gateway.On("CaptureOrder", mock.Anything, "ORDER-1").
		Return(&paypal.Capture{OrderID: "ORDER-1", CaptureID: "CAP-1", Status: "COMPLETED"}, nil)
	f.payments.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(o model.SettleOptions) bool {
		return o.ConfirmReservation && o.RedeemDiscount != nil && *o.RedeemDiscount == "SAVE20"
	})).Return(nil)

	p, err := f.svc.Create(context.Background(), customer, &model.CreatePaymentRequest{
		ReservationID: res.ID,
		PaypalOrderID: "ORDER-1",
		DiscountCode:  "SAVE20",
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentCompleted, p.Status)
	assert.Equal(t, model.PaymentTypePayPal, p.PaymentType)
	assert.Equal(t, 80.0, p.Amount)
	assert.Equal(t, "CAP-1", *p.PaypalTransactionID)
	assert.Equal(t, now, *p.PaymentTimestamp)
	assert.Equal(t, []string{model.EventPaymentCompleted, model.EventReservationConfirmed}, f.events.types)
}

func TestCreatePayPalGatewayFailureRecordsFailed(t *testing.T) {
	f := newFixture()
	res := ownReservation()
	f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)
	f.payments.On("HasOpen", mock.Anything, res.ID).Return(false, nil)
	f.slots.On("CheckSlot", mock.Anything, res).Return(nil)
	f.gateway.On("CaptureOrder", mock.Anything, "ORDER-2").
		Return(nil, &paypal.APIError{StatusCode: 422, Name: "UNPROCESSABLE_ENTITY", Message: "Instrument declined"})
	f.payments.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Payment) bool {
		return p.Status == model.PaymentFailed
	}), model.SettleOptions{}).Return(nil)

	p, err := f.svc.Create(context.Background(), customer, &model.CreatePaymentRequest{
		ReservationID: res.ID,
		PaypalOrderID: "ORDER-2",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, p.Status)
	require.NotNil(t, p.FailureReason)
	assert.Equal(t, "Instrument declined", *p.FailureReason)
	assert.Nil(t, p.PaypalTransactionID)
	assert.Equal(t, []string{model.EventPaymentFailed}, f.events.types)
}

func TestCreatePayPalSlotConflictBeforeCapture(t *testing.T) {
	f := newFixture()
	res := ownReservation()
	f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)
	f.payments.On("HasOpen", mock.Anything, res.ID).Return(false, nil)
	f.slots.On("CheckSlot", mock.Anything, res).Return(apperrors.Conflict("time slot already booked", nil))

	_, err := f.svc.Create(context.Background(), customer, &model.CreatePaymentRequest{
		ReservationID: res.ID,
		PaypalOrderID: "ORDER-3",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	f.gateway.AssertNotCalled(t, "CaptureOrder", mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePayPalStoreFailureRefundsCapture(t *testing.T) {
	f := newFixture()
	res := ownReservation()
	f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)
	f.payments.On("HasOpen", mock.Anything, res.ID).Return(false, nil)
	f.slots.On("CheckSlot", mock.Anything, res).Return(nil)
	f.gateway.On("CaptureOrder", mock.Anything, "ORDER-4").
		Return(&paypal.Capture{CaptureID: "CAP-4", Status: "COMPLETED"}, nil)
	conflict := apperrors.Conflict("time slot already booked", nil)
	f.payments.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(o model.SettleOptions) bool {
		return o.ConfirmReservation
	})).Return(conflict)
	f.gateway.On("RefundCapture", mock.Anything, "CAP-4").Return(&paypal.Refund{ID: "R-1", Status: "COMPLETED"}, nil)
	f.payments.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Payment) bool {
		return p.Status == model.PaymentFailed && p.PaypalTransactionID == nil
	}), model.SettleOptions{}).Return(nil)

	_, err := f.svc.Create(context.Background(), customer, &model.CreatePaymentRequest{
		ReservationID: res.ID,
		PaypalOrderID: "ORDER-4",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	f.gateway.AssertCalled(t, "RefundCapture", mock.Anything, "CAP-4")
	f.payments.AssertNumberOfCalls(t, "Create", 2)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		res     func() *model.Reservation
		req     func(id uuid.UUID) *model.CreatePaymentRequest
		setup   func(*fixture)
		wantErr apperrors.ErrorCode
	}{
		{
			name: "already paid",
			res: func() *model.Reservation {
				r := ownReservation()
				r.IsPaid = true
				return r
			},
			req:     func(id uuid.UUID) *model.CreatePaymentRequest { return &model.CreatePaymentRequest{ReservationID: id, PaypalOrderID: "O"} },
			wantErr: apperrors.ErrConflict,
		},
		{
			name: "cancelled",
			res: func() *model.Reservation {
				r := ownReservation()
				r.Status = model.ReservationCancelled
				return r
			},
			req:     func(id uuid.UUID) *model.CreatePaymentRequest { return &model.CreatePaymentRequest{ReservationID: id, PaypalOrderID: "O"} },
			wantErr: apperrors.ErrConflict,
		},
		{
			name: "someone else's reservation",
			res: func() *model.Reservation {
				r := ownReservation()
				r.UserID = uuid.New()
				return r
			},
			req:     func(id uuid.UUID) *model.CreatePaymentRequest { return &model.CreatePaymentRequest{ReservationID: id, PaypalOrderID: "O"} },
			wantErr: apperrors.ErrBadRequest,
		},
		{
			name:    "missing order id",
			res:     ownReservation,
			req:     func(id uuid.UUID) *model.CreatePaymentRequest { return &model.CreatePaymentRequest{ReservationID: id} },
			wantErr: apperrors.ErrBadRequest,
		},
		{
			name: "exhausted discount",
			res:  ownReservation,
			req: func(id uuid.UUID) *model.CreatePaymentRequest {
				return &model.CreatePaymentRequest{ReservationID: id, PaypalOrderID: "O", DiscountCode: "USED"}
			},
			setup: func(f *fixture) {
				f.discounts.On("Get", mock.Anything, "USED").
					Return(&model.DiscountCode{Code: "USED", Amount: 5, MaxUsage: 1, UsageCount: 1, IsUsed: true}, nil)
			},
			wantErr: apperrors.ErrBadRequest,
		},
		{
			name: "discount larger than amount",
			res:  ownReservation,
			req: func(id uuid.UUID) *model.CreatePaymentRequest {
				return &model.CreatePaymentRequest{ReservationID: id, PaypalOrderID: "O", DiscountCode: "BIG"}
			},
			setup: func(f *fixture) {
				f.discounts.On("Get", mock.Anything, "BIG").
					Return(&model.DiscountCode{Code: "BIG", Amount: 500, MaxUsage: 1}, nil)
			},
			wantErr: apperrors.ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			res := tt.res()
			f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)
			f.payments.On("HasOpen", mock.Anything, res.ID).Return(false, nil)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.svc.Create(context.Background(), customer, tt.req(res.ID))
			assert.True(t, apperrors.Is(err, tt.wantErr), "got %v", err)
			f.gateway.AssertNotCalled(t, "CaptureOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateBankTransferStaysPending(t *testing.T) {
	f := newFixture()
	res := ownReservation()
	f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)
	f.payments.On("HasOpen", mock.Anything, res.ID).Return(false, nil)
	f.payments.On("Create", mock.Anything, mock.Anything, model.SettleOptions{}).Return(nil)

	p, err := f.svc.Create(context.Background(), customer, &model.CreatePaymentRequest{
		ReservationID: res.ID,
		PaymentType:   model.PaymentTypeBankTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, p.Status)
	assert.Equal(t, 100.0, p.Amount)
	f.gateway.AssertNotCalled(t, "CaptureOrder", mock.Anything, mock.Anything)
}

func TestCreateRejectsSecondOpenPayment(t *testing.T) {
	f := newFixture()
	res := ownReservation()
	f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)
	f.payments.On("HasOpen", mock.Anything, res.ID).Return(true, nil)

	for _, pt := range []model.PaymentType{model.PaymentTypeBankTransfer, model.PaymentTypePayPal} {
		_, err := f.svc.Create(context.Background(), customer, &model.CreatePaymentRequest{
			ReservationID: res.ID,
			PaymentType:   pt,
			PaypalOrderID: "ORDER-7",
		})
		appErr, ok := apperrors.As(err)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, apperrors.ErrConflict, appErr.Code)
		assert.Equal(t, "reservation already has a pending or completed payment", appErr.Message)
	}
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "CaptureOrder", mock.Anything, mock.Anything)
}

func TestAdminCreateRejectsPaidReservation(t *testing.T) {
	for _, status := range []model.PaymentStatus{model.PaymentPending, model.PaymentCompleted} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			res := ownReservation()
			res.Status = model.ReservationConfirmed
			res.IsPaid = true
			f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)

			_, err := f.svc.AdminCreate(context.Background(), model.Actor{Role: model.RoleAdmin}, &model.AdminCreatePaymentRequest{
				UserID:        customer.UserID,
				ReservationID: res.ID,
				Amount:        100,
				Status:        status,
				PaymentType:   model.PaymentTypeCreditCard,
			})
			assert.True(t, apperrors.Is(err, apperrors.ErrConflict), "got %v", err)
			f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAdminCreateRecordsFailedPaymentOnPaidReservation(t *testing.T) {
	f := newFixture()
	res := ownReservation()
	res.IsPaid = true
	f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)
	f.payments.On("Create", mock.Anything, mock.Anything, model.SettleOptions{}).Return(nil)

	p, err := f.svc.AdminCreate(context.Background(), model.Actor{Role: model.RoleAdmin}, &model.AdminCreatePaymentRequest{
		UserID:        customer.UserID,
		ReservationID: res.ID,
		Amount:        100,
		Status:        model.PaymentFailed,
		PaymentType:   model.PaymentTypeCreditCard,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, p.Status)
	f.payments.AssertNotCalled(t, "HasOpen", mock.Anything, mock.Anything)
}

func TestUpdateRejectsBackwardTransition(t *testing.T) {
	f := newFixture()
	txn := "CAP-9"
	p := &model.Payment{
		Base:                model.Base{ID: uuid.New()},
		Status:              model.PaymentCompleted,
		PaymentType:         model.PaymentTypePayPal,
		PaypalTransactionID: &txn,
	}
	f.payments.On("Get", mock.Anything, p.ID).Return(p, nil)

	pending := model.PaymentPending
	_, err := f.svc.Update(context.Background(), model.Actor{Role: model.RoleAdmin}, p.ID, &model.UpdatePaymentRequest{Status: &pending})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, model.PaymentCompleted, p.Status)
	f.payments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTerminalStatusesStay(t *testing.T) {
	for _, from := range []model.PaymentStatus{model.PaymentFailed, model.PaymentRefunded, model.PaymentCancelled} {
		t.Run(string(from), func(t *testing.T) {
			f := newFixture()
			p := &model.Payment{Base: model.Base{ID: uuid.New()}, Status: from, PaymentType: model.PaymentTypeCreditCard}
			f.payments.On("Get", mock.Anything, p.ID).Return(p, nil)

			completed := model.PaymentCompleted
			_, err := f.svc.Update(context.Background(), model.Actor{Role: model.RoleAdmin}, p.ID, &model.UpdatePaymentRequest{Status: &completed})
			assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
		})
	}
}

func TestUpdateCompletesPendingPayment(t *testing.T) {
	f := newFixture()
	res := ownReservation()
	code := "SAVE5"
	p := &model.Payment{
		Base:          model.Base{ID: uuid.New()},
		UserID:        customer.UserID,
		ReservationID: res.ID,
		Amount:        95,
		Status:        model.PaymentPending,
		PaymentType:   model.PaymentTypeBankTransfer,
		DiscountCode:  &code,
	}
	f.payments.On("Get", mock.Anything, p.ID).Return(p, nil)
	f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)
	f.slots.On("CheckSlot", mock.Anything, res).Return(nil)
	f.payments.On("Update", mock.Anything, p, mock.MatchedBy(func(o model.SettleOptions) bool {
		return o.ExpectedStatus == model.PaymentPending && o.ConfirmReservation &&
			o.RedeemDiscount != nil && *o.RedeemDiscount == code
	})).Return(nil)

	completed := model.PaymentCompleted
	got, err := f.svc.Update(context.Background(), model.Actor{Role: model.RoleAdmin}, p.ID, &model.UpdatePaymentRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, got.Status)
	assert.NotNil(t, got.PaymentTimestamp)
	assert.Contains(t, f.events.types, model.EventReservationConfirmed)
}

func TestUpdateRejectsCompletingPaidReservation(t *testing.T) {
	f := newFixture()
	res := ownReservation()
	res.Status = model.ReservationConfirmed
	res.IsPaid = true
	p := &model.Payment{
		Base:          model.Base{ID: uuid.New()},
		UserID:        customer.UserID,
		ReservationID: res.ID,
		Amount:        100,
		Status:        model.PaymentPending,
		PaymentType:   model.PaymentTypeCreditCard,
	}
	f.payments.On("Get", mock.Anything, p.ID).Return(p, nil)
	f.reservations.On("Get", mock.Anything, res.ID).Return(res, nil)

	completed := model.PaymentCompleted
	_, err := f.svc.Update(context.Background(), model.Actor{Role: model.RoleAdmin}, p.ID, &model.UpdatePaymentRequest{Status: &completed})
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, "reservation is already paid", appErr.Message)
	f.payments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	f.slots.AssertNotCalled(t, "CheckSlot", mock.Anything, mock.Anything)
	assert.Empty(t, f.events.types)
}

func TestUpdateToRefundedRefundsCapture(t *testing.T) {
	f := newFixture()
	txn := "CAP-1"
	p := &model.Payment{
		Base:                model.Base{ID: uuid.New()},
		Status:              model.PaymentCompleted,
		PaymentType:         model.PaymentTypePayPal,
		PaypalTransactionID: &txn,
	}
	f.payments.On("Get", mock.Anything, p.ID).Return(p, nil)
	f.gateway.On("RefundCapture", mock.Anything, "CAP-1").Return(&paypal.Refund{ID: "R-1", Status: "COMPLETED"}, nil)
	f.payments.On("MarkRefunded", mock.Anything, p).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Payment).Status = model.PaymentRefunded
	}).Return(nil)

	refunded := model.PaymentRefunded
	got, err := f.svc.Update(context.Background(), model.Actor{Role: model.RoleAdmin}, p.ID, &model.UpdatePaymentRequest{Status: &refunded})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, got.Status)
	f.gateway.AssertNumberOfCalls(t, "RefundCapture", 1)
	assert.Equal(t, []string{model.EventPaymentRefunded, model.EventReservationCancelled}, f.events.types)
}

func TestUpdateToRefundedKeepsPaymentWhenGatewayFails(t *testing.T) {
	f := newFixture()
	txn := "CAP-2"
	p := &model.Payment{
		Base:                model.Base{ID: uuid.New()},
		Status:              model.PaymentCompleted,
		PaymentType:         model.PaymentTypePayPal,
		PaypalTransactionID: &txn,
	}
	f.payments.On("Get", mock.Anything, p.ID).Return(p, nil)
	f.gateway.On("RefundCapture", mock.Anything, "CAP-2").Return(nil, errors.New("timeout"))

	refunded := model.PaymentRefunded
	_, err := f.svc.Update(context.Background(), model.Actor{Role: model.RoleAdmin}, p.ID, &model.UpdatePaymentRequest{Status: &refunded})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, model.PaymentCompleted, p.Status)
	f.payments.AssertNotCalled(t, "MarkRefunded", mock.Anything, mock.Anything)
}

func TestRefund(t *testing.T) {
	f := newFixture()
	txn := "CAP-5"
	p := &model.Payment{
		Base:                model.Base{ID: uuid.New()},
		Status:              model.PaymentCompleted,
		PaymentType:         model.PaymentTypePayPal,
		PaypalTransactionID: &txn,
	}
	f.payments.On("Get", mock.Anything, p.ID).Return(p, nil)
	f.gateway.On("RefundCapture", mock.Anything, "CAP-5").Return(&paypal.Refund{ID: "R-5", Status: "COMPLETED"}, nil)
	f.payments.On("MarkRefunded", mock.Anything, p).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Payment).Status = model.PaymentRefunded
	}).Return(nil)

	got, err := f.svc.Refund(context.Background(), model.Actor{Role: model.RoleAdmin}, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, got.Status)
	assert.Equal(t, []string{model.EventPaymentRefunded, model.EventReservationCancelled}, f.events.types)
}

func TestRefundGatewayError(t *testing.T) {
	f := newFixture()
	txn := "CAP-6"
	p := &model.Payment{
		Base:                model.Base{ID: uuid.New()},
		Status:              model.PaymentCompleted,
		PaymentType:         model.PaymentTypePayPal,
		PaypalTransactionID: &txn,
	}
	f.payments.On("Get", mock.Anything, p.ID).Return(p, nil)
	f.gateway.On("RefundCapture", mock.Anything, "CAP-6").Return(nil, errors.New("timeout"))

	_, err := f.svc.Refund(context.Background(), model.Actor{Role: model.RoleAdmin}, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	f.payments.AssertNotCalled(t, "MarkRefunded", mock.Anything, mock.Anything)
}

func TestRefundRequiresCompleted(t *testing.T) {
	f := newFixture()
	p := &model.Payment{Base: model.Base{ID: uuid.New()}, Status: model.PaymentPending}
	f.payments.On("Get", mock.Anything, p.ID).Return(p, nil)

	_, err := f.svc.Refund(context.Background(), model.Actor{Role: model.RoleAdmin}, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestExpirePending(t *testing.T) {
	f := newFixture()
	expired := []*model.Payment{{Base: model.Base{ID: uuid.New()}}, {Base: model.Base{ID: uuid.New()}}}
	transfer := []*model.Payment{{Base: model.Base{ID: uuid.New()}, PaymentType: model.PaymentTypeBankTransfer}}
	f.payments.On("ExpirePending", mock.Anything, []model.PaymentType{model.PaymentTypePayPal}, now.Add(-30*time.Minute)).
		Return(expired, nil)
	f.payments.On("ExpirePending", mock.Anything,
		[]model.PaymentType{model.PaymentTypeCreditCard, model.PaymentTypeBankTransfer}, now.Add(-72*time.Hour)).
		Return(transfer, nil)

	n, err := f.svc.ExpirePending(context.Background(), 30*time.Minute, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{model.EventPaymentExpired, model.EventPaymentExpired, model.EventPaymentExpired}, f.events.types)
	f.payments.AssertExpectations(t)
}

func TestCustomerCannotSeeOthersPayment(t *testing.T) {
	f := newFixture()
	p := &model.Payment{Base: model.Base{ID: uuid.New()}, UserID: uuid.New()}
	f.payments.On("Get", mock.Anything, p.ID).Return(p, nil)

	_, err := f.svc.Get(context.Background(), customer, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreateDiscountDefaults(t *testing.T) {
	f := newFixture()
	f.discounts.On("Create", mock.Anything, mock.Anything).Return(nil)

	d, err := f.svc.CreateDiscount(context.Background(), model.Actor{Role: model.RoleAdmin}, &model.CreateDiscountCodeRequest{Code: "WELCOME", Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, d.MaxUsage)

	past := now.Add(-time.Hour)
	_, err = f.svc.CreateDiscount(context.Background(), model.Actor{Role: model.RoleAdmin}, &model.CreateDiscountCodeRequest{Code: "OLD", ValidUntil: &past})
	assert.ErrorContains(t, err, "valid_until cannot be in the past")
}

func TestUpdateExpiredDiscount(t *testing.T) {
	f := newFixture()
	expired := now.Add(-48 * time.Hour)
	d := &model.DiscountCode{Code: "SUMMER", Amount: 10, MaxUsage: 3, UsageCount: 1, ValidUntil: &expired}
	f.discounts.On("Get", mock.Anything, "SUMMER").Return(d, nil)
	f.discounts.On("Update", mock.Anything, d).Return(nil)

	used := true
	got, err := f.svc.UpdateDiscount(context.Background(), model.Actor{Role: model.RoleAdmin}, "SUMMER", &model.UpdateDiscountCodeRequest{IsUsed: &used})
	require.NoError(t, err)
	assert.True(t, got.IsUsed)
	assert.Equal(t, expired, *got.ValidUntil)

	yesterday := now.Add(-24 * time.Hour)
	_, err = f.svc.UpdateDiscount(context.Background(), model.Actor{Role: model.RoleAdmin}, "SUMMER", &model.UpdateDiscountCodeRequest{ValidUntil: &yesterday})
	assert.ErrorContains(t, err, "valid_until cannot be in the past")
	f.discounts.AssertNumberOfCalls(t, "Update", 1)
}

func TestExportWritesWorkbook(t *testing.T) {
	f := newFixture()
	txn := "CAP-7"
	payments := []*model.Payment{{
		Base:                model.Base{ID: uuid.New(), CreatedAt: now},
		UserID:              uuid.New(),
		ReservationID:       uuid.New(),
		Amount:              80,
		Status:              model.PaymentCompleted,
		PaymentType:         model.PaymentTypePayPal,
		PaypalTransactionID: &txn,
	}}
	f.payments.On("List", mock.Anything, mock.MatchedBy(func(flt model.PaymentFilter) bool {
		return flt.Page == 1 && flt.PageSize == model.MaxPageSize
	})).Return(payments, nil)

	data, err := f.svc.Export(context.Background(), model.PaymentFilter{})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, payments[0].ID.String(), rows[1][0])
	assert.Equal(t, "COMPLETED", rows[1][4])
	assert.Equal(t, "CAP-7", rows[1][6])
}
