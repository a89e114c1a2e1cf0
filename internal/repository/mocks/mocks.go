// Package mocks holds testify mocks of the repository interfaces for
// service tests.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

var (
	_ repository.UserRepository               = (*UserRepository)(nil)
	_ repository.TokenRepository              = (*TokenRepository)(nil)
	_ repository.AttendanceRepository         = (*AttendanceRepository)(nil)
	_ repository.ProfileRepository            = (*ProfileRepository)(nil)
	_ repository.CommentRepository            = (*CommentRepository)(nil)
	_ repository.LaserAreaRepository          = (*LaserAreaRepository)(nil)
	_ repository.LaserScheduleRepository      = (*LaserScheduleRepository)(nil)
	_ repository.ScheduleRepository           = (*ScheduleRepository)(nil)
	_ repository.ReservationRepository        = (*ReservationRepository)(nil)
	_ repository.PreReservationRepository     = (*PreReservationRepository)(nil)
	_ repository.ShiftRepository              = (*ShiftRepository)(nil)
	_ repository.CancellationPeriodRepository = (*CancellationPeriodRepository)(nil)
	_ repository.PaymentRepository            = (*PaymentRepository)(nil)
	_ repository.DiscountCodeRepository       = (*DiscountCodeRepository)(nil)
	_ repository.OutboxRepository             = (*OutboxRepository)(nil)
)

type UserRepository struct{ mock.Mock }

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.User)
	return v, args.Error(1)
}

func (m *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	v, _ := args.Get(0).(*model.User)
	return v, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	v, _ := args.Get(0).(*model.User)
	return v, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.User)
	return v, args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type TokenRepository struct{ mock.Mock }

func (m *TokenRepository) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	return m.Called(ctx, userID, token, expiry).Error(0)
}

func (m *TokenRepository) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	v, _ := args.Get(0).(uuid.UUID)
	return v, args.Error(1)
}

func (m *TokenRepository) InvalidateResetToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type AttendanceRepository struct{ mock.Mock }

func (m *AttendanceRepository) Create(ctx context.Context, a *model.StaffAttendance) error {
	return m.Called(ctx, a).Error(0)
}

func (m *AttendanceRepository) Get(ctx context.Context, id uuid.UUID) (*model.StaffAttendance, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.StaffAttendance)
	return v, args.Error(1)
}

func (m *AttendanceRepository) List(ctx context.Context, filter model.AttendanceFilter) ([]*model.StaffAttendance, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.StaffAttendance)
	return v, args.Error(1)
}

func (m *AttendanceRepository) Update(ctx context.Context, a *model.StaffAttendance) error {
	return m.Called(ctx, a).Error(0)
}

type ProfileRepository struct{ mock.Mock }

func (m *ProfileRepository) Create(ctx context.Context, p *model.CustomerProfile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProfileRepository) Get(ctx context.Context, id uuid.UUID) (*model.CustomerProfile, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.CustomerProfile)
	return v, args.Error(1)
}

func (m *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.CustomerProfile, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).(*model.CustomerProfile)
	return v, args.Error(1)
}

func (m *ProfileRepository) List(ctx context.Context, filter model.ProfileFilter) ([]*model.CustomerProfile, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.CustomerProfile)
	return v, args.Error(1)
}

func (m *ProfileRepository) Update(ctx context.Context, p *model.CustomerProfile) error {
	return m.Called(ctx, p).Error(0)
}

type CommentRepository struct{ mock.Mock }

func (m *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *CommentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.Comment)
	return v, args.Error(1)
}

func (m *CommentRepository) List(ctx context.Context, filter model.CommentFilter) ([]*model.Comment, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.Comment)
	return v, args.Error(1)
}

func (m *CommentRepository) Update(ctx context.Context, c *model.Comment) error {
	return m.Called(ctx, c).Error(0)
}

type LaserAreaRepository struct{ mock.Mock }

func (m *LaserAreaRepository) Create(ctx context.Context, area *model.LaserArea) error {
	return m.Called(ctx, area).Error(0)
}

func (m *LaserAreaRepository) Get(ctx context.Context, name string) (*model.LaserArea, error) {
	args := m.Called(ctx, name)
	v, _ := args.Get(0).(*model.LaserArea)
	return v, args.Error(1)
}

func (m *LaserAreaRepository) List(ctx context.Context, filter model.LaserAreaFilter) ([]*model.LaserArea, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.LaserArea)
	return v, args.Error(1)
}

func (m *LaserAreaRepository) Update(ctx context.Context, area *model.LaserArea) error {
	return m.Called(ctx, area).Error(0)
}

func (m *LaserAreaRepository) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

type LaserScheduleRepository struct{ mock.Mock }

func (m *LaserScheduleRepository) Create(ctx context.Context, s *model.LaserAreaSchedule) error {
	return m.Called(ctx, s).Error(0)
}

func (m *LaserScheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.LaserAreaSchedule, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.LaserAreaSchedule)
	return v, args.Error(1)
}

func (m *LaserScheduleRepository) List(ctx context.Context, filter model.LaserScheduleFilter) ([]*model.LaserAreaSchedule, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.LaserAreaSchedule)
	return v, args.Error(1)
}

func (m *LaserScheduleRepository) Update(ctx context.Context, s *model.LaserAreaSchedule) error {
	return m.Called(ctx, s).Error(0)
}

func (m *LaserScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *LaserScheduleRepository) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

type ScheduleRepository struct{ mock.Mock }

func (m *ScheduleRepository) Create(ctx context.Context, s *model.ReservationSchedule) error {
	return m.Called(ctx, s).Error(0)
}

func (m *ScheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.ReservationSchedule, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.ReservationSchedule)
	return v, args.Error(1)
}

func (m *ScheduleRepository) List(ctx context.Context, filter model.ScheduleFilter) ([]*model.ReservationSchedule, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.ReservationSchedule)
	return v, args.Error(1)
}

func (m *ScheduleRepository) Update(ctx context.Context, s *model.ReservationSchedule) error {
	return m.Called(ctx, s).Error(0)
}

type ReservationRepository struct{ mock.Mock }

func (m *ReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *ReservationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.Reservation)
	return v, args.Error(1)
}

func (m *ReservationRepository) List(ctx context.Context, filter model.ReservationFilter) ([]*model.Reservation, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.Reservation)
	return v, args.Error(1)
}

func (m *ReservationRepository) Update(ctx context.Context, r *model.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *ReservationRepository) HasConfirmed(ctx context.Context, scheduleID uuid.UUID, exclude *uuid.UUID) (bool, error) {
	args := m.Called(ctx, scheduleID, exclude)
	return args.Bool(0), args.Error(1)
}

func (m *ReservationRepository) ListReminders(ctx context.Context, day model.Date) ([]*model.ReservationReminder, error) {
	args := m.Called(ctx, day)
	v, _ := args.Get(0).([]*model.ReservationReminder)
	return v, args.Error(1)
}

type PreReservationRepository struct{ mock.Mock }

func (m *PreReservationRepository) Create(ctx context.Context, p *model.PreReservation) error {
	return m.Called(ctx, p).Error(0)
}

func (m *PreReservationRepository) Get(ctx context.Context, id uuid.UUID) (*model.PreReservation, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.PreReservation)
	return v, args.Error(1)
}

func (m *PreReservationRepository) List(ctx context.Context, filter model.PreReservationFilter) ([]*model.PreReservation, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.PreReservation)
	return v, args.Error(1)
}

func (m *PreReservationRepository) Update(ctx context.Context, p *model.PreReservation) error {
	return m.Called(ctx, p).Error(0)
}

type ShiftRepository struct{ mock.Mock }

func (m *ShiftRepository) Create(ctx context.Context, s *model.OperatorShift) error {
	return m.Called(ctx, s).Error(0)
}

func (m *ShiftRepository) Get(ctx context.Context, id uuid.UUID) (*model.OperatorShift, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.OperatorShift)
	return v, args.Error(1)
}

func (m *ShiftRepository) List(ctx context.Context, filter model.ShiftFilter) ([]*model.OperatorShift, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.OperatorShift)
	return v, args.Error(1)
}

func (m *ShiftRepository) Update(ctx context.Context, s *model.OperatorShift) error {
	return m.Called(ctx, s).Error(0)
}

func (m *ShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type CancellationPeriodRepository struct{ mock.Mock }

func (m *CancellationPeriodRepository) Create(ctx context.Context, p *model.CancellationPeriod) error {
	return m.Called(ctx, p).Error(0)
}

func (m *CancellationPeriodRepository) Get(ctx context.Context, id uuid.UUID) (*model.CancellationPeriod, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.CancellationPeriod)
	return v, args.Error(1)
}

func (m *CancellationPeriodRepository) List(ctx context.Context, filter model.CancellationPeriodFilter) ([]*model.CancellationPeriod, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.CancellationPeriod)
	return v, args.Error(1)
}

func (m *CancellationPeriodRepository) Update(ctx context.Context, p *model.CancellationPeriod) error {
	return m.Called(ctx, p).Error(0)
}

func (m *CancellationPeriodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *CancellationPeriodRepository) Covers(ctx context.Context, t time.Time) (bool, error) {
	args := m.Called(ctx, t)
	return args.Bool(0), args.Error(1)
}

type PaymentRepository struct{ mock.Mock }

func (m *PaymentRepository) Create(ctx context.Context, p *model.Payment, opts model.SettleOptions) error {
	return m.Called(ctx, p, opts).Error(0)
}

func (m *PaymentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*model.Payment)
	return v, args.Error(1)
}

func (m *PaymentRepository) List(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.Payment)
	return v, args.Error(1)
}

func (m *PaymentRepository) HasOpen(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	args := m.Called(ctx, reservationID)
	return args.Bool(0), args.Error(1)
}

func (m *PaymentRepository) Update(ctx context.Context, p *model.Payment, opts model.SettleOptions) error {
	return m.Called(ctx, p, opts).Error(0)
}

func (m *PaymentRepository) MarkRefunded(ctx context.Context, p *model.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *PaymentRepository) ExpirePending(ctx context.Context, types []model.PaymentType, before time.Time) ([]*model.Payment, error) {
	args := m.Called(ctx, types, before)
	v, _ := args.Get(0).([]*model.Payment)
	return v, args.Error(1)
}

type DiscountCodeRepository struct{ mock.Mock }

func (m *DiscountCodeRepository) Create(ctx context.Context, d *model.DiscountCode) error {
	return m.Called(ctx, d).Error(0)
}

func (m *DiscountCodeRepository) Get(ctx context.Context, code string) (*model.DiscountCode, error) {
	args := m.Called(ctx, code)
	v, _ := args.Get(0).(*model.DiscountCode)
	return v, args.Error(1)
}

func (m *DiscountCodeRepository) List(ctx context.Context, filter model.DiscountFilter) ([]*model.DiscountCode, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]*model.DiscountCode)
	return v, args.Error(1)
}

func (m *DiscountCodeRepository) Update(ctx context.Context, d *model.DiscountCode) error {
	return m.Called(ctx, d).Error(0)
}

type OutboxRepository struct{ mock.Mock }

func (m *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *OutboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	v, _ := args.Get(0).([]*model.OutboxEvent)
	return v, args.Error(1)
}

func (m *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error {
	return m.Called(ctx, id, errMsg, retryAt).Error(0)
}

func (m *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
