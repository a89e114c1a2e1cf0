// Package app assembles the repositories and services shared by the API
// server, the worker and the management commands.
package app

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/notify"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/service/attendance"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	authsvc "github.com/jwalitptl/clinic-api/internal/service/auth"
	"github.com/jwalitptl/clinic-api/internal/service/comment"
	"github.com/jwalitptl/clinic-api/internal/service/laser"
	"github.com/jwalitptl/clinic-api/internal/service/payment"
	"github.com/jwalitptl/clinic-api/internal/service/profile"
	"github.com/jwalitptl/clinic-api/internal/service/reservation"
	"github.com/jwalitptl/clinic-api/internal/service/shift"
	"github.com/jwalitptl/clinic-api/internal/service/user"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/event"
	"github.com/jwalitptl/clinic-api/pkg/gateway/paypal"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

const MetricsNamespace = "clinic"

type App struct {
	Config   *config.Config
	DB       *sqlx.DB
	Location *time.Location
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	JWT      auth.JWTService
	Email    email.Service
	SMS      notify.SMSSender
	Outbox   repository.OutboxRepository

	auditLog *audit.AsyncLogger
	zap      *zap.Logger

	Audit        *audit.Service
	Auth         *authsvc.Service
	Users        *user.Service
	Profiles     *profile.Service
	Comments     *comment.Service
	Attendance   *attendance.Service
	Laser        *laser.Service
	Shifts       *shift.Service
	Reservations *reservation.Service
	Payments     *payment.Service
}

// SetupLogging configures the global zerolog logger from cfg.
func SetupLogging(cfg config.LogConfig) *logger.Logger {
	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.JSON,
	})
	log.Logger = *l.Zerolog()
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.Level))
	return l
}

// New wires every service on top of db. Close must be called to flush
// pending audit entries.
func New(cfg *config.Config, db *sqlx.DB) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(MetricsNamespace, reg)

	zl, err := newZap(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway logger: %w", err)
	}

	base := postgres.NewBaseRepository(db)
	var (
		users           = postgres.NewUserRepository(base)
		tokens          = postgres.NewTokenRepository(base)
		profiles        = postgres.NewProfileRepository(base)
		comments        = postgres.NewCommentRepository(base)
		attendances     = postgres.NewAttendanceRepository(base)
		laserAreas      = postgres.NewLaserAreaRepository(base)
		laserSchedules  = postgres.NewLaserScheduleRepository(base)
		shifts          = postgres.NewShiftRepository(base)
		cancellations   = postgres.NewCancellationPeriodRepository(base)
		schedules       = postgres.NewScheduleRepository(base)
		reservations    = postgres.NewReservationRepository(base)
		preReservations = postgres.NewPreReservationRepository(base)
		payments        = postgres.NewPaymentRepository(base)
		discounts       = postgres.NewDiscountCodeRepository(base)
		outbox          = postgres.NewOutboxRepository(base)
		audits          = postgres.NewAuditRepository(base)
	)

	auditSvc := audit.NewService(audits)
	auditLog := audit.NewAsyncLogger(auditSvc, cfg.Audit.BufferSize)
	events := event.WithMetrics(event.NewRecorder(outbox), m)

	jwt := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshTTL:    time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
		Issuer:        cfg.JWT.Issuer,
	})
	hasher := security.NewBcryptHasher(0)
	mailer := email.NewService(cfg.SMTP)

	gateway := paypal.NewClient(paypal.Config{
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		BaseURL:      cfg.PayPal.BaseURL,
		Timeout:      cfg.PayPal.Timeout,
	}, paypal.WithLogger(zl), paypal.WithLatency(m.GatewayLatency))
	if !cfg.PayPal.Enabled() {
		log.Warn().Msg("PayPal credentials not set, PAYPAL payments will be rejected")
	}

	reservationSvc := reservation.NewService(reservation.Repositories{
		Schedules:       schedules,
		Reservations:    reservations,
		PreReservations: preReservations,
		Cancellations:   cancellations,
		LaserAreas:      laserAreas,
		LaserSchedules:  laserSchedules,
		Users:           users,
	}, auditLog, events, loc)

	return &App{
		Config:   cfg,
		DB:       db,
		Location: loc,
		Registry: reg,
		Metrics:  m,
		JWT:      jwt,
		Email:    mailer,
		SMS:      notify.NewSMSSender(cfg.Twilio),
		Outbox:   outbox,
		auditLog: auditLog,
		zap:      zl,

		Audit:        auditSvc,
		Auth:         authsvc.NewService(users, tokens, jwt, hasher, mailer, auditLog),
		Users:        user.NewService(users, hasher, auditLog),
		Profiles:     profile.NewService(profiles, auditLog),
		Comments:     comment.NewService(comments, auditLog),
		Attendance:   attendance.NewService(attendances, users, auditLog),
		Laser:        laser.NewService(laserAreas, laserSchedules, auditLog),
		Shifts:       shift.NewService(shifts, cancellations, users, auditLog, loc),
		Reservations: reservationSvc,
		Payments: payment.NewService(payments, discounts, reservations, reservationSvc, gateway,
			auditLog, events),
	}, nil
}

// Close flushes buffered audit entries and the gateway logger.
func (a *App) Close() {
	a.auditLog.Close()
	_ = a.zap.Sync()
}

func newZap(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
