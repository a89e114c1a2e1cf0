package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/notify"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const (
	JobExpirePayments = "expire_payments"
	JobReminders      = "reminders"
	JobCleanup        = "cleanup"

	jobTimeout = 5 * time.Minute
)

type PaymentExpirer interface {
	ExpirePending(ctx context.Context, ttl, offlineTTL time.Duration) (int, error)
}

type ReminderSource interface {
	Reminders(ctx context.Context, day model.Date) ([]*model.ReservationReminder, error)
}

type AuditCleaner interface {
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

type OutboxCleaner interface {
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

type Config struct {
	ExpirySchedule     string
	ReminderSchedule   string
	CleanupSchedule    string
	PendingTTL         time.Duration
	OfflinePendingTTL  time.Duration
	AuditRetentionDays int
	OutboxRetention    time.Duration
	Location           *time.Location
}

type Dependencies struct {
	Payments  PaymentExpirer
	Reminders ReminderSource
	Audit     AuditCleaner
	Outbox    OutboxCleaner
	Email     email.Service
	SMS       notify.SMSSender
}

// Scheduler runs the periodic maintenance jobs: expiring abandoned PayPal
// payments, next-day reminders and retention cleanup.
type Scheduler struct {
	cron    *cron.Cron
	cfg     Config
	deps    Dependencies
	metrics *metrics.Metrics
	ctx     context.Context
	now     func() time.Time
}

func NewScheduler(cfg Config, deps Dependencies, m *metrics.Metrics) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	logger := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		cfg:     cfg,
		deps:    deps,
		metrics: m,
		ctx:     context.Background(),
		now:     time.Now,
	}

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{JobExpirePayments, cfg.ExpirySchedule, s.ExpirePayments},
		{JobReminders, cfg.ReminderSchedule, s.SendReminders},
		{JobCleanup, cfg.CleanupSchedule, s.Cleanup},
	}
	for _, j := range jobs {
		if j.schedule == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.schedule, s.wrap(j.name, j.run)); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for job %s: %w", j.schedule, j.name, err)
		}
	}
	return s, nil
}

// Start runs the jobs until Stop. ctx is the parent of every job run.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().Msg("scheduled jobs did not finish before shutdown")
	}
}

func (s *Scheduler) wrap(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()

		start := time.Now()
		err := run(ctx)
		status := "success"
		if err != nil {
			status = "error"
			log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		} else {
			log.Info().Str("job", name).Dur("duration", time.Since(start)).Msg("scheduled job finished")
		}
		if s.metrics != nil {
			s.metrics.JobRuns.WithLabelValues(name, status).Inc()
		}
	}
}

func (s *Scheduler) ExpirePayments(ctx context.Context) error {
	n, err := s.deps.Payments.ExpirePending(ctx, s.cfg.PendingTTL, s.cfg.OfflinePendingTTL)
	if err != nil {
		return fmt.Errorf("failed to expire pending payments: %w", err)
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("expired pending payments")
	}
	return nil
}

// SendReminders notifies every customer with a confirmed reservation
// tomorrow, by SMS when a phone number is on file and by email otherwise.
// Delivery failures are counted and do not stop the run.
func (s *Scheduler) SendReminders(ctx context.Context) error {
	tomorrow := model.NewDate(s.now().In(s.cfg.Location)).AddDays(1)
	reminders, err := s.deps.Reminders.Reminders(ctx, tomorrow)
	if err != nil {
		return err
	}

	var failed int
	for _, r := range reminders {
		if err := s.remind(ctx, r); err != nil {
			failed++
			log.Warn().Err(err).Str("reservation_id", r.ReservationID.String()).Msg("reminder not delivered")
		}
	}
	log.Info().Int("total", len(reminders)).Int("failed", failed).Str("day", tomorrow.String()).Msg("reminders sent")
	return nil
}

func (s *Scheduler) remind(ctx context.Context, r *model.ReservationReminder) error {
	body := reminderText(r)

	if s.deps.SMS != nil && s.deps.SMS.Enabled() && r.PhoneNumber != nil && *r.PhoneNumber != "" {
		err := s.deps.SMS.Send(ctx, *r.PhoneNumber, body)
		s.count("sms", err)
		if err == nil {
			return nil
		}
		if r.Email == "" {
			return err
		}
	}

	if r.Email == "" {
		s.count("none", errNoContact)
		return errNoContact
	}
	err := s.deps.Email.SendReminder(ctx, r.Email, r.Username, body)
	s.count("email", err)
	return err
}

var errNoContact = errors.New("customer has no phone number or email")

func (s *Scheduler) count(channel string, err error) {
	if s.metrics == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	s.metrics.Notifications.WithLabelValues(channel, status).Inc()
}

func reminderText(r *model.ReservationReminder) string {
	what := "appointment"
	if r.LaserArea != nil && *r.LaserArea != "" {
		what = *r.LaserArea + " laser appointment"
	}
	return fmt.Sprintf("Hi %s, this is a reminder of your %s on %s, time slot %s.",
		r.Username, what, r.Date.String(), r.TimeSlot)
}

// Cleanup drops audit entries past retention and delivered outbox events.
func (s *Scheduler) Cleanup(ctx context.Context) error {
	var errs []error

	if s.cfg.AuditRetentionDays > 0 {
		n, err := s.deps.Audit.Cleanup(ctx, s.cfg.AuditRetentionDays)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to clean up audit logs: %w", err))
		} else {
			log.Info().Int64("rows", n).Int("retention_days", s.cfg.AuditRetentionDays).Msg("cleaned up audit logs")
		}
	}

	if s.cfg.OutboxRetention > 0 {
		n, err := s.deps.Outbox.DeleteProcessedBefore(ctx, s.now().Add(-s.cfg.OutboxRetention))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to clean up outbox events: %w", err))
		} else {
			log.Info().Int64("rows", n).Msg("cleaned up processed outbox events")
		}
	}

	return errors.Join(errs...)
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	fields(log.Debug(), keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields(log.Error().Err(err), keysAndValues).Msg(msg)
}

func fields(e *zerolog.Event, keysAndValues []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, keysAndValues[i+1])
	}
	return e
}
