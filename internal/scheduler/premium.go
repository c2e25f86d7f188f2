package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sangamlabs/sangam/internal/models"
	"github.com/sangamlabs/sangam/internal/premium"
	"github.com/sangamlabs/sangam/internal/services"
	"github.com/sangamlabs/sangam/pkg/logger"
	"github.com/sangamlabs/sangam/pkg/metrics"
)

const (
	defaultScanSpec           = "@hourly"
	defaultAuditSpec          = "@daily"
	defaultAuditRetentionDays = 90
)

// ExpiryNotifier is the slice of NotificationService the premium scan needs.
// The persist methods run inside the per-user transaction; the announce
// methods fire after it commits.
type ExpiryNotifier interface {
	ExpiryReminder(ctx context.Context, tx *gorm.DB, userID, token string) (*models.Notification, error)
	MembershipExpired(ctx context.Context, tx *gorm.DB, userID string) (*models.Notification, error)
	Announce(row *models.Notification)
	AnnounceProfileUpdate(userID string)
}

// Scheduler runs the recurring background jobs: the premium expiry scan and
// audit log retention.
type Scheduler struct {
	db       *gorm.DB
	notifier ExpiryNotifier
	audit    *services.AuditService
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger

	scanSchedule  string
	auditSchedule string
	retention     int
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScanSchedule overrides the cron specification for the premium scan.
func WithScanSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.scanSchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention.
func WithAuditSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.auditSchedule = spec
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are kept.
func WithAuditRetentionDays(days int) Option {
	return func(s *Scheduler) {
		if days > 0 {
			s.retention = days
		}
	}
}

// NewScheduler constructs a Scheduler. The audit service may be nil, in which
// case the retention job is skipped.
func NewScheduler(db *gorm.DB, notifier ExpiryNotifier, audit *services.AuditService, opts ...Option) (*Scheduler, error) {
	if db == nil {
		return nil, errors.New("scheduler: db is required")
	}
	if notifier == nil {
		return nil, errors.New("scheduler: notification service is required")
	}

	s := &Scheduler{
		db:            db,
		notifier:      notifier,
		audit:         audit,
		now:           time.Now,
		scanSchedule:  defaultScanSpec,
		auditSchedule: defaultAuditSpec,
		retention:     defaultAuditRetentionDays,
		log:           logger.WithModule("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return s, nil
}

// Start registers the jobs with the cron scheduler and launches it.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.scanSchedule, func() {
		if err := s.Scan(context.Background()); err != nil {
			s.log.Warn("premium scan failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if s.audit != nil && s.retention > 0 {
		if _, err := s.cron.AddFunc(s.auditSchedule, func() {
			if _, err := s.audit.CleanupOlderThan(context.Background(), s.retention); err != nil {
				s.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes every job a single time. Used in tests and at shutdown.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	errs := s.Scan(ctx)
	if s.audit != nil && s.retention > 0 {
		if _, err := s.audit.CleanupOlderThan(ctx, s.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Scan walks every premium user with an expiry date and applies the reminder
// ladder. Each user is processed in its own transaction so one failure cannot
// block the rest of the scan, and re-running the scan is a no-op until the
// user crosses the next threshold.
func (s *Scheduler) Scan(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	now := s.now()

	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("is_premium = ? AND premium_expiry_date IS NOT NULL", true).
		Find(&users).Error; err != nil {
		metrics.SchedulerScans.WithLabelValues("error").Inc()
		return fmt.Errorf("scheduler: load premium users: %w", err)
	}

	var errs error
	reminders, expirations := 0, 0
	for i := range users {
		action, err := s.processUser(ctx, users[i].ID, now)
		if err != nil {
			s.log.Warn("premium scan: user failed",
				zap.String("user_id", users[i].ID),
				zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		switch action {
		case actionReminder:
			reminders++
		case actionExpired:
			expirations++
		}
	}

	result := "ok"
	if errs != nil {
		result = "error"
	}
	metrics.SchedulerScans.WithLabelValues(result).Inc()
	metrics.SchedulerScanDuration.Observe(time.Since(started).Seconds())

	s.log.Debug("premium scan finished",
		zap.Int("users", len(users)),
		zap.Int("reminders", reminders),
		zap.Int("expirations", expirations))
	return errs
}

type scanAction int

const (
	actionNone scanAction = iota
	actionReminder
	actionExpired
)

func (s *Scheduler) processUser(ctx context.Context, userID string, now time.Time) (scanAction, error) {
	action := actionNone

	var created *models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Reload inside the transaction: the snapshot from the scan query may
		// be stale by the time this user is reached.
		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("load user: %w", err)
		}
		if !user.IsPremium || user.PremiumExpiryDate == nil {
			return nil
		}

		timeLeft := user.PremiumExpiryDate.Sub(now)
		if timeLeft <= 0 {
			updates := map[string]any{
				"is_premium":            false,
				"premium_expiry_date":   nil,
				"last_premium_reminder": premium.ReminderExpired.Token(),
			}
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return fmt.Errorf("expire membership: %w", err)
			}
			row, err := s.notifier.MembershipExpired(ctx, tx, user.ID)
			if err != nil {
				return err
			}
			created = row
			action = actionExpired
			return nil
		}

		current := premium.ReminderNone
		if user.LastPremiumReminder != nil {
			current = premium.ParseReminder(*user.LastPremiumReminder)
		}

		next := premium.NextReminder(timeLeft, current)
		if next == premium.ReminderNone {
			return nil
		}

		if err := tx.Model(&user).Update("last_premium_reminder", next.Token()).Error; err != nil {
			return fmt.Errorf("record reminder: %w", err)
		}
		row, err := s.notifier.ExpiryReminder(ctx, tx, user.ID, next.Token())
		if err != nil {
			return err
		}
		created = row
		action = actionReminder
		return nil
	})
	if err != nil {
		return actionNone, err
	}

	// Pushes only after the transaction committed, so a client never sees an
	// event for a row that rolled back.
	s.notifier.Announce(created)
	if action == actionExpired {
		s.notifier.AnnounceProfileUpdate(userID)
	}
	return action, nil
}
