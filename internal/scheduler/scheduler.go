package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/triestelab/whatsapp-agent/internal/storage"
	"github.com/triestelab/whatsapp-agent/internal/whatsapp"
	"go.uber.org/zap"
)

// Per-run recipient caps. Crude backpressure against outbound bursts.
const (
	weeklyReminderCap = 10
	winbackCap        = 5

	retentionWindow = 90 * 24 * time.Hour
	winbackIdleAge  = 7 * 24 * time.Hour
	activeWindow    = 30 * 24 * time.Hour
	onboardingAge   = 24 * time.Hour
	heartbeatWindow = 30 * time.Minute
)

// Scheduler owns the cron runner and the five periodic jobs. It is
// created and started explicitly by process startup and stopped on
// shutdown; jobs share the storage and sender with the webhook pipeline.
type Scheduler struct {
	cron    *cron.Cron
	storage storage.Storage
	sender  whatsapp.TextSender
	logger  *zap.Logger
	now     func() time.Time
}

func New(store storage.Storage, sender whatsapp.TextSender, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		storage: store,
		sender:  sender,
		logger:  logger,
		now:     time.Now,
	}
}

// Start registers the jobs and launches the cron runner.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context)
	}{
		{"onboarding", "0 * * * *", s.runOnboarding},
		{"weekly_reminder", "0 9 * * 1", s.runWeeklyReminder},
		{"winback", "0 14 */3 * *", s.runWinback},
		{"admin_heartbeat", "0 */6 * * *", s.runHeartbeat},
		{"retention_purge", "0 2 * * 0", s.runRetention},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(job.spec, s.safeRun(job.name, job.run))
		if err != nil {
			return fmt.Errorf("error registering job %s: %v", job.name, err)
		}
		s.logger.Info("Job registered",
			zap.String("job", job.name),
			zap.String("spec", job.spec))
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// safeRun wraps a job body with a recover so a panicking run is logged
// and swallowed instead of killing the process and deregistering every
// future run.
func (s *Scheduler) safeRun(name string, run func(context.Context)) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Job panicked",
					zap.String("job", name),
					zap.Any("panic", r))
			}
		}()
		run(context.Background())
	}
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// runOnboarding welcomes customers created in the last 24 hours that
// have not sent a message yet.
func (s *Scheduler) runOnboarding(ctx context.Context) {
	logger := s.logger.With(zap.String("job", "onboarding"))

	customers, err := s.storage.ListNewCustomers(ctx, s.now().UTC().Add(-onboardingAge))
	if err != nil {
		logger.Error("Failed to load new customers", zap.Error(err))
		return
	}
	if len(customers) == 0 {
		logger.Info("No new customers to welcome")
		return
	}

	for _, customer := range customers {
		text := fmt.Sprintf(welcomeText, customer.Name)
		if err := s.sender.SendText(ctx, customer.Phone, text); err != nil {
			logger.Error("Failed to send welcome",
				zap.Error(err),
				zap.String("phone", customer.Phone))
			continue
		}
		logger.Info("Welcome sent", zap.String("phone", customer.Phone))
	}
}

// runWeeklyReminder sends the weekly campaign to customers active in the
// last 30 days, capped per run.
func (s *Scheduler) runWeeklyReminder(ctx context.Context) {
	logger := s.logger.With(zap.String("job", "weekly_reminder"))

	customers, err := s.storage.ListActiveCustomers(ctx, s.now().UTC().Add(-activeWindow))
	if err != nil {
		logger.Error("Failed to load active customers", zap.Error(err))
		return
	}
	logger.Info("Active customers", zap.Int("count", len(customers)))

	if len(customers) > weeklyReminderCap {
		customers = customers[:weeklyReminderCap]
	}

	for _, customer := range customers {
		text := fmt.Sprintf(weeklyReminderText, customer.Name)
		if err := s.sender.SendText(ctx, customer.Phone, text); err != nil {
			logger.Error("Failed to send reminder",
				zap.Error(err),
				zap.String("phone", customer.Phone))
			continue
		}
		logger.Info("Reminder sent", zap.String("phone", customer.Phone))
	}
}

// runWinback targets customers idle for 7+ days that have interacted at
// least once, with a sector-specific offer. Sectors without a configured
// offer are skipped.
func (s *Scheduler) runWinback(ctx context.Context) {
	logger := s.logger.With(zap.String("job", "winback"))

	customers, err := s.storage.ListIdleCustomers(ctx, s.now().UTC().Add(-winbackIdleAge))
	if err != nil {
		logger.Error("Failed to load idle customers", zap.Error(err))
		return
	}
	logger.Info("Idle customers", zap.Int("count", len(customers)))

	sent := 0
	for _, customer := range customers {
		if sent >= winbackCap {
			break
		}
		offer, ok := winbackOffers[customer.Sector]
		if !ok {
			continue
		}
		if err := s.sender.SendText(ctx, customer.Phone, offer); err != nil {
			logger.Error("Failed to send offer",
				zap.Error(err),
				zap.String("phone", customer.Phone),
				zap.String("sector", customer.Sector))
			continue
		}
		sent++
		logger.Info("Offer sent",
			zap.String("phone", customer.Phone),
			zap.String("sector", customer.Sector))
	}
}

// runHeartbeat logs activity counters for the trailing 30 minutes. No
// customer-facing side effect.
func (s *Scheduler) runHeartbeat(ctx context.Context) {
	logger := s.logger.With(zap.String("job", "admin_heartbeat"))
	since := s.now().UTC().Add(-heartbeatWindow)

	interactions, err := s.storage.CountInteractionsSince(ctx, since)
	if err != nil {
		logger.Error("Failed to count interactions", zap.Error(err))
		return
	}
	newCustomers, err := s.storage.CountCustomersCreatedSince(ctx, since)
	if err != nil {
		logger.Error("Failed to count new customers", zap.Error(err))
		return
	}
	inactive, err := s.storage.CountCustomersInactiveSince(ctx, s.now().UTC().Add(-activeWindow))
	if err != nil {
		logger.Error("Failed to count inactive customers", zap.Error(err))
		return
	}

	logger.Info("Activity stats",
		zap.Int("interactions_30m", interactions),
		zap.Int("new_customers_30m", newCustomers),
		zap.Int("inactive_customers_30d", inactive))

	if interactions > 10 || newCustomers > 5 {
		logger.Warn("High activity",
			zap.Int("interactions_30m", interactions),
			zap.Int("new_customers_30m", newCustomers))
	}
}

// runRetention purges interaction records older than 90 days.
func (s *Scheduler) runRetention(ctx context.Context) {
	logger := s.logger.With(zap.String("job", "retention_purge"))

	deleted, err := s.storage.PurgeInteractionsBefore(ctx, s.now().UTC().Add(-retentionWindow))
	if err != nil {
		logger.Error("Failed to purge interactions", zap.Error(err))
		return
	}
	logger.Info("Old interactions purged", zap.Int64("deleted", deleted))
}
