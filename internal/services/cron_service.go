package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TokenPruner deletes refresh tokens nobody can use any more
type TokenPruner interface {
	DeleteExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// CronConfig schedules the maintenance jobs. Schedules use the six field
// format with seconds.
type CronConfig struct {
	TokenCleanupSchedule     string
	RevokedTokenRetention    time.Duration
	RateLimitCleanupSchedule string
}

// CronService manages scheduled background jobs
type CronService struct {
	cron    *cron.Cron
	config  CronConfig
	tokens  TokenPruner
	limiter *RateLimitService
	logger  logrus.FieldLogger
}

// NewCronService creates a new CronService. limiter may be nil.
func NewCronService(config CronConfig, tokens TokenPruner, limiter *RateLimitService, logger logrus.FieldLogger) *CronService {
	return &CronService{
		cron:    cron.New(cron.WithSeconds()),
		config:  config,
		tokens:  tokens,
		limiter: limiter,
		logger:  logger,
	}
}

// Start schedules the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.config.TokenCleanupSchedule, s.cleanupTokensJob); err != nil {
		return fmt.Errorf("failed to schedule token cleanup job: %w", err)
	}
	s.logger.WithField("schedule", s.config.TokenCleanupSchedule).Info("Scheduled: refresh token cleanup")

	if s.limiter != nil {
		if _, err := s.cron.AddFunc(s.config.RateLimitCleanupSchedule, s.cleanupRateLimitsJob); err != nil {
			return fmt.Errorf("failed to schedule rate limit cleanup job: %w", err)
		}
		s.logger.WithField("schedule", s.config.RateLimitCleanupSchedule).Info("Scheduled: rate limit cleanup")
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) cleanupTokensJob() {
	start := time.Now()

	removed, err := s.tokens.DeleteExpired(context.Background(), s.config.RevokedTokenRetention)
	if err != nil {
		s.logger.WithError(err).Error("Refresh token cleanup failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"removed":     removed,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Refresh token cleanup finished")
}

func (s *CronService) cleanupRateLimitsJob() {
	removed := s.limiter.CleanupExpired()
	s.logger.WithField("removed", removed).Debug("Rate limit cleanup finished")
}

// RunTokenCleanupNow runs the token cleanup job immediately
func (s *CronService) RunTokenCleanupNow() {
	s.cleanupTokensJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() []map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}
	return jobs
}
