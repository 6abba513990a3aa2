package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"example.com/subtracker/backend/internal/config"
)

type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.SchedulerConfig
}

// New создает планировщик с восстановлением после паник и логами через slog.
func New(jobs *Jobs, logger *slog.Logger, cfg config.SchedulerConfig) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.RenewalRolloverSchedule, s.jobs.RollOverRenewals); err != nil {
		s.logger.Error("failed to schedule renewal rollover job", "error", err)
	} else {
		s.logger.Info("scheduled renewal rollover job", "schedule", s.config.RenewalRolloverSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.SessionSweepSchedule, s.jobs.SweepSessions); err != nil {
		s.logger.Error("failed to schedule session sweep job", "error", err)
	} else {
		s.logger.Info("scheduled session sweep job", "schedule", s.config.SessionSweepSchedule)
	}

	s.cron.Start()
}

// Stop останавливает cron и возвращает контекст, который завершится после текущих задач.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
