// Package scheduler runs the tracker's background jobs: nightly snapshot
// backups and current-month summary cache warming.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named unit of background work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New creates a new scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// AddJob registers a job with a cron schedule ("@daily", "0 3 * * *", ...).
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(); err != nil {
			s.logger.Error("scheduled job failed",
				zap.String("job", job.Name()),
				zap.Error(err),
			)
			return
		}
		s.logger.Debug("scheduled job completed", zap.String("job", job.Name()))
	})
	if err != nil {
		return err
	}

	s.logger.Info("job registered",
		zap.String("job", job.Name()),
		zap.String("schedule", schedule),
	)
	return nil
}
