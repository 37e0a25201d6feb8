// Package scheduler runs the periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named unit of background work with a cron schedule.
// An empty schedule registers the job for on-demand runs only.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		timeout: 10 * time.Minute,
		logger:  logger,
	}
}

func (s *Scheduler) Register(job Job) error {
	s.jobs = append(s.jobs, job)

	schedule := job.Schedule()
	if schedule == "" {
		s.logger.Info("job registered for on-demand runs", zap.String("job", job.Name()))
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.execute(context.Background(), job) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
	}
	s.logger.Info("job scheduled", zap.String("job", job.Name()), zap.String("cron", schedule))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunByName executes a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.execute(ctx, job)
		}
	}
	return fmt.Errorf("job %q is not registered", name)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := s.logger.With(zap.String("job", job.Name()))
	log.Info("job started")
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Error("job failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return err
	}
	log.Info("job completed", zap.Duration("took", time.Since(start)))
	return nil
}
