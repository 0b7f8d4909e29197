package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/metrics"
)

const (
	defaultInterval   = time.Hour
	defaultJobTimeout = 10 * time.Minute
)

type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs the registered sweeps once per interval while holding the
// cluster-wide lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := params.JobTimeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	return &Service{
		logg:       params.Logger,
		registry:   registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   interval,
		jobTimeout: timeout,
	}, nil
}

// Run sweeps immediately and then on every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"interval": s.interval.String(),
		"jobs":     s.registry.Names(),
	})
	s.logg.Info(ctx, "cron service started")
	if err := s.RunOnce(ctx); err != nil {
		s.logg.Error(ctx, "cron cycle failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logg.Error(ctx, "cron cycle failed", err)
			}
		}
	}
}

// RunOnce executes a single cycle. It returns nil without running anything
// when another worker holds the lock. Individual job failures are logged
// and counted but do not stop the remaining jobs.
func (s *Service) RunOnce(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !locked {
		s.logg.Info(ctx, "cron lock held elsewhere, skipping cycle")
		s.metrics.IncSkipped()
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "cron lock release failed", relErr)
		}
	}()

	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   job.Name(),
		"event": "cron.job",
	})
	jobCtx, cancel := context.WithTimeout(jobCtx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())

	s.metrics.ObserveDuration(job.Name(), elapsed)
	if err != nil {
		s.logg.Error(jobCtx, "cron job failed", err)
		s.metrics.IncFailure(job.Name())
		return
	}
	s.logg.Debug(jobCtx, "cron job completed")
	s.metrics.IncSuccess(job.Name())
}
