package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

const (
	defaultOutboxRetention = 30 * 24 * time.Hour
	retentionBatchSize     = 1000
	// maxRetentionBatches bounds one cycle; the rest waits for the next tick.
	maxRetentionBatches = 50
)

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	Repository outboxRetentionRepo
	Retention  time.Duration
	BatchSize  int
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// NewOutboxRetentionJob prunes published outbox rows older than the
// retention window in bounded batches. Unpublished rows are never touched.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Repository == nil:
		return nil, fmt.Errorf("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: params.Retention,
		batchSize: params.BatchSize,
		now:       time.Now,
	}
	if job.retention <= 0 {
		job.retention = defaultOutboxRetention
	}
	if job.batchSize <= 0 {
		job.batchSize = retentionBatchSize
	}
	return job, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	repo      outboxRetentionRepo
	retention time.Duration
	batchSize int
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := cutoffFrom(j.now(), j.retention)
	var total int64
	batches := 0
	for batches < maxRetentionBatches {
		if err := ctx.Err(); err != nil {
			return err
		}
		deleted, err := j.repo.DeletePublishedBefore(ctx, cutoff, j.batchSize)
		if err != nil {
			return fmt.Errorf("outbox retention after %d rows: %w", total, err)
		}
		batches++
		total += deleted
		if deleted < int64(j.batchSize) {
			break
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": total,
		"batches":      batches,
	}), "outbox retention cleanup complete")
	return nil
}
