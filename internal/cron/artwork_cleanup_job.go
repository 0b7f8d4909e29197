package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

const (
	defaultArtworkRetention = 7 * 24 * time.Hour
	defaultArtworkBatch     = 200
)

type ArtworkCleanupJobParams struct {
	Logger     *logger.Logger
	Repository artworkCleanupRepo
	Storage    objectDeleter
	TempPrefix string
	Retention  time.Duration
	BatchSize  int
}

type artworkCleanupRepo interface {
	ListStaleTemporary(ctx context.Context, cutoff time.Time, limit int) ([]models.ArtworkFile, error)
	MarkDeleted(ctx context.Context, ids []uuid.UUID) error
}

type objectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// NewArtworkCleanupJob removes uploads that never made it onto an order.
func NewArtworkCleanupJob(params ArtworkCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("artwork repository required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("object storage required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultArtworkRetention
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultArtworkBatch
	}
	return &artworkCleanupJob{
		logg:       params.Logger,
		repo:       params.Repository,
		storage:    params.Storage,
		tempPrefix: params.TempPrefix,
		retention:  retention,
		batch:      batch,
		now:        time.Now,
	}, nil
}

type artworkCleanupJob struct {
	logg       *logger.Logger
	repo       artworkCleanupRepo
	storage    objectDeleter
	tempPrefix string
	retention  time.Duration
	batch      int
	now        func() time.Time
}

func (j *artworkCleanupJob) Name() string { return "artwork-temp-cleanup" }

// Run deletes the stored objects first and only marks rows whose objects are
// all gone, so a failed delete is retried on the next cycle.
func (j *artworkCleanupJob) Run(ctx context.Context) error {
	cutoff := cutoffFrom(j.now(), j.retention)
	rows, err := j.repo.ListStaleTemporary(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list stale artwork: %w", err)
	}

	var (
		errs    error
		removed []uuid.UUID
	)
	for _, row := range rows {
		var rowErr error
		for _, key := range artwork.StorageKeys(row, j.tempPrefix) {
			if key == "" {
				continue
			}
			rowErr = multierr.Append(rowErr, j.storage.Delete(ctx, key))
		}
		if rowErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete artwork %s: %w", row.ID, rowErr))
			continue
		}
		removed = append(removed, row.ID)
	}
	if err := j.repo.MarkDeleted(ctx, removed); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("mark artwork deleted: %w", err))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(rows),
		"deleted":    len(removed),
	})
	j.logg.Info(logCtx, "temporary artwork cleanup complete")
	return errs
}
