package garments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/redis"
)

const listCacheKey = "active"

type repository interface {
	ListActive(ctx context.Context) ([]models.Garment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Garment, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Garment, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// Service serves the catalog with a short-lived Redis read-through cache.
// Cache failures degrade to database reads.
type Service struct {
	repo  repository
	cache cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

func NewService(repo repository, cache cacheStore, ttl time.Duration, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("garment repository required")
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *Service) List(ctx context.Context) ([]models.Garment, error) {
	var cached []models.Garment
	if s.readCache(ctx, listCacheKey, &cached) {
		return cached, nil
	}
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list garments")
	}
	s.writeCache(ctx, listCacheKey, rows)
	return rows, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Garment, error) {
	var cached models.Garment
	if s.readCache(ctx, id.String(), &cached) {
		return &cached, nil
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "garment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load garment")
	}
	s.writeCache(ctx, id.String(), row)
	return row, nil
}

// GetByIDs returns the garments found among ids, keyed by id. Missing ids are
// simply absent from the result.
func (s *Service) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Garment, error) {
	out := make(map[uuid.UUID]models.Garment, len(ids))
	var misses []uuid.UUID
	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		var cached models.Garment
		if s.readCache(ctx, id.String(), &cached) {
			out[id] = cached
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}

	rows, err := s.repo.FindByIDs(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
		s.writeCache(ctx, row.ID.String(), row)
	}
	return out, nil
}

func (s *Service) readCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil || s.ttl <= 0 {
		return false
	}
	raw, err := s.cache.Get(ctx, s.cache.CacheKey("garments", key))
	if err != nil {
		if !redis.IsNil(err) && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("garment cache read failed: %v", err))
		}
		return false
	}
	return json.Unmarshal([]byte(raw), dest) == nil
}

func (s *Service) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CacheKey("garments", key), payload, s.ttl); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("garment cache write failed: %v", err))
	}
}
