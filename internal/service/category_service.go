package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"budgetbook/api/internal/ids"
	"budgetbook/api/internal/models"
	"budgetbook/api/internal/repository"
)

// ErrNotAllowed marks an attempt to modify a resource the caller can see
// but does not own, such as a system preset category.
var ErrNotAllowed = errors.New("not allowed")

const (
	presetCacheKey = "categories:presets"
	presetCacheTTL = time.Hour
)

type CategoryService struct {
	categories *repository.CategoryRepository
	cache      *redis.Client
	log        zerolog.Logger
}

func NewCategoryService(categories *repository.CategoryRepository, cache *redis.Client, log zerolog.Logger) *CategoryService {
	return &CategoryService{categories: categories, cache: cache, log: log}
}

type CategoryInput struct {
	Name        string
	Description string
	Type        models.CategoryType
}

func (s *CategoryService) Create(ctx context.Context, userID string, input CategoryInput) (models.Category, error) {
	category := models.Category{
		ID:          ids.New(),
		UserID:      &userID,
		Name:        input.Name,
		Description: input.Description,
		Type:        input.Type,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return models.Category{}, err
	}
	return category, nil
}

// List merges the user's own categories with the system presets. Presets
// change only through seeding, so they are served from redis with a TTL and
// fall back to the database on a miss.
func (s *CategoryService) List(ctx context.Context, userID string) ([]models.Category, error) {
	owned, err := s.categories.ListOwned(ctx, userID)
	if err != nil {
		return nil, err
	}

	presets, err := s.presets(ctx)
	if err != nil {
		return nil, err
	}

	return append(presets, owned...), nil
}

func (s *CategoryService) presets(ctx context.Context) ([]models.Category, error) {
	if cached, err := s.cache.Get(ctx, presetCacheKey).Bytes(); err == nil {
		var presets []models.Category
		if err := json.Unmarshal(cached, &presets); err == nil {
			return presets, nil
		}
		s.log.Warn().Msg("stale preset cache entry, refetching")
	}

	return s.WarmPresetCache(ctx)
}

// WarmPresetCache refetches the preset categories and rewrites the cache
// entry. Called on cache misses and periodically by the scheduler.
func (s *CategoryService) WarmPresetCache(ctx context.Context) ([]models.Category, error) {
	presets, err := s.categories.ListPresets(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(presets); err == nil {
		if err := s.cache.Set(ctx, presetCacheKey, raw, presetCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("preset cache write failed")
		}
	}
	return presets, nil
}

func (s *CategoryService) Get(ctx context.Context, userID string, id string) (models.Category, error) {
	return s.categories.GetVisible(ctx, userID, id)
}

func (s *CategoryService) Update(ctx context.Context, userID string, id string, input CategoryInput) (models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	if category.UserID == nil || *category.UserID != userID {
		return models.Category{}, ErrNotAllowed
	}

	category.Name = input.Name
	category.Description = input.Description
	return s.categories.Update(ctx, category)
}

func (s *CategoryService) Delete(ctx context.Context, userID string, id string) error {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if category.UserID == nil || *category.UserID != userID {
		return ErrNotAllowed
	}
	return s.categories.Delete(ctx, id)
}
