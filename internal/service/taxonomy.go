package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yizhiakuya/MemeStore/internal/cache"
	"github.com/yizhiakuya/MemeStore/internal/domain"
	"github.com/yizhiakuya/MemeStore/internal/logger"
)

// TaxonomyService serves the shared tag and category vocabularies.
type TaxonomyService struct {
	tags       TagStore
	categories CategoryStore
	cache      cache.Cache
	logger     *logger.Logger
}

// NewTaxonomyService creates a new TaxonomyService.
func NewTaxonomyService(tags TagStore, categories CategoryStore, c cache.Cache, log *logger.Logger) *TaxonomyService {
	return &TaxonomyService{tags: tags, categories: categories, cache: c, logger: log}
}

// ListTags returns every tag with its meme count, newest first.
func (s *TaxonomyService) ListTags(ctx context.Context) ([]domain.TagWithCount, error) {
	tags, err := s.tags.ListWithCounts(ctx)
	if err != nil {
		return nil, domain.PersistenceErr("failed to list tags", err)
	}
	return tags, nil
}

// ListCategories returns every category with its meme count, name ascending.
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]domain.CategoryWithCount, error) {
	categories, err := s.categories.ListWithCounts(ctx)
	if err != nil {
		return nil, domain.PersistenceErr("failed to list categories", err)
	}
	return categories, nil
}

// CreateCategory adds a category with a unique name.
func (s *TaxonomyService) CreateCategory(ctx context.Context, name string, description *string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation("category name is required")
	}

	if _, err := s.categories.GetByName(ctx, name); err == nil {
		return nil, domain.ConflictErr("category name already exists", nil)
	}

	category := &domain.Category{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		// The unique index on name is the only constraint that can fire for
		// a well-formed insert.
		return nil, domain.ConflictErr("category name already exists", err)
	}

	return category, nil
}
