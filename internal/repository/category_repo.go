package repository

import (
	"context"
	"fmt"

	"github.com/yizhiakuya/MemeStore/internal/domain"
	"gorm.io/gorm"
)

// CategoryRepository handles category data operations.
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new category. The unique name constraint surfaces as an
// error for the caller to classify.
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	var category domain.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByName retrieves a category by its unique name.
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	var category domain.Category
	if err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Count returns the total number of category rows.
func (r *CategoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Category{}).Count(&count).Error
	return count, err
}

// ListWithCounts returns all categories with their meme counts, name ascending.
func (r *CategoryRepository) ListWithCounts(ctx context.Context) ([]domain.CategoryWithCount, error) {
	var categories []domain.CategoryWithCount
	if err := r.db.WithContext(ctx).
		Model(&domain.Category{}).
		Select("categories.*, COUNT(memes.id) AS meme_count").
		Joins("LEFT JOIN memes ON memes.category_id = categories.id").
		Group("categories.id").
		Order("categories.name ASC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
