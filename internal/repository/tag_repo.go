package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yizhiakuya/MemeStore/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository handles tag data operations.
type TagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// UpsertByName resolves a tag by its unique name, creating it on first use.
// Concurrent resolution of the same name is settled by the unique constraint:
// the insert uses ON CONFLICT DO NOTHING and the follow-up fetch returns
// whichever row won.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: tag name to resolve.
// Returns:
//   - *domain.Tag: the existing or newly created tag row.
//   - error: non-nil if neither insert nor fetch succeeds.
func (r *TagRepository) UpsertByName(ctx context.Context, name string) (*domain.Tag, error) {
	tag := domain.Tag{ID: uuid.New().String(), Name: name}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert tag %q: %w", name, err)
	}

	// Retry-as-fetch: the insert may have been a no-op because another
	// request created the row first, so always read back by name.
	var out domain.Tag
	if err := r.db.WithContext(ctx).First(&out, "name = ?", name).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch tag %q after upsert: %w", name, err)
	}
	return &out, nil
}

// MemeCount returns the number of memes referencing the tag.
func (r *TagRepository) MemeCount(ctx context.Context, tagID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("meme_tags").
		Where("tag_id = ?", tagID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a tag row by ID.
func (r *TagRepository) Delete(ctx context.Context, tagID string) error {
	return r.db.WithContext(ctx).Delete(&domain.Tag{}, "id = ?", tagID).Error
}

// Count returns the total number of tag rows.
func (r *TagRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Tag{}).Count(&count).Error
	return count, err
}

// ListWithCounts returns all tags with their meme counts, newest first.
func (r *TagRepository) ListWithCounts(ctx context.Context) ([]domain.TagWithCount, error) {
	var tags []domain.TagWithCount
	if err := r.db.WithContext(ctx).
		Model(&domain.Tag{}).
		Select("tags.*, COUNT(meme_tags.meme_id) AS meme_count").
		Joins("LEFT JOIN meme_tags ON meme_tags.tag_id = tags.id").
		Group("tags.id").
		Order("tags.created_at DESC").
		Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}
