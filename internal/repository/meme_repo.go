package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/yizhiakuya/MemeStore/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemeFilter describes a listing query: pagination, filters, and sort.
type MemeFilter struct {
	Page       int
	Limit      int
	CategoryID string
	Tags       []string // any-match by tag name
	Search     string   // case-insensitive substring over title/description
	SortBy     string
	Order      string
}

// sortColumns whitelists client-supplied sort fields.
var sortColumns = map[string]string{
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
	"title":         "title",
	"viewCount":     "view_count",
	"downloadCount": "download_count",
}

// OrderClause resolves the filter's sort specification to a SQL order
// clause, falling back to newest-first.
func (f *MemeFilter) OrderClause() string {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}

// MemeRepository handles meme data operations.
type MemeRepository struct {
	db *gorm.DB
}

// NewMemeRepository creates a new MemeRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *MemeRepository: repository instance bound to db.
func NewMemeRepository(db *gorm.DB) *MemeRepository {
	return &MemeRepository{db: db}
}

// Create inserts a new meme record together with its tag associations.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - meme: meme record to persist; Tags must hold resolved tag rows.
// Returns:
//   - error: non-nil if the insert fails.
func (r *MemeRepository) Create(ctx context.Context, meme *domain.Meme) error {
	return r.db.WithContext(ctx).Create(meme).Error
}

// GetByID retrieves a meme by its ID with tags and category preloaded.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meme ID.
// Returns:
//   - *domain.Meme: meme record if found.
//   - error: gorm.ErrRecordNotFound if absent, other errors on failure.
func (r *MemeRepository) GetByID(ctx context.Context, id string) (*domain.Meme, error) {
	var meme domain.Meme
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Category").
		First(&meme, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &meme, nil
}

// Update persists changed scalar fields of an existing meme record.
func (r *MemeRepository) Update(ctx context.Context, meme *domain.Meme) error {
	return r.db.WithContext(ctx).Omit("Tags", "Category").Save(meme).Error
}

// ReplaceTags replaces the meme's full tag association set.
// Old tags not in the new set become dissociated but are not swept here.
func (r *MemeRepository) ReplaceTags(ctx context.Context, meme *domain.Meme, tags []domain.Tag) error {
	return r.db.WithContext(ctx).Model(meme).Association("Tags").Replace(tags)
}

// Delete removes a meme record and its tag association rows. The tag rows
// themselves survive; orphan cleanup is the caller's concern.
func (r *MemeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Select(clause.Associations).
		Delete(&domain.Meme{ID: id}).Error
}

// List returns a page of memes matching the filter together with the total
// match count (before pagination).
func (r *MemeRepository) List(ctx context.Context, f *MemeFilter) ([]domain.Meme, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Meme{})

	if f.CategoryID != "" {
		q = q.Where("memes.category_id = ?", f.CategoryID)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(memes.title) LIKE ? OR LOWER(memes.description) LIKE ?", pattern, pattern)
	}
	if len(f.Tags) > 0 {
		// Any-match: a meme qualifies when at least one of its tags is in
		// the requested set. Subquery keeps the outer count free of join
		// duplicates.
		sub := r.db.Model(&domain.Tag{}).
			Select("meme_tags.meme_id").
			Joins("JOIN meme_tags ON meme_tags.tag_id = tags.id").
			Where("tags.name IN ?", f.Tags)
		q = q.Where("memes.id IN (?)", sub)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count memes: %w", err)
	}

	var memes []domain.Meme
	if err := q.
		Preload("Tags").
		Preload("Category").
		Order(f.OrderClause()).
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&memes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list memes: %w", err)
	}

	return memes, total, nil
}

// IncrementViewCount bumps the view counter without touching other columns.
func (r *MemeRepository) IncrementViewCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Meme{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// IncrementDownloadCount bumps the download counter.
func (r *MemeRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Meme{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
}

// Count returns the total number of meme records.
func (r *MemeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Meme{}).Count(&count).Error
	return count, err
}

// Recent returns the n most recently created memes with tags preloaded.
func (r *MemeRepository) Recent(ctx context.Context, n int) ([]domain.Meme, error) {
	var memes []domain.Meme
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Order("created_at DESC").
		Limit(n).
		Find(&memes).Error; err != nil {
		return nil, err
	}
	return memes, nil
}
