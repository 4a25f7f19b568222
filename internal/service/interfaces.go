package service

import (
	"context"

	"github.com/yizhiakuya/MemeStore/internal/domain"
	"github.com/yizhiakuya/MemeStore/internal/imaging"
	"github.com/yizhiakuya/MemeStore/internal/repository"
)

// The pipeline's collaborators are explicitly constructed and injected so
// tests can substitute fakes. The gorm-backed repositories satisfy these
// interfaces.

// MemeStore is the persistent store of meme records.
type MemeStore interface {
	Create(ctx context.Context, meme *domain.Meme) error
	GetByID(ctx context.Context, id string) (*domain.Meme, error)
	Update(ctx context.Context, meme *domain.Meme) error
	ReplaceTags(ctx context.Context, meme *domain.Meme, tags []domain.Tag) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f *repository.MemeFilter) ([]domain.Meme, int64, error)
	IncrementViewCount(ctx context.Context, id string) error
	IncrementDownloadCount(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, n int) ([]domain.Meme, error)
}

// TagStore resolves and maintains the tag vocabulary.
type TagStore interface {
	UpsertByName(ctx context.Context, name string) (*domain.Tag, error)
	MemeCount(ctx context.Context, tagID string) (int64, error)
	Delete(ctx context.Context, tagID string) error
	Count(ctx context.Context) (int64, error)
	ListWithCounts(ctx context.Context) ([]domain.TagWithCount, error)
}

// CategoryStore maintains meme categories.
type CategoryStore interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	Count(ctx context.Context) (int64, error)
	ListWithCounts(ctx context.Context) ([]domain.CategoryWithCount, error)
}

// UserStore maintains user accounts.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// Transcoder produces resized and re-encoded image variants.
type Transcoder interface {
	Metadata(data []byte) (*imaging.Metadata, error)
	Resize(data []byte, maxDim, quality int) ([]byte, error)
	Reencode(data []byte, quality int) ([]byte, error)
}
