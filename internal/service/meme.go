package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yizhiakuya/MemeStore/internal/cache"
	"github.com/yizhiakuya/MemeStore/internal/domain"
	"github.com/yizhiakuya/MemeStore/internal/imaging"
	"github.com/yizhiakuya/MemeStore/internal/logger"
	"github.com/yizhiakuya/MemeStore/internal/repository"
	"github.com/yizhiakuya/MemeStore/internal/storage"
	"gorm.io/gorm"
)

// Cache key patterns invalidated on mutations.
const (
	memeListPattern = "memes:*"
	tagListPattern  = "tags:*"
)

// thumbnail size labels, smallest to largest; the medium variant's URL is
// recorded on the meme record.
var thumbnailLabels = []string{"small", "medium", "large"}

const recordedThumbnail = 1 // index of "medium"

// MemeService orchestrates the meme create/update/delete pipeline across the
// repository, object store, transcoder, and cache.
type MemeService struct {
	memes      MemeStore
	tags       TagStore
	categories CategoryStore
	store      storage.ObjectStore
	transcoder Transcoder
	cache      cache.Cache
	logger     *logger.Logger
	listTTL    time.Duration
}

// MemeServiceConfig holds tunables for the meme service.
type MemeServiceConfig struct {
	ListCacheTTL time.Duration
}

// NewMemeService creates a new MemeService with injected collaborators.
func NewMemeService(
	memes MemeStore,
	tags TagStore,
	categories CategoryStore,
	store storage.ObjectStore,
	transcoder Transcoder,
	c cache.Cache,
	log *logger.Logger,
	cfg *MemeServiceConfig,
) *MemeService {
	ttl := 5 * time.Minute
	if cfg != nil && cfg.ListCacheTTL > 0 {
		ttl = cfg.ListCacheTTL
	}
	return &MemeService{
		memes:      memes,
		tags:       tags,
		categories: categories,
		store:      store,
		transcoder: transcoder,
		cache:      c,
		logger:     log,
		listTTL:    ttl,
	}
}

// log returns a logger from context if available, otherwise the service's.
func (s *MemeService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// FileUpload carries a raw uploaded image payload.
type FileUpload struct {
	Data     []byte
	Filename string
	MimeType string
}

// CreateMemeInput is the input to the create pipeline. Exactly one of File
// (image) or TextContent (text) must be set, matching Type.
type CreateMemeInput struct {
	Type        domain.MemeType
	Title       *string
	Description *string
	CategoryID  *string
	TagNames    []string

	File        *FileUpload
	TextContent string
}

// CreateMeme runs the create pipeline: tag resolution, validation, variant
// generation and upload (image only), persistence, then cache invalidation,
// strictly in that order. Any failure before persistence aborts the whole
// operation; artifacts already uploaded become orphaned objects and are not
// compensated.
func (s *MemeService) CreateMeme(ctx context.Context, in *CreateMemeInput) (*domain.Meme, error) {
	// Step 1: reference resolution, before any object-storage writes.
	tags, err := s.resolveTags(ctx, in.TagNames)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	// Step 2: type-specific validation and, for images, variant generation.
	var meme *domain.Meme
	switch in.Type {
	case domain.MemeTypeText:
		if strings.TrimSpace(in.TextContent) == "" {
			return nil, domain.Validation("text content is required for text meme")
		}
		meme = domain.NewTextMeme(uuid.New().String(), in.Title, in.Description, in.CategoryID, in.TextContent)

	case domain.MemeTypeImage:
		if in.File == nil || len(in.File.Data) == 0 {
			return nil, domain.Validation("no file uploaded")
		}
		asset, err := s.storeImage(ctx, in.File)
		if err != nil {
			return nil, err
		}
		meme = domain.NewImageMeme(uuid.New().String(), in.Title, in.Description, in.CategoryID, *asset)

	default:
		return nil, domain.Validation("invalid meme type: " + string(in.Type))
	}

	if err := meme.Validate(); err != nil {
		return nil, err
	}
	meme.Tags = tags

	// Step 3: persist. This is the point of durability.
	if err := s.memes.Create(ctx, meme); err != nil {
		return nil, domain.PersistenceErr("failed to create meme record", err)
	}

	// Step 4: invalidate cached listings, strictly after the write.
	s.invalidate(ctx, memeListPattern)

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldMemeID: meme.ID,
		"type":             meme.Type,
		"tags":             len(tags),
	}).Info("Meme created")

	return s.reload(ctx, meme)
}

// storeImage derives a collision-resistant filename, extracts metadata, and
// synchronously produces and uploads the thumbnail set and the compressed
// re-encode alongside the original. The first failed upload aborts.
func (s *MemeService) storeImage(ctx context.Context, file *FileUpload) (*domain.ImageAsset, error) {
	meta, err := s.transcoder.Metadata(file.Data)
	if err != nil {
		return nil, domain.TranscodeErr("failed to read image metadata", err)
	}

	base := uuid.New().String()
	ext := strings.ToLower(path.Ext(file.Filename))
	if ext == "" {
		ext = "." + meta.Format
	}
	filename := base + ext

	originalURL, err := s.store.Upload(ctx, storage.BucketOriginal, filename, file.Data, file.MimeType)
	if err != nil {
		return nil, domain.StorageErr("failed to upload original", err)
	}

	var thumbnailURL string
	for i, size := range imaging.ThumbnailSizes {
		variant, err := s.transcoder.Resize(file.Data, size, imaging.ThumbnailQuality)
		if err != nil {
			return nil, domain.TranscodeErr(fmt.Sprintf("failed to generate %s thumbnail", thumbnailLabels[i]), err)
		}
		url, err := s.store.Upload(ctx, storage.BucketThumbnails, thumbnailKey(base, thumbnailLabels[i]), variant, "image/jpeg")
		if err != nil {
			return nil, domain.StorageErr(fmt.Sprintf("failed to upload %s thumbnail", thumbnailLabels[i]), err)
		}
		if i == recordedThumbnail {
			thumbnailURL = url
		}
	}

	compressed, err := s.transcoder.Reencode(file.Data, imaging.CompressedQuality)
	if err != nil {
		return nil, domain.TranscodeErr("failed to compress image", err)
	}
	compressedURL, err := s.store.Upload(ctx, storage.BucketCompressed, compressedKey(base), compressed, "image/jpeg")
	if err != nil {
		return nil, domain.StorageErr("failed to upload compressed image", err)
	}

	return &domain.ImageAsset{
		OriginalURL:   originalURL,
		ThumbnailURL:  thumbnailURL,
		CompressedURL: compressedURL,
		Filename:      filename,
		FileSize:      int64(len(file.Data)),
		MimeType:      file.MimeType,
		Width:         meta.Width,
		Height:        meta.Height,
	}, nil
}

func thumbnailKey(base, label string) string {
	return base + "-" + label + ".jpg"
}

func compressedKey(base string) string {
	return "compressed-" + base + ".jpg"
}

// UpdateMemeInput carries the mutable fields of a meme. Nil fields are left
// unchanged; a non-nil TagNames replaces the full tag association set.
type UpdateMemeInput struct {
	Title       *string
	Description *string
	CategoryID  *string
	TagNames    *[]string
}

// UpdateMeme applies mutable-field changes. Dissociated tags are not swept
// for orphaning here; only delete does that.
func (s *MemeService) UpdateMeme(ctx context.Context, id string, in *UpdateMemeInput) (*domain.Meme, error) {
	meme, err := s.memes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("meme not found")
		}
		return nil, domain.PersistenceErr("failed to fetch meme", err)
	}

	if in.Title != nil {
		meme.Title = in.Title
	}
	if in.Description != nil {
		meme.Description = in.Description
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		meme.CategoryID = in.CategoryID
	}

	if err := s.memes.Update(ctx, meme); err != nil {
		return nil, domain.PersistenceErr("failed to update meme record", err)
	}

	if in.TagNames != nil {
		tags, err := s.resolveTags(ctx, *in.TagNames)
		if err != nil {
			return nil, err
		}
		if err := s.memes.ReplaceTags(ctx, meme, tags); err != nil {
			return nil, domain.PersistenceErr("failed to replace meme tags", err)
		}
	}

	s.invalidate(ctx, memeListPattern)

	return s.reload(ctx, meme)
}

// DeleteMeme runs the delete pipeline: fetch, best-effort object deletion,
// authoritative record deletion, best-effort orphan tag sweep, cache
// invalidation.
func (s *MemeService) DeleteMeme(ctx context.Context, id string) error {
	meme, err := s.memes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFound("meme not found")
		}
		return domain.PersistenceErr("failed to fetch meme", err)
	}

	// Object-store contents are eventually-consistent garbage, not source of
	// truth: a failed object delete is logged and never blocks the record
	// deletion.
	if meme.Type == domain.MemeTypeImage && meme.Filename != nil {
		s.deleteObjects(ctx, *meme.Filename)
	}

	if err := s.memes.Delete(ctx, id); err != nil {
		return domain.PersistenceErr("failed to delete meme record", err)
	}

	s.sweepOrphanTags(ctx, meme.Tags)

	s.invalidate(ctx, memeListPattern)
	s.invalidate(ctx, tagListPattern)

	s.log(ctx).WithField(logger.FieldMemeID, id).Info("Meme deleted")
	return nil
}

// deleteObjects removes the original, thumbnail set, and compressed variant,
// each attempted independently.
func (s *MemeService) deleteObjects(ctx context.Context, filename string) {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	type object struct {
		role storage.BucketRole
		key  string
	}
	objects := []object{{storage.BucketOriginal, filename}}
	for _, label := range thumbnailLabels {
		objects = append(objects, object{storage.BucketThumbnails, thumbnailKey(base, label)})
	}
	objects = append(objects, object{storage.BucketCompressed, compressedKey(base)})

	for _, o := range objects {
		if err := s.store.Delete(ctx, o.role, o.key); err != nil {
			s.log(ctx).WithError(err).WithFields(logger.Fields{
				"bucket_role": o.role,
				"object_key":  o.key,
			}).Warn("Failed to delete stored object")
		}
	}
}

// sweepOrphanTags deletes every tag of the removed meme that no longer has
// any referencing meme. The count-then-delete is racy against concurrent tag
// attachment; this is best-effort hygiene, failures are logged and
// suppressed.
func (s *MemeService) sweepOrphanTags(ctx context.Context, tags []domain.Tag) {
	for _, tag := range tags {
		count, err := s.tags.MemeCount(ctx, tag.ID)
		if err != nil {
			s.log(ctx).WithError(err).WithField("tag", tag.Name).Warn("Failed to count tag references")
			continue
		}
		if count > 0 {
			continue
		}
		if err := s.tags.Delete(ctx, tag.ID); err != nil {
			s.log(ctx).WithError(err).WithField("tag", tag.Name).Warn("Failed to delete orphaned tag")
			continue
		}
		s.log(ctx).WithField("tag", tag.Name).Info("Deleted orphaned tag")
	}
}

// GetMeme fetches a single meme and bumps its view counter.
func (s *MemeService) GetMeme(ctx context.Context, id string) (*domain.Meme, error) {
	meme, err := s.memes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("meme not found")
		}
		return nil, domain.PersistenceErr("failed to fetch meme", err)
	}

	if err := s.memes.IncrementViewCount(ctx, id); err != nil {
		s.log(ctx).WithError(err).WithField(logger.FieldMemeID, id).Warn("Failed to increment view count")
	} else {
		meme.ViewCount++
	}

	return meme, nil
}

// RecordDownload bumps a meme's download counter.
func (s *MemeService) RecordDownload(ctx context.Context, id string) error {
	if _, err := s.memes.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFound("meme not found")
		}
		return domain.PersistenceErr("failed to fetch meme", err)
	}
	if err := s.memes.IncrementDownloadCount(ctx, id); err != nil {
		return domain.PersistenceErr("failed to increment download count", err)
	}
	return nil
}

// Pagination describes the page window of a listing response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ListResult is a meme listing page.
type ListResult struct {
	Data       []domain.Meme `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// ListMemes serves a filtered, sorted, paginated listing, memoized in the
// cache under a key derived from every query parameter.
func (s *MemeService) ListMemes(ctx context.Context, f *repository.MemeFilter) (*ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	key := listCacheKey(f)

	var cached ListResult
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log(ctx).WithError(err).Warn("List cache read failed")
	}
	if hit {
		return &cached, nil
	}

	memes, total, err := s.memes.List(ctx, f)
	if err != nil {
		return nil, domain.PersistenceErr("failed to list memes", err)
	}

	result := &ListResult{
		Data: memes,
		Pagination: Pagination{
			Page:  f.Page,
			Limit: f.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(f.Limit))),
		},
	}

	if err := s.cache.Set(ctx, key, result, s.listTTL); err != nil {
		s.log(ctx).WithError(err).Warn("List cache write failed")
	}

	return result, nil
}

// listCacheKey derives a deterministic cache key from all filter, sort, and
// pagination parameters.
func listCacheKey(f *repository.MemeFilter) string {
	category := f.CategoryID
	if category == "" {
		category = "all"
	}
	tags := "all"
	if len(f.Tags) > 0 {
		tags = strings.Join(f.Tags, ",")
	}
	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	order := f.Order
	if order == "" {
		order = "desc"
	}
	return fmt.Sprintf("memes:%d:%d:%s:%s:%s:%s:%s",
		f.Page, f.Limit, category, tags, f.Search, sortBy, order)
}

// resolveTags upserts every requested tag name. A failure aborts the whole
// operation before any object-storage write happens.
func (s *MemeService) resolveTags(ctx context.Context, names []string) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tag, err := s.tags.UpsertByName(ctx, name)
		if err != nil {
			return nil, domain.ConflictErr("failed to resolve tag "+name, err)
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// checkCategory verifies a non-empty category reference points at an
// existing row.
func (s *MemeService) checkCategory(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFound("category not found")
		}
		return domain.PersistenceErr("failed to fetch category", err)
	}
	return nil
}

// reload re-reads a meme so the response carries its tag and category
// associations.
func (s *MemeService) reload(ctx context.Context, meme *domain.Meme) (*domain.Meme, error) {
	full, err := s.memes.GetByID(ctx, meme.ID)
	if err != nil {
		// The record exists; a failed reload should not fail the mutation.
		s.log(ctx).WithError(err).WithField(logger.FieldMemeID, meme.ID).Warn("Failed to reload meme")
		return meme, nil
	}
	return full, nil
}

// invalidate drops every cached entry matching pattern. Cache failures are
// logged and suppressed: the cache is a disposable derived view.
func (s *MemeService) invalidate(ctx context.Context, pattern string) {
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		s.log(ctx).WithError(err).WithField("pattern", pattern).Warn("Cache invalidation failed")
	}
}
