package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yizhiakuya/MemeStore/internal/domain"
	"github.com/yizhiakuya/MemeStore/internal/imaging"
	"github.com/yizhiakuya/MemeStore/internal/logger"
	"github.com/yizhiakuya/MemeStore/internal/repository"
	"github.com/yizhiakuya/MemeStore/internal/storage"
	"gorm.io/gorm"
)

func newTestLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Output: io.Discard})
}

// fakeMemeStore is an in-memory MemeStore.
type fakeMemeStore struct {
	mu    sync.Mutex
	memes map[string]*domain.Meme

	createErr error
	deleteErr error
	listErr   error
	listCalls int
}

func newFakeMemeStore() *fakeMemeStore {
	return &fakeMemeStore{memes: map[string]*domain.Meme{}}
}

func (f *fakeMemeStore) Create(_ context.Context, meme *domain.Meme) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *meme
	cp.CreatedAt = time.Now()
	f.memes[meme.ID] = &cp
	return nil
}

func (f *fakeMemeStore) GetByID(_ context.Context, id string) (*domain.Meme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meme, ok := f.memes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *meme
	return &cp, nil
}

func (f *fakeMemeStore) Update(_ context.Context, meme *domain.Meme) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.memes[meme.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	existing := f.memes[meme.ID]
	tags := existing.Tags
	cp := *meme
	cp.Tags = tags
	f.memes[meme.ID] = &cp
	return nil
}

func (f *fakeMemeStore) ReplaceTags(_ context.Context, meme *domain.Meme, tags []domain.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.memes[meme.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	existing.Tags = tags
	return nil
}

func (f *fakeMemeStore) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.memes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.memes, id)
	return nil
}

func (f *fakeMemeStore) List(_ context.Context, fl *repository.MemeFilter) ([]domain.Meme, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, 0, f.listErr
	}

	all := make([]domain.Meme, 0, len(f.memes))
	for _, m := range f.memes {
		all = append(all, *m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	start := (fl.Page - 1) * fl.Limit
	if start >= len(all) {
		return []domain.Meme{}, total, nil
	}
	end := start + fl.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeMemeStore) IncrementViewCount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.memes[id]; ok {
		m.ViewCount++
	}
	return nil
}

func (f *fakeMemeStore) IncrementDownloadCount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.memes[id]; ok {
		m.DownloadCount++
	}
	return nil
}

func (f *fakeMemeStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.memes)), nil
}

func (f *fakeMemeStore) Recent(_ context.Context, n int) ([]domain.Meme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Meme, 0, n)
	for _, m := range f.memes {
		if len(out) == n {
			break
		}
		out = append(out, *m)
	}
	return out, nil
}

// fakeTagStore mimics the unique-name upsert semantics of the tag table.
type fakeTagStore struct {
	mu      sync.Mutex
	byName  map[string]*domain.Tag
	refs    map[string]int64
	upserts int
	deleted []string
}

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{byName: map[string]*domain.Tag{}, refs: map[string]int64{}}
}

func (f *fakeTagStore) UpsertByName(_ context.Context, name string) (*domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if tag, ok := f.byName[name]; ok {
		cp := *tag
		return &cp, nil
	}
	tag := &domain.Tag{ID: uuid.New().String(), Name: name}
	f.byName[name] = tag
	cp := *tag
	return &cp, nil
}

func (f *fakeTagStore) MemeCount(_ context.Context, tagID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[tagID], nil
}

func (f *fakeTagStore) Delete(_ context.Context, tagID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, tag := range f.byName {
		if tag.ID == tagID {
			delete(f.byName, name)
		}
	}
	f.deleted = append(f.deleted, tagID)
	return nil
}

func (f *fakeTagStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byName)), nil
}

func (f *fakeTagStore) ListWithCounts(_ context.Context) ([]domain.TagWithCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.TagWithCount, 0, len(f.byName))
	for _, tag := range f.byName {
		out = append(out, domain.TagWithCount{Tag: *tag, MemeCount: f.refs[tag.ID]})
	}
	return out, nil
}

// uploadRecord captures one object-store write.
type uploadRecord struct {
	Role        storage.BucketRole
	Key         string
	ContentType string
	Size        int
}

// fakeObjectStore records uploads and deletes instead of talking to S3.
type fakeObjectStore struct {
	mu        sync.Mutex
	uploads   []uploadRecord
	deleted   []string
	uploadErr error
	deleteErr error
}

func (f *fakeObjectStore) Upload(_ context.Context, role storage.BucketRole, key string, data []byte, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, uploadRecord{Role: role, Key: key, ContentType: contentType, Size: len(data)})
	return f.URL(role, key), nil
}

func (f *fakeObjectStore) Delete(_ context.Context, role storage.BucketRole, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, string(role)+"/"+key)
	return nil
}

func (f *fakeObjectStore) URL(role storage.BucketRole, key string) string {
	return fmt.Sprintf("http://store.test/%s/%s", role, key)
}

// fakeTranscoder returns canned variants without decoding anything.
type fakeTranscoder struct {
	meta    imaging.Metadata
	metaErr error
}

func (f *fakeTranscoder) Metadata(_ []byte) (*imaging.Metadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	m := f.meta
	if m.Width == 0 {
		m = imaging.Metadata{Width: 640, Height: 480, Format: "png"}
	}
	return &m, nil
}

func (f *fakeTranscoder) Resize(_ []byte, maxDim, _ int) ([]byte, error) {
	return []byte(fmt.Sprintf("thumb-%d", maxDim)), nil
}

func (f *fakeTranscoder) Reencode(_ []byte, _ int) ([]byte, error) {
	return []byte("compressed"), nil
}

// fakeCache is an in-memory Cache with glob pattern deletion.
type fakeCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	sets     int
	patterns []string
	getErr   error
	setErr   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = raw
	f.sets++
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeCache) DeletePattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, pattern)
	for key := range f.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(f.entries, key)
		}
	}
	return nil
}

// fakeCategoryStore is an in-memory CategoryStore with a unique name
// constraint.
type fakeCategoryStore struct {
	mu         sync.Mutex
	categories map[string]*domain.Category
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{categories: map[string]*domain.Category{}}
}

func (f *fakeCategoryStore) Create(_ context.Context, category *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == category.Name {
			return fmt.Errorf("UNIQUE constraint failed: categories.name")
		}
	}
	cp := *category
	f.categories[category.ID] = &cp
	return nil
}

func (f *fakeCategoryStore) GetByID(_ context.Context, id string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCategoryStore) GetByName(_ context.Context, name string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCategoryStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.categories)), nil
}

func (f *fakeCategoryStore) ListWithCounts(_ context.Context) ([]domain.CategoryWithCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.CategoryWithCount, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, domain.CategoryWithCount{Category: *c})
	}
	return out, nil
}

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*domain.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email != nil && *u.Email == email {
			return true, nil
		}
	}
	return false, nil
}
