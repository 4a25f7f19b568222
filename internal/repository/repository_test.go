package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/yizhiakuya/MemeStore/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared in-memory database gives every gorm pool connection the
	// same schema while keeping tests isolated from each other.
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func seedTextMeme(t *testing.T, repo *MemeRepository, title string, tags ...domain.Tag) *domain.Meme {
	t.Helper()
	meme := domain.NewTextMeme(uuid.New().String(), &title, nil, nil, "body of "+title)
	meme.Tags = tags
	if err := repo.Create(context.Background(), meme); err != nil {
		t.Fatalf("create meme %q: %v", title, err)
	}
	return meme
}

func TestMemeRepositoryCreateAndGet(t *testing.T) {
	db := testDB(t)
	memes := NewMemeRepository(db)
	tags := NewTagRepository(db)
	ctx := context.Background()

	tag, err := tags.UpsertByName(ctx, "classic")
	if err != nil {
		t.Fatalf("UpsertByName: %v", err)
	}
	created := seedTextMeme(t, memes, "hello", *tag)

	got, err := memes.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title == nil || *got.Title != "hello" {
		t.Errorf("title = %v, want hello", got.Title)
	}
	if len(got.Tags) != 1 || got.Tags[0].Name != "classic" {
		t.Errorf("tags = %+v, want the classic tag preloaded", got.Tags)
	}

	if _, err := memes.GetByID(ctx, "missing"); err != gorm.ErrRecordNotFound {
		t.Errorf("GetByID(missing) = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestTagUpsertIdempotent(t *testing.T) {
	db := testDB(t)
	tags := NewTagRepository(db)
	ctx := context.Background()

	first, err := tags.UpsertByName(ctx, "viral")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := tags.UpsertByName(ctx, "viral")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("upserts returned different rows: %q vs %q", first.ID, second.ID)
	}
	if n, _ := tags.Count(ctx); n != 1 {
		t.Errorf("tag count = %d, want 1", n)
	}
}

func TestMemeRepositoryList(t *testing.T) {
	db := testDB(t)
	memes := NewMemeRepository(db)
	tags := NewTagRepository(db)
	ctx := context.Background()

	doge, _ := tags.UpsertByName(ctx, "doge")
	cat, _ := tags.UpsertByName(ctx, "cat")

	seedTextMeme(t, memes, "much wow", *doge)
	seedTextMeme(t, memes, "cat loaf", *cat)
	seedTextMeme(t, memes, "plain toast")

	tests := []struct {
		name      string
		filter    MemeFilter
		wantTotal int64
	}{
		{"no filter", MemeFilter{Page: 1, Limit: 10}, 3},
		{"tag match", MemeFilter{Page: 1, Limit: 10, Tags: []string{"doge"}}, 1},
		{"any of several tags", MemeFilter{Page: 1, Limit: 10, Tags: []string{"doge", "cat"}}, 2},
		{"unknown tag", MemeFilter{Page: 1, Limit: 10, Tags: []string{"ghost"}}, 0},
		{"search title", MemeFilter{Page: 1, Limit: 10, Search: "WOW"}, 1},
		{"search no match", MemeFilter{Page: 1, Limit: 10, Search: "zzz"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := memes.List(ctx, &tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if int64(len(got)) != tt.wantTotal {
				t.Errorf("rows = %d, want %d", len(got), tt.wantTotal)
			}
		})
	}
}

func TestMemeRepositoryListPagination(t *testing.T) {
	db := testDB(t)
	memes := NewMemeRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedTextMeme(t, memes, "filler")
	}

	page, total, err := memes.List(ctx, &MemeFilter{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Errorf("page rows = %d, want 2", len(page))
	}
}

func TestMemeRepositoryDeleteClearsAssociations(t *testing.T) {
	db := testDB(t)
	memes := NewMemeRepository(db)
	tags := NewTagRepository(db)
	ctx := context.Background()

	tag, _ := tags.UpsertByName(ctx, "orphan-to-be")
	created := seedTextMeme(t, memes, "short lived", *tag)

	if n, _ := tags.MemeCount(ctx, tag.ID); n != 1 {
		t.Fatalf("meme count before delete = %d, want 1", n)
	}

	if err := memes.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := memes.GetByID(ctx, created.ID); err != gorm.ErrRecordNotFound {
		t.Errorf("meme still present after delete: %v", err)
	}
	// Association rows go with the meme; the tag row itself survives.
	if n, _ := tags.MemeCount(ctx, tag.ID); n != 0 {
		t.Errorf("meme count after delete = %d, want 0", n)
	}
	if n, _ := tags.Count(ctx); n != 1 {
		t.Errorf("tag count after delete = %d, want 1", n)
	}
}

func TestMemeRepositoryCounters(t *testing.T) {
	db := testDB(t)
	memes := NewMemeRepository(db)
	ctx := context.Background()

	created := seedTextMeme(t, memes, "counted")

	for i := 0; i < 2; i++ {
		if err := memes.IncrementViewCount(ctx, created.ID); err != nil {
			t.Fatalf("IncrementViewCount: %v", err)
		}
	}
	if err := memes.IncrementDownloadCount(ctx, created.ID); err != nil {
		t.Fatalf("IncrementDownloadCount: %v", err)
	}

	got, err := memes.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ViewCount != 2 || got.DownloadCount != 1 {
		t.Errorf("counters = %d views / %d downloads, want 2 / 1", got.ViewCount, got.DownloadCount)
	}
}

func TestTagListWithCounts(t *testing.T) {
	db := testDB(t)
	memes := NewMemeRepository(db)
	tags := NewTagRepository(db)
	ctx := context.Background()

	popular, _ := tags.UpsertByName(ctx, "popular")
	lonely, _ := tags.UpsertByName(ctx, "lonely")

	seedTextMeme(t, memes, "a", *popular)
	seedTextMeme(t, memes, "b", *popular)

	listed, err := tags.ListWithCounts(ctx)
	if err != nil {
		t.Fatalf("ListWithCounts: %v", err)
	}

	counts := map[string]int64{}
	for _, tag := range listed {
		counts[tag.Name] = tag.MemeCount
	}
	if counts["popular"] != 2 {
		t.Errorf("popular count = %d, want 2", counts["popular"])
	}
	if counts["lonely"] != 0 {
		t.Errorf("lonely count = %d, want 0", counts["lonely"])
	}
	_ = lonely
}

func TestCategoryRepository(t *testing.T) {
	db := testDB(t)
	memes := NewMemeRepository(db)
	categories := NewCategoryRepository(db)
	ctx := context.Background()

	category := &domain.Category{ID: uuid.New().String(), Name: "Animals"}
	if err := categories.Create(ctx, category); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := &domain.Category{ID: uuid.New().String(), Name: "Animals"}
	if err := categories.Create(ctx, dup); err == nil {
		t.Error("duplicate category name must violate the unique constraint")
	}

	title := "tagged by category"
	meme := domain.NewTextMeme(uuid.New().String(), &title, nil, &category.ID, "body")
	if err := memes.Create(ctx, meme); err != nil {
		t.Fatalf("create categorized meme: %v", err)
	}

	listed, err := categories.ListWithCounts(ctx)
	if err != nil {
		t.Fatalf("ListWithCounts: %v", err)
	}
	if len(listed) != 1 || listed[0].MemeCount != 1 {
		t.Errorf("categories = %+v, want Animals with count 1", listed)
	}

	_, total, err := memes.List(ctx, &MemeFilter{Page: 1, Limit: 10, CategoryID: category.ID})
	if err != nil {
		t.Fatalf("List by category: %v", err)
	}
	if total != 1 {
		t.Errorf("category filter total = %d, want 1", total)
	}
}

func TestUserRepository(t *testing.T) {
	db := testDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	email := "grace@example.com"
	user := &domain.User{
		ID:       uuid.New().String(),
		Username: "grace",
		Password: "hashed",
		Email:    &email,
		Role:     domain.RoleUser,
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byName, err := users.GetByUsername(ctx, "grace")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if byName.ID != user.ID {
		t.Errorf("GetByUsername returned %q, want %q", byName.ID, user.ID)
	}

	if ok, _ := users.ExistsByUsername(ctx, "grace"); !ok {
		t.Error("ExistsByUsername(grace) = false, want true")
	}
	if ok, _ := users.ExistsByUsername(ctx, "nobody"); ok {
		t.Error("ExistsByUsername(nobody) = true, want false")
	}
	if ok, _ := users.ExistsByEmail(ctx, email); !ok {
		t.Error("ExistsByEmail = false, want true")
	}
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		sortBy, order string
		want          string
	}{
		{"createdAt", "desc", "created_at DESC"},
		{"viewCount", "asc", "view_count ASC"},
		{"title", "ASC", "title ASC"},
		{"evil; DROP TABLE memes", "desc", "created_at DESC"},
		{"", "", "created_at DESC"},
	}

	for _, tt := range tests {
		f := MemeFilter{SortBy: tt.sortBy, Order: tt.order}
		if got := f.OrderClause(); got != tt.want {
			t.Errorf("OrderClause(%q, %q) = %q, want %q", tt.sortBy, tt.order, got, tt.want)
		}
	}
}
