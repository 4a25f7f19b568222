package service

import (
	"context"

	"github.com/yizhiakuya/MemeStore/internal/domain"
)

// Stats summarizes the corpus for the landing page.
type Stats struct {
	TotalMemes      int64         `json:"totalMemes"`
	TotalTags       int64         `json:"totalTags"`
	TotalCategories int64         `json:"totalCategories"`
	RecentMemes     []domain.Meme `json:"recentMemes"`
}

// StatsService computes corpus statistics.
type StatsService struct {
	memes      MemeStore
	tags       TagStore
	categories CategoryStore
}

// NewStatsService creates a new StatsService.
func NewStatsService(memes MemeStore, tags TagStore, categories CategoryStore) *StatsService {
	return &StatsService{memes: memes, tags: tags, categories: categories}
}

// Get returns total counts and the ten most recent memes.
func (s *StatsService) Get(ctx context.Context) (*Stats, error) {
	totalMemes, err := s.memes.Count(ctx)
	if err != nil {
		return nil, domain.PersistenceErr("failed to count memes", err)
	}
	totalTags, err := s.tags.Count(ctx)
	if err != nil {
		return nil, domain.PersistenceErr("failed to count tags", err)
	}
	totalCategories, err := s.categories.Count(ctx)
	if err != nil {
		return nil, domain.PersistenceErr("failed to count categories", err)
	}
	recent, err := s.memes.Recent(ctx, 10)
	if err != nil {
		return nil, domain.PersistenceErr("failed to fetch recent memes", err)
	}

	return &Stats{
		TotalMemes:      totalMemes,
		TotalTags:       totalTags,
		TotalCategories: totalCategories,
		RecentMemes:     recent,
	}, nil
}
