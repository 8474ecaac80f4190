package services

import (
	"context"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/models"
	"github.com/Dosada05/prompt-battle/repositories"
	"github.com/Dosada05/prompt-battle/storage"
)

// Кешируется весь снапшот, limit применяется при отдаче.
const rankingSnapshotSize = 500

type RankingService interface {
	Leaderboard(ctx context.Context, limit int) ([]models.RankingEntry, error)
	Refresh(ctx context.Context) error
	Invalidate(ctx context.Context) error
}

type rankingService struct {
	repo     repositories.RankingRepository
	cache    repositories.RankingCache
	uploader storage.FileUploader
	log      *logger.Logger
}

func NewRankingService(repo repositories.RankingRepository, cache repositories.RankingCache, uploader storage.FileUploader, log *logger.Logger) RankingService {
	if cache == nil {
		cache = repositories.NewNoopRankingCache()
	}
	return &rankingService{
		repo:     repo,
		cache:    cache,
		uploader: uploader,
		log:      log.With("service", "RankingService"),
	}
}

func (s *rankingService) Leaderboard(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	if limit <= 0 || limit > rankingSnapshotSize {
		limit = 50
	}

	entries, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn("ranking cache read failed", "error", err)
	}
	if !ok {
		entries, err = s.load(ctx)
		if err != nil {
			return nil, err
		}
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *rankingService) Refresh(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

func (s *rankingService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

func (s *rankingService) load(ctx context.Context) ([]models.RankingEntry, error) {
	entries, err := s.repo.Leaderboard(ctx, rankingSnapshotSize)
	if err != nil {
		return nil, persistenceError("ranking.Leaderboard", err)
	}
	for i := range entries {
		if key := derefString(entries[i].AvatarKey); key != "" && s.uploader != nil {
			if url := s.uploader.GetPublicURL(key); url != "" {
				entries[i].AvatarURL = &url
			}
		}
	}
	if err := s.cache.Set(ctx, entries); err != nil {
		s.log.Warn("ranking cache write failed", "error", err)
	}
	return entries, nil
}
