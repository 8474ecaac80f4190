package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prompt-battle/models"
	"github.com/redis/go-redis/v9"
)

const rankingCacheKey = "prompt-battle:ranking"

// RankingCache stores the full leaderboard snapshot.
type RankingCache interface {
	Get(ctx context.Context) ([]models.RankingEntry, bool, error)
	Set(ctx context.Context, entries []models.RankingEntry) error
	Invalidate(ctx context.Context) error
}

type redisRankingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRankingCache(rdb *redis.Client, ttl time.Duration) RankingCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisRankingCache{rdb: rdb, ttl: ttl}
}

func (c *redisRankingCache) Get(ctx context.Context) ([]models.RankingEntry, bool, error) {
	raw, err := c.rdb.Get(ctx, rankingCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("ranking cache get: %w", err)
	}
	var entries []models.RankingEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Битый снапшот считаем промахом.
		return nil, false, nil
	}
	return entries, true, nil
}

func (c *redisRankingCache) Set(ctx context.Context, entries []models.RankingEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("ranking cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, rankingCacheKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("ranking cache set: %w", err)
	}
	return nil
}

func (c *redisRankingCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, rankingCacheKey).Err(); err != nil {
		return fmt.Errorf("ranking cache invalidate: %w", err)
	}
	return nil
}

type noopRankingCache struct{}

// NewNoopRankingCache is used when REDIS_URL is not configured.
func NewNoopRankingCache() RankingCache { return noopRankingCache{} }

func (noopRankingCache) Get(context.Context) ([]models.RankingEntry, bool, error) {
	return nil, false, nil
}
func (noopRankingCache) Set(context.Context, []models.RankingEntry) error { return nil }
func (noopRankingCache) Invalidate(context.Context) error                 { return nil }
