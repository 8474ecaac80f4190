package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/prompt-battle/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestRedisRankingCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache := NewRedisRankingCache(rdb, time.Minute)
	ctx := context.Background()

	if _, ok, err := cache.Get(ctx); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	entries := []models.RankingEntry{{UserID: uuid.New(), Username: "alice", Wins: 2, TotalBattles: 3, WinRate: 2.0 / 3}}
	if err := cache.Set(ctx, entries); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := cache.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Username != "alice" || got[0].Wins != 2 {
		t.Fatalf("unexpected entries: %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := cache.Get(ctx); ok {
		t.Fatalf("entry should expire after ttl")
	}

	_ = cache.Set(ctx, entries)
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := cache.Get(ctx); ok {
		t.Fatalf("entry should be gone after invalidate")
	}
}
