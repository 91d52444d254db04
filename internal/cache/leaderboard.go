// Package cache holds the Redis-backed read caches. Everything here
// is best-effort: a cache miss or a Redis outage degrades to a store
// read, never to an error.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amazonia-research/academy-backend/internal/models"
)

const leaderboardTTL = 30 * time.Second

// Leaderboard caches ranked snapshots keyed by requested size. The
// short TTL keeps ranks fresh without hammering the window query on
// every page load.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func (c *Leaderboard) GetTop(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool) {
	data, err := c.client.Get(ctx, key(limit)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[cache] leaderboard read failed: %v", err)
		return nil, false
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("[cache] leaderboard snapshot corrupt, dropping: %v", err)
		c.client.Del(ctx, key(limit))
		return nil, false
	}
	return entries, true
}

func (c *Leaderboard) SetTop(ctx context.Context, limit int, entries []models.LeaderboardEntry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(limit), data, leaderboardTTL).Err(); err != nil {
		log.Printf("[cache] leaderboard write failed: %v", err)
	}
}

func key(limit int) string {
	return fmt.Sprintf("leaderboard:top:%d", limit)
}
