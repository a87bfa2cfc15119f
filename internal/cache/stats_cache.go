package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	winsKey  = "stats:wins"
	playsKey = "stats:plays"
)

// WinnerEntry is one row of the all-time winners board
type WinnerEntry struct {
	Participant string `json:"participant"`
	Points      int    `json:"points"`
	Rank        int    `json:"rank"`
}

// StatsCache handles Redis ZSET operations for cross-session stats
type StatsCache interface {
	AddPoints(ctx context.Context, participant string, points int) error
	TopWinners(ctx context.Context, limit int) ([]WinnerEntry, error)
	IncrementPackPlays(ctx context.Context, packID string) error
	PackPlays(ctx context.Context, packID string) (int64, error)
}

type statsCache struct {
	client *redis.Client
}

// NewStatsCache creates a new stats cache
func NewStatsCache(client *redis.Client) StatsCache {
	return &statsCache{client: client}
}

func (c *statsCache) AddPoints(ctx context.Context, participant string, points int) error {
	return c.client.ZIncrBy(ctx, winsKey, float64(points), participant).Err()
}

func (c *statsCache) TopWinners(ctx context.Context, limit int) ([]WinnerEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, winsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]WinnerEntry, len(results))
	for i, z := range results {
		entries[i] = WinnerEntry{
			Participant: z.Member.(string),
			Points:      int(z.Score),
			Rank:        i + 1,
		}
	}
	return entries, nil
}

func (c *statsCache) IncrementPackPlays(ctx context.Context, packID string) error {
	return c.client.ZIncrBy(ctx, playsKey, 1, packID).Err()
}

func (c *statsCache) PackPlays(ctx context.Context, packID string) (int64, error) {
	score, err := c.client.ZScore(ctx, playsKey, packID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(score), nil
}
