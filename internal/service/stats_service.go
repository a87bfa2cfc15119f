package service

import (
	"context"
	"fmt"

	"clipquiz/internal/cache"
	"clipquiz/internal/game"
)

// StatsService folds finished-session results into the all-time Redis
// stats (implements game.Stats)
type StatsService struct {
	statsCache cache.StatsCache
}

// NewStatsService creates a new stats service
func NewStatsService(statsCache cache.StatsCache) *StatsService {
	return &StatsService{statsCache: statsCache}
}

// RecordResult adds a session's final scores to the all-time winners board
func (s *StatsService) RecordResult(ctx context.Context, room string, ranking []game.Score) error {
	for _, sc := range ranking {
		if sc.Points == 0 {
			continue
		}
		if err := s.statsCache.AddPoints(ctx, sc.Participant, sc.Points); err != nil {
			return fmt.Errorf("room %s: add points for %s: %w", room, sc.Participant, err)
		}
	}
	return nil
}

// RecordPackPlay bumps a pack's all-time play counter
func (s *StatsService) RecordPackPlay(ctx context.Context, packID string) error {
	return s.statsCache.IncrementPackPlays(ctx, packID)
}

// TopWinners returns the all-time winners board
func (s *StatsService) TopWinners(ctx context.Context, limit int) ([]cache.WinnerEntry, error) {
	return s.statsCache.TopWinners(ctx, limit)
}
