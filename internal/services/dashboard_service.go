package services

import (
	"context"
	"encoding/json"
	"time"

	"cylinder-backend/internal/cache"
	"cylinder-backend/internal/models"
	"cylinder-backend/internal/repositories"
)

const dashboardTTL = 5 * time.Minute

// DashboardService serves the aggregate summary, cached in Redis since the
// underlying query scans three tables.
type DashboardService struct {
	Repo  *repositories.DashboardRepository
	Cache *cache.RedisCache
}

func NewDashboardService(repo *repositories.DashboardRepository, c *cache.RedisCache) *DashboardService {
	return &DashboardService{Repo: repo, Cache: c}
}

func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	if data, ok := s.Cache.GetCached(ctx, cache.DashboardKey); ok {
		var summary models.DashboardSummary
		if err := json.Unmarshal(data, &summary); err == nil {
			return &summary, nil
		}
	}

	summary, err := s.Repo.Summary(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(summary); err == nil {
		s.Cache.SetCached(ctx, cache.DashboardKey, data, dashboardTTL)
	}
	return summary, nil
}
