package billing

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"invoice-automation/backend/internal/cache"
)

const dashboardStatsKey = "dashboard:stats"

// cachingRepository serves dashboard stats from a cache; cache failures fall through to the store
type cachingRepository struct {
	Repository
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingRepository caches GetDashboardStats results for ttl
func NewCachingRepository(repo Repository, store cache.Store, ttl time.Duration, logger *zap.Logger) Repository {
	if store == nil || ttl <= 0 {
		return repo
	}
	return &cachingRepository{Repository: repo, cache: store, ttl: ttl, logger: logger}
}

func (r *cachingRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	raw, ok, err := r.cache.Get(ctx, dashboardStatsKey)
	if err != nil {
		r.logger.Warn("Dashboard stats cache unavailable", zap.Error(err))
	}
	if ok {
		var stats DashboardStats
		if err := json.Unmarshal(raw, &stats); err == nil {
			return &stats, nil
		}
		r.logger.Warn("Discarding unreadable dashboard stats cache entry")
	}

	stats, err := r.Repository.GetDashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(stats); err == nil {
		if err := r.cache.Set(ctx, dashboardStatsKey, raw, r.ttl); err != nil {
			r.logger.Warn("Failed to cache dashboard stats", zap.Error(err))
		}
	}
	return stats, nil
}

func (r *cachingRepository) CreateInvoiceFromQuotation(ctx context.Context, quotation *Document, dueDate time.Time) (*Document, error) {
	doc, err := r.Repository.CreateInvoiceFromQuotation(ctx, quotation, dueDate)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return doc, nil
}

func (r *cachingRepository) invalidate(ctx context.Context) {
	if err := r.cache.Delete(ctx, dashboardStatsKey); err != nil {
		r.logger.Warn("Failed to invalidate dashboard stats cache", zap.Error(err))
	}
}
