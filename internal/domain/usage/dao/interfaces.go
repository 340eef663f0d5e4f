package dao

import (
	"context"

	"github.com/vadim/asset-qc/internal/domain/usage/entity"
)

// UsageRepository reads the per-asset usage child rows. Every list is
// returned in insertion order.
type UsageRepository interface {
	ListWebsiteUsage(ctx context.Context, assetID int64) ([]entity.WebsiteUsage, error)
	ListSocialMediaUsage(ctx context.Context, assetID int64) ([]entity.SocialMediaUsage, error)
	ListBacklinkUsage(ctx context.Context, assetID int64) ([]entity.BacklinkUsage, error)
}

// MetricsRepository defines the interface for engagement metrics data access
type MetricsRepository interface {
	// GetByAssetID returns the metrics row for the asset, nil when absent
	GetByAssetID(ctx context.Context, assetID int64) (*entity.EngagementMetrics, error)

	// ListUsageTotals sums the usage child rows of every asset that has any
	ListUsageTotals(ctx context.Context) ([]entity.UsageTotals, error)

	// Upsert writes the counters and CTR, keeping an existing performance summary
	Upsert(ctx context.Context, m *entity.EngagementMetrics) error
}
