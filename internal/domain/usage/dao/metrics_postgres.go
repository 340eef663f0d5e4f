package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/asset-qc/internal/domain/usage/entity"
)

// MetricsPostgres implements MetricsRepository for PostgreSQL
type MetricsPostgres struct {
	pool *pgxpool.Pool
}

// NewMetricsPostgres creates a new PostgreSQL engagement metrics repository
func NewMetricsPostgres(pool *pgxpool.Pool) *MetricsPostgres {
	return &MetricsPostgres{pool: pool}
}

// GetByAssetID retrieves the engagement metrics of an asset
func (r *MetricsPostgres) GetByAssetID(ctx context.Context, assetID int64) (*entity.EngagementMetrics, error) {
	query := `
		SELECT asset_id, total_impressions, total_clicks, total_shares, ctr_percentage, performance_summary, updated_at
		FROM asset_engagement_metrics
		WHERE asset_id = $1
	`

	var m entity.EngagementMetrics
	err := r.pool.QueryRow(ctx, query, assetID).Scan(
		&m.AssetID,
		&m.TotalImpressions,
		&m.TotalClicks,
		&m.TotalShares,
		&m.CTRPercentage,
		&m.PerformanceSummary,
		&m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting engagement metrics: %w", err)
	}

	return &m, nil
}

// ListUsageTotals sums website and social usage per asset
func (r *MetricsPostgres) ListUsageTotals(ctx context.Context) ([]entity.UsageTotals, error) {
	query := `
		WITH social AS (
			SELECT asset_id,
			       SUM(impressions) AS impressions,
			       SUM(clicks)      AS clicks,
			       SUM(shares)      AS shares
			FROM asset_social_media_usage
			GROUP BY asset_id
		),
		website AS (
			SELECT asset_id,
			       SUM(views)  AS views,
			       SUM(clicks) AS clicks
			FROM asset_website_usage
			GROUP BY asset_id
		)
		SELECT COALESCE(s.asset_id, w.asset_id),
		       COALESCE(s.impressions, 0)::bigint,
		       COALESCE(s.clicks, 0)::bigint,
		       COALESCE(s.shares, 0)::bigint,
		       COALESCE(w.views, 0)::bigint,
		       COALESCE(w.clicks, 0)::bigint
		FROM social s
		FULL OUTER JOIN website w ON w.asset_id = s.asset_id
		ORDER BY 1
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying usage totals: %w", err)
	}

	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.UsageTotals, error) {
		var t entity.UsageTotals
		err := row.Scan(&t.AssetID, &t.SocialImpressions, &t.SocialClicks, &t.SocialShares, &t.WebsiteViews, &t.WebsiteClicks)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning usage totals: %w", err)
	}

	return totals, nil
}

// Upsert inserts or refreshes the metrics row of an asset
func (r *MetricsPostgres) Upsert(ctx context.Context, m *entity.EngagementMetrics) error {
	query := `
		INSERT INTO asset_engagement_metrics (
			asset_id, total_impressions, total_clicks, total_shares, ctr_percentage, performance_summary, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (asset_id) DO UPDATE SET
			total_impressions = EXCLUDED.total_impressions,
			total_clicks = EXCLUDED.total_clicks,
			total_shares = EXCLUDED.total_shares,
			ctr_percentage = EXCLUDED.ctr_percentage,
			performance_summary = COALESCE(EXCLUDED.performance_summary, asset_engagement_metrics.performance_summary),
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		m.AssetID,
		m.TotalImpressions,
		m.TotalClicks,
		m.TotalShares,
		m.CTRPercentage,
		m.PerformanceSummary,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting engagement metrics: %w", err)
	}

	return nil
}
