package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/asset-qc/internal/domain/usage/entity"
)

// UsagePostgres implements UsageRepository for PostgreSQL
type UsagePostgres struct {
	pool *pgxpool.Pool
}

// NewUsagePostgres creates a new PostgreSQL usage repository
func NewUsagePostgres(pool *pgxpool.Pool) *UsagePostgres {
	return &UsagePostgres{pool: pool}
}

// ListWebsiteUsage returns the pages embedding the asset
func (r *UsagePostgres) ListWebsiteUsage(ctx context.Context, assetID int64) ([]entity.WebsiteUsage, error) {
	query := `
		SELECT id, asset_id, website_url, page_title, published_at, views, clicks, created_at
		FROM asset_website_usage
		WHERE asset_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("querying website usage: %w", err)
	}

	usage, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.WebsiteUsage, error) {
		var u entity.WebsiteUsage
		err := row.Scan(&u.ID, &u.AssetID, &u.WebsiteURL, &u.PageTitle, &u.PublishedAt, &u.Views, &u.Clicks, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning website usage: %w", err)
	}

	return usage, nil
}

// ListSocialMediaUsage returns the social posts carrying the asset
func (r *UsagePostgres) ListSocialMediaUsage(ctx context.Context, assetID int64) ([]entity.SocialMediaUsage, error) {
	query := `
		SELECT id, asset_id, platform, post_url, posted_at, impressions, clicks, shares, created_at
		FROM asset_social_media_usage
		WHERE asset_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("querying social media usage: %w", err)
	}

	usage, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.SocialMediaUsage, error) {
		var u entity.SocialMediaUsage
		err := row.Scan(&u.ID, &u.AssetID, &u.Platform, &u.PostURL, &u.PostedAt, &u.Impressions, &u.Clicks, &u.Shares, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning social media usage: %w", err)
	}

	return usage, nil
}

// ListBacklinkUsage returns the backlink submissions referencing the asset
func (r *UsagePostgres) ListBacklinkUsage(ctx context.Context, assetID int64) ([]entity.BacklinkUsage, error) {
	query := `
		SELECT id, asset_id, domain_name, backlink_url, submission_status, submitted_at, created_at
		FROM asset_backlink_usage
		WHERE asset_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("querying backlink usage: %w", err)
	}

	usage, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.BacklinkUsage, error) {
		var u entity.BacklinkUsage
		err := row.Scan(&u.ID, &u.AssetID, &u.DomainName, &u.BacklinkURL, &u.SubmissionStatus, &u.SubmittedAt, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning backlink usage: %w", err)
	}

	return usage, nil
}
