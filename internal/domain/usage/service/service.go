package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	assetentity "github.com/vadim/asset-qc/internal/domain/asset/entity"
	"github.com/vadim/asset-qc/internal/domain/usage/dao"
	"github.com/vadim/asset-qc/internal/domain/usage/entity"
)

// AssetLookup checks asset existence
// This interface is defined here (consumer) not in the asset package (provider)
type AssetLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service aggregates where assets are used and how they perform
type Service struct {
	assets  AssetLookup
	usage   dao.UsageRepository
	metrics dao.MetricsRepository
	now     func() time.Time
}

// New creates a new usage service
func New(assets AssetLookup, usage dao.UsageRepository, metrics dao.MetricsRepository) *Service {
	return &Service{
		assets:  assets,
		usage:   usage,
		metrics: metrics,
		now:     time.Now,
	}
}

// GetUsage returns website, social and backlink usage plus engagement metrics.
// The four sources are read concurrently; the first failure cancels the rest.
func (s *Service) GetUsage(ctx context.Context, assetID int64) (*entity.Usage, error) {
	exists, err := s.assets.Exists(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("checking asset: %w", err)
	}
	if !exists {
		return nil, assetentity.ErrAssetNotFound
	}

	var (
		usage   entity.Usage
		metrics *entity.EngagementMetrics
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		usage.WebsiteURLs, err = s.usage.ListWebsiteUsage(gctx, assetID)
		return err
	})
	g.Go(func() error {
		var err error
		usage.SocialMediaPosts, err = s.usage.ListSocialMediaUsage(gctx, assetID)
		return err
	})
	g.Go(func() error {
		var err error
		usage.BacklinkSubmissions, err = s.usage.ListBacklinkUsage(gctx, assetID)
		return err
	})
	g.Go(func() error {
		var err error
		metrics, err = s.metrics.GetByAssetID(gctx, assetID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading asset usage: %w", err)
	}

	if metrics != nil {
		usage.EngagementMetrics = *metrics
		usage.EngagementMetrics.CTRPercentage = entity.CTRPercentage(metrics.TotalClicks, metrics.TotalImpressions)
	} else {
		usage.EngagementMetrics = entity.EngagementMetrics{AssetID: assetID}
	}
	usage.Normalize()

	return &usage, nil
}

// RollupEngagementMetrics recomputes the metrics row of every asset with usage.
// Returns the number of rows written.
func (s *Service) RollupEngagementMetrics(ctx context.Context) (int, error) {
	totals, err := s.metrics.ListUsageTotals(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading usage totals: %w", err)
	}

	now := s.now()
	written := 0
	for _, t := range totals {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		m := t.Metrics(now)
		if err := s.metrics.Upsert(ctx, &m); err != nil {
			return written, fmt.Errorf("asset %d: %w", t.AssetID, err)
		}
		written++
	}

	return written, nil
}
