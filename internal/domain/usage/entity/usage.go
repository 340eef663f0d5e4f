package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// WebsiteUsage is a page on which the asset is embedded
type WebsiteUsage struct {
	ID          int64      `json:"id"`
	AssetID     int64      `json:"asset_id"`
	WebsiteURL  string     `json:"website_url"`
	PageTitle   string     `json:"page_title"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Views       int64      `json:"views"`
	Clicks      int64      `json:"clicks"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SocialMediaUsage is a social post that carries the asset
type SocialMediaUsage struct {
	ID          int64      `json:"id"`
	AssetID     int64      `json:"asset_id"`
	Platform    string     `json:"platform"`
	PostURL     string     `json:"post_url"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	Impressions int64      `json:"impressions"`
	Clicks      int64      `json:"clicks"`
	Shares      int64      `json:"shares"`
	CreatedAt   time.Time  `json:"created_at"`
}

// BacklinkUsage is a backlink submission that references the asset
type BacklinkUsage struct {
	ID               int64      `json:"id"`
	AssetID          int64      `json:"asset_id"`
	DomainName       string     `json:"domain_name"`
	BacklinkURL      string     `json:"backlink_url"`
	SubmissionStatus string     `json:"submission_status"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// EngagementMetrics is the per-asset engagement rollup
type EngagementMetrics struct {
	AssetID            int64     `json:"-"`
	TotalImpressions   int64     `json:"total_impressions"`
	TotalClicks        int64     `json:"total_clicks"`
	TotalShares        int64     `json:"total_shares"`
	CTRPercentage      float64   `json:"ctr_percentage"`
	PerformanceSummary *string   `json:"performance_summary"`
	UpdatedAt          time.Time `json:"-"`
}

// Usage is the combined view of everywhere an asset is used
type Usage struct {
	WebsiteURLs         []WebsiteUsage     `json:"website_urls"`
	SocialMediaPosts    []SocialMediaUsage `json:"social_media_posts"`
	BacklinkSubmissions []BacklinkUsage    `json:"backlink_submissions"`
	EngagementMetrics   EngagementMetrics  `json:"engagement_metrics"`
}

// Normalize replaces nil lists with empty ones
func (u *Usage) Normalize() {
	if u.WebsiteURLs == nil {
		u.WebsiteURLs = []WebsiteUsage{}
	}
	if u.SocialMediaPosts == nil {
		u.SocialMediaPosts = []SocialMediaUsage{}
	}
	if u.BacklinkSubmissions == nil {
		u.BacklinkSubmissions = []BacklinkUsage{}
	}
}

// CTRPercentage returns clicks/impressions*100 rounded to one decimal, 0 when
// there are no impressions.
func CTRPercentage(clicks, impressions int64) float64 {
	if impressions <= 0 {
		return 0
	}
	ctr := decimal.NewFromInt(clicks).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(impressions)).
		Round(1)
	f, _ := ctr.Float64()
	return f
}

// UsageTotals holds the raw sums the rollup turns into EngagementMetrics
type UsageTotals struct {
	AssetID           int64
	SocialImpressions int64
	SocialClicks      int64
	SocialShares      int64
	WebsiteViews      int64
	WebsiteClicks     int64
}

// Metrics folds the totals into an engagement record. The summary is left
// nil; the store keeps whatever summary already exists.
func (t UsageTotals) Metrics(now time.Time) EngagementMetrics {
	impressions := t.SocialImpressions + t.WebsiteViews
	clicks := t.SocialClicks + t.WebsiteClicks
	return EngagementMetrics{
		AssetID:          t.AssetID,
		TotalImpressions: impressions,
		TotalClicks:      clicks,
		TotalShares:      t.SocialShares,
		CTRPercentage:    CTRPercentage(clicks, impressions),
		UpdatedAt:        now,
	}
}
