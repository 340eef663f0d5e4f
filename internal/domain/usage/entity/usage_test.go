package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCTRPercentage(t *testing.T) {
	tests := []struct {
		name        string
		clicks      int64
		impressions int64
		want        float64
	}{
		{"no impressions", 5, 0, 0},
		{"exact", 25, 100, 25},
		{"rounds half away from zero", 1, 16, 6.3},
		{"one third", 1, 3, 33.3},
		{"two thirds", 2, 3, 66.7},
		{"all clicked", 7, 7, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CTRPercentage(tt.clicks, tt.impressions))
		})
	}
}

func TestUsageTotals_Metrics(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	m := UsageTotals{
		AssetID:           9,
		SocialImpressions: 300,
		SocialClicks:      12,
		SocialShares:      4,
		WebsiteViews:      100,
		WebsiteClicks:     8,
	}.Metrics(now)

	assert.Equal(t, int64(9), m.AssetID)
	assert.Equal(t, int64(400), m.TotalImpressions)
	assert.Equal(t, int64(20), m.TotalClicks)
	assert.Equal(t, int64(4), m.TotalShares)
	assert.Equal(t, 5.0, m.CTRPercentage)
	assert.Nil(t, m.PerformanceSummary)
	assert.Equal(t, now, m.UpdatedAt)
}

func TestUsage_EmptyJSON(t *testing.T) {
	var u Usage
	u.Normalize()

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"website_urls": [],
		"social_media_posts": [],
		"backlink_submissions": [],
		"engagement_metrics": {
			"total_impressions": 0,
			"total_clicks": 0,
			"total_shares": 0,
			"ctr_percentage": 0,
			"performance_summary": null
		}
	}`, string(raw))
}
