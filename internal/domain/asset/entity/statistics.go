package entity

import "github.com/shopspring/decimal"

// QCSnapshot is the slice of an asset the statistics aggregator needs
type QCSnapshot struct {
	QCStatus QCStatus
	QCScore  *int
}

// QCStatistics is a point-in-time snapshot over all assets.
// Total = Pending + Approved + Rejected + Rework + Others, where Others
// counts assets with no QC outcome yet (never submitted) or an unknown marker.
type QCStatistics struct {
	Pending      int     `json:"pending"`
	Approved     int     `json:"approved"`
	Rejected     int     `json:"rejected"`
	Rework       int     `json:"rework"`
	Others       int     `json:"others"`
	Total        int     `json:"total"`
	AverageScore float64 `json:"average_score"`
	ApprovalRate int     `json:"approval_rate"` // percent, rounded
}

// ComputeStatistics aggregates QC counts and derived rates
func ComputeStatistics(snapshots []QCSnapshot) QCStatistics {
	var stats QCStatistics
	var scoreSum, scored int64

	for _, s := range snapshots {
		switch s.QCStatus {
		case QCStatusPending:
			stats.Pending++
		case QCStatusApproved, QCStatusPass:
			stats.Approved++
		case QCStatusReject, QCStatusFail:
			stats.Rejected++
		case QCStatusRework:
			stats.Rework++
		default:
			stats.Others++
		}
		if s.QCScore != nil {
			scoreSum += int64(*s.QCScore)
			scored++
		}
	}
	stats.Total = len(snapshots)

	if scored > 0 {
		avg := decimal.NewFromInt(scoreSum).Div(decimal.NewFromInt(scored)).Round(2)
		stats.AverageScore, _ = avg.Float64()
	}

	if decided := stats.Approved + stats.Rejected; decided > 0 {
		rate := decimal.NewFromInt(int64(stats.Approved) * 100).Div(decimal.NewFromInt(int64(decided))).Round(0)
		stats.ApprovalRate = int(rate.IntPart())
	}

	return stats
}
