package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func pendingAsset() *Asset {
	return &Asset{
		ID:           1,
		Name:         "Spring campaign banner",
		Status:       StatusPendingReview,
		QCStatus:     QCStatusPending,
		SEOScore:     intPtr(70),
		GrammarScore: intPtr(90),
	}
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		t       Transition
		want    Status
		wantErr bool
	}{
		{name: "submit draft", current: StatusDraft, t: TransitionSubmit, want: StatusPendingReview},
		{name: "resubmit rework", current: StatusRework, t: TransitionSubmit, want: StatusPendingReview},
		{name: "approve pending", current: StatusPendingReview, t: TransitionApprove, want: StatusApproved},
		{name: "reject pending", current: StatusPendingReview, t: TransitionReject, want: StatusRejected},
		{name: "rework pending", current: StatusPendingReview, t: TransitionRework, want: StatusRework},
		{name: "publish approved", current: StatusApproved, t: TransitionPublish, want: StatusPublished},
		{name: "archive published", current: StatusPublished, t: TransitionArchive, want: StatusArchived},
		{name: "update draft keeps status", current: StatusDraft, t: TransitionUpdate, want: StatusDraft},
		{name: "submit pending", current: StatusPendingReview, t: TransitionSubmit, wantErr: true},
		{name: "approve approved", current: StatusApproved, t: TransitionApprove, wantErr: true},
		{name: "approve draft", current: StatusDraft, t: TransitionApprove, wantErr: true},
		{name: "reject rejected", current: StatusRejected, t: TransitionReject, wantErr: true},
		{name: "rework approved", current: StatusApproved, t: TransitionRework, wantErr: true},
		{name: "publish pending", current: StatusPendingReview, t: TransitionPublish, wantErr: true},
		{name: "resubmit published", current: StatusPublished, t: TransitionSubmit, wantErr: true},
		{name: "archive archived", current: StatusArchived, t: TransitionArchive, wantErr: true},
		{name: "archive pending", current: StatusPendingReview, t: TransitionArchive, wantErr: true},
		{name: "update pending", current: StatusPendingReview, t: TransitionUpdate, wantErr: true},
		{name: "unknown transition", current: StatusDraft, t: Transition("teleport"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextStatus(tt.current, tt.t)
			if tt.wantErr {
				var stateErr *InvalidStateTransitionError
				require.ErrorAs(t, err, &stateErr)
				assert.Equal(t, tt.current, stateErr.Current)
				assert.Equal(t, tt.t, stateErr.Attempted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAsset_Submit(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("requires seo score even when grammar score is set", func(t *testing.T) {
		a := &Asset{Status: StatusDraft, GrammarScore: intPtr(80)}
		err := a.Submit(int64Ptr(5), now)
		assert.ErrorIs(t, err, ErrSEOScoreRequired)
		assert.Equal(t, StatusDraft, a.Status)
	})

	t.Run("requires grammar score", func(t *testing.T) {
		a := &Asset{Status: StatusDraft, SEOScore: intPtr(80)}
		assert.ErrorIs(t, a.Submit(nil, now), ErrGrammarScoreRequired)
	})

	t.Run("sets submission fields", func(t *testing.T) {
		a := &Asset{Status: StatusDraft, SEOScore: intPtr(80), GrammarScore: intPtr(75)}
		require.NoError(t, a.Submit(int64Ptr(5), now))
		assert.Equal(t, StatusPendingReview, a.Status)
		assert.Equal(t, QCStatusPending, a.QCStatus)
		assert.Equal(t, WorkflowStageSentToQC, a.WorkflowStage)
		assert.Equal(t, int64(5), *a.SubmittedBy)
		assert.Equal(t, now, *a.SubmittedAt)
	})
}

func TestAsset_Approve(t *testing.T) {
	now := time.Now()

	a := pendingAsset()
	require.NoError(t, a.Approve(Review{ReviewerID: int64Ptr(9), Remarks: " looks good ", Score: intPtr(88)}, now))
	assert.Equal(t, StatusApproved, a.Status)
	assert.Equal(t, QCStatusApproved, a.QCStatus)
	assert.Equal(t, 88, *a.QCScore)
	assert.Equal(t, "looks good", a.QCRemarks)
	assert.Equal(t, int64(9), *a.QCReviewerID)
	assert.True(t, a.LinkingActive)

	err := a.Approve(Review{Score: intPtr(90)}, now)
	var stateErr *InvalidStateTransitionError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, StatusApproved, stateErr.Current)
	assert.Equal(t, 88, *a.QCScore, "second approval must not overwrite the first")
}

func TestAsset_Approve_ScoreValidation(t *testing.T) {
	t.Run("out of range", func(t *testing.T) {
		err := pendingAsset().Approve(Review{Score: intPtr(101)}, time.Now())
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "qc_score", vErr.Field)
	})

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, pendingAsset().Approve(Review{}, time.Now()), ErrQCScoreRequired)
	})

	t.Run("derived from checklist", func(t *testing.T) {
		a := pendingAsset()
		err := a.Approve(Review{Checklist: []ChecklistItem{
			{ItemName: "Brand colors", Score: 4, MaxScore: 5, Result: "pass"},
			{ItemName: "Copy", Score: 3, MaxScore: 5, Result: "pass"},
		}}, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 70, *a.QCScore)
		assert.Len(t, a.QCChecklistItems, 2)
	})

	t.Run("invalid checklist item", func(t *testing.T) {
		err := pendingAsset().Approve(Review{Score: intPtr(50), Checklist: []ChecklistItem{
			{ItemName: "Copy", Score: 6, MaxScore: 5},
		}}, time.Now())
		assert.ErrorIs(t, err, ErrInvalidChecklistItem)
	})
}

func TestAsset_Reject(t *testing.T) {
	for _, remarks := range []string{"", "   "} {
		a := pendingAsset()
		err := a.Reject(Review{Remarks: remarks, Score: intPtr(40)}, time.Now())
		require.ErrorIs(t, err, ErrRejectRemarksRequired)
		assert.Equal(t, "Remarks are required for rejection", err.Error())
		assert.Equal(t, StatusPendingReview, a.Status)
	}

	a := pendingAsset()
	require.NoError(t, a.Reject(Review{Remarks: "issue found", Score: intPtr(40)}, time.Now()))
	assert.Equal(t, StatusRejected, a.Status)
	assert.Equal(t, QCStatusReject, a.QCStatus)
	assert.False(t, a.LinkingActive)

	err := a.Reject(Review{Remarks: "again"}, time.Now())
	var stateErr *InvalidStateTransitionError
	assert.ErrorAs(t, err, &stateErr)
}

func TestAsset_RequestRework(t *testing.T) {
	a := pendingAsset()
	err := a.RequestRework(Review{Remarks: ""}, time.Now())
	require.ErrorIs(t, err, ErrReworkRemarksRequired)
	assert.Equal(t, "Remarks are required for rework request", err.Error())
	assert.Equal(t, 0, a.ReworkCount)

	previous := a.ReworkCount
	for i := 0; i < 3; i++ {
		require.NoError(t, a.RequestRework(Review{Remarks: "fix logo"}, time.Now()))
		assert.Equal(t, StatusRework, a.Status)
		assert.Equal(t, WorkflowStageInRework, a.WorkflowStage)
		assert.Greater(t, a.ReworkCount, previous)
		previous = a.ReworkCount

		require.NoError(t, a.Submit(nil, time.Now()))
		assert.Equal(t, previous, a.ReworkCount, "resubmission must not change rework_count")
	}
	assert.Equal(t, 3, a.ReworkCount)
}

func TestAsset_PublishAndArchive(t *testing.T) {
	a := pendingAsset()
	require.NoError(t, a.Approve(Review{Score: intPtr(95)}, time.Now()))
	require.NoError(t, a.Publish(int64Ptr(3), time.Now()))
	assert.Equal(t, StatusPublished, a.Status)
	assert.Equal(t, WorkflowStagePublished, a.WorkflowStage)
	assert.True(t, a.LinkingActive)

	require.NoError(t, a.Archive())
	assert.Equal(t, StatusArchived, a.Status)

	var stateErr *InvalidStateTransitionError
	assert.True(t, errors.As(a.Archive(), &stateErr))
	assert.True(t, errors.As(a.Submit(nil, time.Now()), &stateErr))
}

func TestChecklistScore(t *testing.T) {
	assert.Nil(t, ChecklistScore(nil))
	assert.Nil(t, ChecklistScore([]ChecklistItem{{ItemName: "x", Score: 0, MaxScore: 0}}))
	assert.Equal(t, 67, *ChecklistScore([]ChecklistItem{{ItemName: "x", Score: 2, MaxScore: 3}}))
	assert.Equal(t, 100, *ChecklistScore([]ChecklistItem{{ItemName: "x", Score: 10, MaxScore: 10}}))
}
