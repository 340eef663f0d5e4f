package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsset_Validate(t *testing.T) {
	tests := []struct {
		name  string
		asset Asset
		want  error
	}{
		{name: "valid", asset: Asset{Name: "Banner"}},
		{name: "blank name", asset: Asset{Name: "  "}, want: ErrNameRequired},
		{name: "long name", asset: Asset{Name: strings.Repeat("a", 256)}, want: ErrNameTooLong},
		{name: "unknown stage", asset: Asset{Name: "Banner", WorkflowStage: "Somewhere"}, want: ErrInvalidWorkflowStage},
		{
			name:  "service link without id",
			asset: Asset{Name: "Banner", StaticServiceLinks: []StaticServiceLink{{Type: LinkTypeService}}},
			want:  ErrInvalidServiceLink,
		},
		{
			name: "sub service link with both ids",
			asset: Asset{Name: "Banner", StaticServiceLinks: []StaticServiceLink{
				{Type: LinkTypeSubService, ServiceID: int64Ptr(1), SubServiceID: int64Ptr(2)},
			}},
			want: ErrInvalidServiceLink,
		},
		{
			name: "valid links",
			asset: Asset{Name: "Banner", StaticServiceLinks: []StaticServiceLink{
				{Type: LinkTypeService, ServiceID: int64Ptr(1)},
				{Type: LinkTypeSubService, SubServiceID: int64Ptr(2)},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAsset_Validate_ScoreRange(t *testing.T) {
	a := Asset{Name: "Banner", AIPlagiarismScore: intPtr(-1)}
	err := a.Validate()
	var vErr *ValidationError
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, "ai_plagiarism_score", vErr.Field)
	}
}

func TestAsset_Normalize(t *testing.T) {
	a := Asset{}
	a.Normalize()
	assert.NotNil(t, a.QCChecklistItems)
	assert.NotNil(t, a.StaticServiceLinks)
}
