package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vadim/asset-qc/internal/domain/asset/dao"
	"github.com/vadim/asset-qc/internal/domain/asset/entity"
)

// Service handles business logic for assets and their QC lifecycle
type Service struct {
	assets dao.AssetRepository
	now    func() time.Time
}

// New creates a new asset service
func New(assets dao.AssetRepository) *Service {
	return &Service{
		assets: assets,
		now:    time.Now,
	}
}

// CreateInput represents input for creating an asset
type CreateInput struct {
	Name               string
	Type               string
	Category           string
	ContentType        string
	Repository         string
	WorkflowStage      entity.WorkflowStage
	CreatedBy          *int64
	DesignedBy         *int64
	VerifiedBy         *int64
	StaticServiceLinks []entity.StaticServiceLink
	SEOScore           *int
	GrammarScore       *int
	AIPlagiarismScore  *int
}

// CreateAsset creates a new draft asset
func (s *Service) CreateAsset(ctx context.Context, in CreateInput) (*entity.Asset, error) {
	stage := in.WorkflowStage
	if stage == "" {
		stage = entity.WorkflowStageAdd
	}

	a := &entity.Asset{
		Name:               in.Name,
		Type:               in.Type,
		Category:           in.Category,
		ContentType:        in.ContentType,
		Repository:         in.Repository,
		Status:             entity.StatusDraft,
		WorkflowStage:      stage,
		CreatedBy:          in.CreatedBy,
		DesignedBy:         in.DesignedBy,
		VerifiedBy:         in.VerifiedBy,
		StaticServiceLinks: in.StaticServiceLinks,
		SEOScore:           in.SEOScore,
		GrammarScore:       in.GrammarScore,
		AIPlagiarismScore:  in.AIPlagiarismScore,
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	if err := s.assets.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	return a, nil
}

// GetAsset retrieves an asset by ID
func (s *Service) GetAsset(ctx context.Context, id int64) (*entity.Asset, error) {
	a, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	if a == nil {
		return nil, entity.ErrAssetNotFound
	}
	return a, nil
}

// UpdateInput represents a partial metadata update. Nil fields are left as is.
type UpdateInput struct {
	ID                int64
	Name              *string
	Type              *string
	Category          *string
	ContentType       *string
	Repository        *string
	WorkflowStage     *entity.WorkflowStage
	DesignedBy        *int64
	VerifiedBy        *int64
	SEOScore          *int
	GrammarScore      *int
	AIPlagiarismScore *int
}

// UpdateAsset updates metadata of a draft or reworked asset
func (s *Service) UpdateAsset(ctx context.Context, in UpdateInput) (*entity.Asset, error) {
	return s.transition(ctx, in.ID, entity.TransitionUpdate, func(a *entity.Asset) error {
		if _, err := entity.NextStatus(a.Status, entity.TransitionUpdate); err != nil {
			return err
		}
		if in.Name != nil {
			a.Name = *in.Name
		}
		if in.Type != nil {
			a.Type = *in.Type
		}
		if in.Category != nil {
			a.Category = *in.Category
		}
		if in.ContentType != nil {
			a.ContentType = *in.ContentType
		}
		if in.Repository != nil {
			a.Repository = *in.Repository
		}
		if in.WorkflowStage != nil {
			a.WorkflowStage = *in.WorkflowStage
		}
		if in.DesignedBy != nil {
			a.DesignedBy = in.DesignedBy
		}
		if in.VerifiedBy != nil {
			a.VerifiedBy = in.VerifiedBy
		}
		if in.SEOScore != nil {
			a.SEOScore = in.SEOScore
		}
		if in.GrammarScore != nil {
			a.GrammarScore = in.GrammarScore
		}
		if in.AIPlagiarismScore != nil {
			a.AIPlagiarismScore = in.AIPlagiarismScore
		}
		return a.Validate()
	})
}

// AttachFile records the stored file location on a draft or reworked asset.
// It returns the key of the file it replaced, if any.
func (s *Service) AttachFile(ctx context.Context, id int64, url, key string) (*entity.Asset, string, error) {
	var previousKey string
	a, err := s.transition(ctx, id, entity.TransitionUpdate, func(a *entity.Asset) error {
		if _, err := entity.NextStatus(a.Status, entity.TransitionUpdate); err != nil {
			return err
		}
		previousKey = a.FileKey
		a.FileURL = url
		a.FileKey = key
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return a, previousKey, nil
}

// ListInput represents input for listing assets
type ListInput struct {
	Statuses []entity.Status
	QCStatus *entity.QCStatus
	Type     string
	Limit    int
	Offset   int
	SortBy   string
	Asc      bool
}

// ListOutput represents output from listing assets
type ListOutput struct {
	Assets []entity.Asset
	Total  int64
}

// ListAssets retrieves assets with filtering
func (s *Service) ListAssets(ctx context.Context, in ListInput) (*ListOutput, error) {
	filter := dao.AssetFilter{
		Statuses: in.Statuses,
		QCStatus: in.QCStatus,
		Type:     in.Type,
	}

	opts := dao.ListOptions{
		Limit:  in.Limit,
		Offset: in.Offset,
		SortBy: in.SortBy,
		Desc:   !in.Asc,
	}
	if opts.Limit == 0 {
		opts.Limit = 50
	}

	assets, err := s.assets.List(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	total, err := s.assets.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	if assets == nil {
		assets = []entity.Asset{}
	}

	return &ListOutput{
		Assets: assets,
		Total:  total,
	}, nil
}

// ListForReview returns assets in the given review states, oldest submission first
func (s *Service) ListForReview(ctx context.Context, statuses []entity.Status, limit int) ([]entity.Asset, error) {
	assets, err := s.assets.List(ctx, dao.AssetFilter{Statuses: statuses}, dao.ListOptions{
		Limit:  limit,
		SortBy: "submitted_at",
	})
	if err != nil {
		return nil, err
	}
	if assets == nil {
		assets = []entity.Asset{}
	}
	return assets, nil
}

// Submit moves an asset into the review queue
func (s *Service) Submit(ctx context.Context, id int64, submittedBy *int64) (*entity.Asset, error) {
	return s.transition(ctx, id, entity.TransitionSubmit, func(a *entity.Asset) error {
		return a.Submit(submittedBy, s.now())
	})
}

// Approve records a passing QC review
func (s *Service) Approve(ctx context.Context, id int64, r entity.Review) (*entity.Asset, error) {
	return s.transition(ctx, id, entity.TransitionApprove, func(a *entity.Asset) error {
		return a.Approve(r, s.now())
	})
}

// Reject records a failing QC review
func (s *Service) Reject(ctx context.Context, id int64, r entity.Review) (*entity.Asset, error) {
	return s.transition(ctx, id, entity.TransitionReject, func(a *entity.Asset) error {
		return a.Reject(r, s.now())
	})
}

// RequestRework sends the asset back for revision
func (s *Service) RequestRework(ctx context.Context, id int64, r entity.Review) (*entity.Asset, error) {
	return s.transition(ctx, id, entity.TransitionRework, func(a *entity.Asset) error {
		return a.RequestRework(r, s.now())
	})
}

// Publish marks an approved asset as published
func (s *Service) Publish(ctx context.Context, id int64, publishedBy *int64) (*entity.Asset, error) {
	return s.transition(ctx, id, entity.TransitionPublish, func(a *entity.Asset) error {
		return a.Publish(publishedBy, s.now())
	})
}

// Archive retires an asset
func (s *Service) Archive(ctx context.Context, id int64) (*entity.Asset, error) {
	return s.transition(ctx, id, entity.TransitionArchive, func(a *entity.Asset) error {
		return a.Archive()
	})
}

// ComputeStatistics scans all assets and aggregates QC outcomes
func (s *Service) ComputeStatistics(ctx context.Context) (*entity.QCStatistics, error) {
	snapshots, err := s.assets.ListQCSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading qc snapshots: %w", err)
	}
	stats := entity.ComputeStatistics(snapshots)
	return &stats, nil
}

// transition loads the asset, applies fn and saves it with a compare-and-set on
// the status and version read. A lost race is reported against the status that
// won, or as ErrConcurrentUpdate when the winner left the status unchanged.
func (s *Service) transition(ctx context.Context, id int64, t entity.Transition, fn func(*entity.Asset) error) (*entity.Asset, error) {
	a, err := s.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	from := a.Status
	if err := fn(a); err != nil {
		return nil, err
	}

	saved, err := s.assets.Save(ctx, a, from)
	if err != nil {
		return nil, fmt.Errorf("saving asset: %w", err)
	}
	if saved {
		return a, nil
	}

	current, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	if current == nil {
		return nil, entity.ErrAssetNotFound
	}
	if current.Status == from {
		return nil, entity.ErrConcurrentUpdate
	}
	return nil, &entity.InvalidStateTransitionError{Current: current.Status, Attempted: t}
}
