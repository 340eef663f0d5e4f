package policy

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/vadim/asset-qc/internal/domain/asset/entity"
	"github.com/vadim/asset-qc/internal/domain/asset/service"
)

// StatisticsCache stores the last computed QC statistics snapshot.
// Get reports the generation a recomputed snapshot must be stored under, so
// a snapshot computed across an Invalidate is never served.
type StatisticsCache interface {
	Get(ctx context.Context) (*entity.QCStatistics, int64, bool, error)
	Set(ctx context.Context, stats *entity.QCStatistics, generation int64) error
	Invalidate(ctx context.Context) error
}

// FileStorage defines the interface for storing asset files
// This interface is defined here (consumer) not in the storage package (provider)
type FileStorage interface {
	Upload(ctx context.Context, in FileUpload) (*StoredFile, error)
	Delete(ctx context.Context, key string) error
}

// FileUpload represents a file to store
type FileUpload struct {
	Reader      io.Reader
	ContentType string
	Size        int64
	Filename    string
}

// StoredFile represents a stored file location
type StoredFile struct {
	Key string
	URL string
}

// TransitionRecorder records the outcome of workflow transitions
type TransitionRecorder interface {
	IncTransition(transition, result string)
}

// Policy orchestrates asset and QC review use-cases
type Policy struct {
	svc     *service.Service
	stats   StatisticsCache
	files   FileStorage
	metrics TransitionRecorder
	logger  *zap.Logger
}

// New creates a new asset policy. stats, files and metrics may be nil.
func New(svc *service.Service, stats StatisticsCache, files FileStorage, metrics TransitionRecorder, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		svc:     svc,
		stats:   stats,
		files:   files,
		metrics: metrics,
		logger:  logger,
	}
}

// ErrStorageDisabled is returned by UploadFile when no file storage is configured
var ErrStorageDisabled = errors.New("file storage is not configured")

// CreateAsset creates a new draft asset
func (p *Policy) CreateAsset(ctx context.Context, in service.CreateInput) (*entity.Asset, error) {
	a, err := p.svc.CreateAsset(ctx, in)
	if err != nil {
		return nil, err
	}
	p.invalidateStatistics(ctx)
	return a, nil
}

// UpdateAsset updates asset metadata
func (p *Policy) UpdateAsset(ctx context.Context, in service.UpdateInput) (*entity.Asset, error) {
	return p.svc.UpdateAsset(ctx, in)
}

// GetAsset retrieves an asset by ID
func (p *Policy) GetAsset(ctx context.Context, id int64) (*entity.Asset, error) {
	return p.svc.GetAsset(ctx, id)
}

// ListAssets retrieves assets with filtering
func (p *Policy) ListAssets(ctx context.Context, in service.ListInput) (*service.ListOutput, error) {
	return p.svc.ListAssets(ctx, in)
}

// UploadFileInput represents input for attaching a file to an asset
type UploadFileInput struct {
	AssetID int64
	File    FileUpload
}

// UploadFile stores the file and points the asset at it. The previous file,
// if any, is removed after the asset row is updated.
func (p *Policy) UploadFile(ctx context.Context, in UploadFileInput) (*entity.Asset, error) {
	if p.files == nil {
		return nil, ErrStorageDisabled
	}

	a, err := p.svc.GetAsset(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}
	if !a.IsEditable() {
		return nil, &entity.InvalidStateTransitionError{Current: a.Status, Attempted: entity.TransitionUpdate}
	}

	stored, err := p.files.Upload(ctx, in.File)
	if err != nil {
		return nil, err
	}

	a, previousKey, err := p.svc.AttachFile(ctx, in.AssetID, stored.URL, stored.Key)
	if err != nil {
		p.deleteFile(ctx, stored.Key)
		return nil, err
	}
	if previousKey != "" && previousKey != stored.Key {
		p.deleteFile(ctx, previousKey)
	}

	return a, nil
}

// Submit sends an asset to QC review
func (p *Policy) Submit(ctx context.Context, id int64, submittedBy *int64) (*entity.Asset, error) {
	a, err := p.svc.Submit(ctx, id, submittedBy)
	return p.afterTransition(ctx, entity.TransitionSubmit, id, a, err)
}

// ReviewInput represents a reviewer decision
type ReviewInput struct {
	AssetID    int64
	ReviewerID *int64
	Remarks    string
	Score      *int
	Checklist  []entity.ChecklistItem
}

func (in ReviewInput) review() entity.Review {
	return entity.Review{
		ReviewerID: in.ReviewerID,
		Remarks:    in.Remarks,
		Score:      in.Score,
		Checklist:  in.Checklist,
	}
}

// Approve approves a pending asset
func (p *Policy) Approve(ctx context.Context, in ReviewInput) (*entity.Asset, error) {
	a, err := p.svc.Approve(ctx, in.AssetID, in.review())
	return p.afterTransition(ctx, entity.TransitionApprove, in.AssetID, a, err)
}

// Reject rejects a pending asset
func (p *Policy) Reject(ctx context.Context, in ReviewInput) (*entity.Asset, error) {
	a, err := p.svc.Reject(ctx, in.AssetID, in.review())
	return p.afterTransition(ctx, entity.TransitionReject, in.AssetID, a, err)
}

// RequestRework sends a pending asset back for rework
func (p *Policy) RequestRework(ctx context.Context, in ReviewInput) (*entity.Asset, error) {
	a, err := p.svc.RequestRework(ctx, in.AssetID, in.review())
	return p.afterTransition(ctx, entity.TransitionRework, in.AssetID, a, err)
}

// Publish publishes an approved asset
func (p *Policy) Publish(ctx context.Context, id int64, publishedBy *int64) (*entity.Asset, error) {
	a, err := p.svc.Publish(ctx, id, publishedBy)
	return p.afterTransition(ctx, entity.TransitionPublish, id, a, err)
}

// Archive archives an asset
func (p *Policy) Archive(ctx context.Context, id int64) (*entity.Asset, error) {
	a, err := p.svc.Archive(ctx, id)
	return p.afterTransition(ctx, entity.TransitionArchive, id, a, err)
}

// PendingFilter selects which review queue to list
type PendingFilter string

const (
	PendingFilterPending PendingFilter = "Pending"
	PendingFilterRework  PendingFilter = "Rework"
	PendingFilterAll     PendingFilter = "all"
)

// ErrInvalidPendingFilter is returned for an unknown review queue filter
var ErrInvalidPendingFilter = &entity.ValidationError{Field: "status", Message: "status must be one of Pending, Rework, all"}

// ListPending lists assets waiting in the review queue
func (p *Policy) ListPending(ctx context.Context, filter PendingFilter, limit int) ([]entity.Asset, error) {
	var statuses []entity.Status
	switch filter {
	case PendingFilterPending, "":
		statuses = []entity.Status{entity.StatusPendingReview}
	case PendingFilterRework:
		statuses = []entity.Status{entity.StatusRework}
	case PendingFilterAll:
		statuses = []entity.Status{entity.StatusPendingReview, entity.StatusRework}
	default:
		return nil, ErrInvalidPendingFilter
	}
	return p.svc.ListForReview(ctx, statuses, limit)
}

// GetStatistics returns the QC statistics snapshot, served from cache when fresh
func (p *Policy) GetStatistics(ctx context.Context) (*entity.QCStatistics, error) {
	var (
		generation int64
		cacheable  bool
	)
	if p.stats != nil {
		cached, gen, ok, err := p.stats.Get(ctx)
		if err != nil {
			p.logger.Warn("reading statistics cache", zap.Error(err))
		} else if ok {
			return cached, nil
		} else {
			generation, cacheable = gen, true
		}
	}

	stats, err := p.svc.ComputeStatistics(ctx)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := p.stats.Set(ctx, stats, generation); err != nil {
			p.logger.Warn("writing statistics cache", zap.Error(err))
		}
	}
	return stats, nil
}

func (p *Policy) afterTransition(ctx context.Context, t entity.Transition, id int64, a *entity.Asset, err error) (*entity.Asset, error) {
	if p.metrics != nil {
		p.metrics.IncTransition(string(t), transitionResult(err))
	}
	if err != nil {
		p.logger.Debug("asset transition refused",
			zap.String("transition", string(t)),
			zap.Int64("asset_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	fields := []zap.Field{
		zap.String("transition", string(t)),
		zap.Int64("asset_id", id),
		zap.String("status", string(a.Status)),
		zap.Int("rework_count", a.ReworkCount),
	}
	if a.QCReviewerID != nil && t != entity.TransitionSubmit {
		fields = append(fields, zap.Int64("reviewer_id", *a.QCReviewerID))
	}
	p.logger.Info("asset transitioned", fields...)

	p.invalidateStatistics(ctx)
	return a, nil
}

func (p *Policy) invalidateStatistics(ctx context.Context) {
	if p.stats == nil {
		return
	}
	if err := p.stats.Invalidate(ctx); err != nil {
		p.logger.Warn("invalidating statistics cache", zap.Error(err))
	}
}

func (p *Policy) deleteFile(ctx context.Context, key string) {
	if err := p.files.Delete(ctx, key); err != nil {
		p.logger.Warn("deleting stored file", zap.String("key", key), zap.Error(err))
	}
}

func transitionResult(err error) string {
	var vErr *entity.ValidationError
	var stateErr *entity.InvalidStateTransitionError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &vErr):
		return "validation_error"
	case errors.As(err, &stateErr):
		return "invalid_transition"
	case errors.Is(err, entity.ErrAssetNotFound):
		return "not_found"
	case errors.Is(err, entity.ErrConcurrentUpdate):
		return "conflict"
	default:
		return "error"
	}
}
