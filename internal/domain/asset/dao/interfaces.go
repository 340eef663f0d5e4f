package dao

import (
	"context"

	"github.com/vadim/asset-qc/internal/domain/asset/entity"
)

// AssetFilter contains filters for listing assets
type AssetFilter struct {
	Statuses []entity.Status
	QCStatus *entity.QCStatus
	Type     string
}

// ListOptions contains pagination and sorting options
type ListOptions struct {
	Limit  int
	Offset int
	SortBy string // "created_at", "updated_at", "submitted_at", "name"
	Desc   bool
}

// AssetRepository defines the interface for asset data access
type AssetRepository interface {
	// Create inserts a new asset and fills its generated id and timestamps
	Create(ctx context.Context, a *entity.Asset) error

	// GetByID retrieves an asset by its ID, nil when absent
	GetByID(ctx context.Context, id int64) (*entity.Asset, error)

	// Save writes every mutable column of a, but only while the stored status
	// still equals expected and the stored version equals a.Version. On success
	// a.Version is advanced. Returns false when no row matched.
	Save(ctx context.Context, a *entity.Asset, expected entity.Status) (bool, error)

	// List retrieves assets with optional filtering and pagination
	List(ctx context.Context, filter AssetFilter, opts ListOptions) ([]entity.Asset, error)

	// Count returns the total number of assets matching the filter
	Count(ctx context.Context, filter AssetFilter) (int64, error)

	// Exists reports whether an asset row exists
	Exists(ctx context.Context, id int64) (bool, error)

	// ListQCSnapshots returns the QC status and score of every asset
	ListQCSnapshots(ctx context.Context) ([]entity.QCSnapshot, error)
}
