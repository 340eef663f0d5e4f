package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/asset-qc/internal/domain/asset/entity"
)

const assetColumns = `
	id, name, type, category, content_type, repository, file_url, file_key,
	status, workflow_stage, qc_status,
	qc_reviewer_id, qc_reviewed_at, qc_score, qc_remarks, qc_checklist_items, rework_count, linking_active,
	submitted_by, submitted_at, created_by, designed_by, published_by, published_at, verified_by,
	static_service_links, seo_score, grammar_score, ai_plagiarism_score,
	created_at, updated_at, version`

var sortColumns = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"submitted_at": "COALESCE(submitted_at, updated_at)",
	"name":         "name",
}

// AssetPostgres implements AssetRepository for PostgreSQL
type AssetPostgres struct {
	pool *pgxpool.Pool
}

// NewAssetPostgres creates a new PostgreSQL asset repository
func NewAssetPostgres(pool *pgxpool.Pool) *AssetPostgres {
	return &AssetPostgres{pool: pool}
}

// Create inserts a new asset
func (r *AssetPostgres) Create(ctx context.Context, a *entity.Asset) error {
	checklist, links, err := encodeJSONColumns(a)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO assets (
			name, type, category, content_type, repository, file_url, file_key,
			status, workflow_stage, qc_status, qc_checklist_items, rework_count, linking_active,
			created_by, designed_by, verified_by, static_service_links,
			seo_score, grammar_score, ai_plagiarism_score, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $21)
		RETURNING id, created_at, updated_at, version
	`

	now := time.Now()
	err = r.pool.QueryRow(ctx, query,
		a.Name,
		a.Type,
		a.Category,
		a.ContentType,
		a.Repository,
		a.FileURL,
		a.FileKey,
		a.Status,
		a.WorkflowStage,
		a.QCStatus,
		checklist,
		a.ReworkCount,
		a.LinkingActive,
		a.CreatedBy,
		a.DesignedBy,
		a.VerifiedBy,
		links,
		a.SEOScore,
		a.GrammarScore,
		a.AIPlagiarismScore,
		now,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &a.Version)
	if err != nil {
		return fmt.Errorf("inserting asset: %w", err)
	}

	return nil
}

// GetByID retrieves an asset by ID
func (r *AssetPostgres) GetByID(ctx context.Context, id int64) (*entity.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	a, err := scanAsset(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}

	return a, nil
}

// Save updates the asset row guarded by its expected status and the version it was read at
func (r *AssetPostgres) Save(ctx context.Context, a *entity.Asset, expected entity.Status) (bool, error) {
	checklist, links, err := encodeJSONColumns(a)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE assets
		SET name = $3, type = $4, category = $5, content_type = $6, repository = $7,
		    file_url = $8, file_key = $9,
		    status = $10, workflow_stage = $11, qc_status = $12,
		    qc_reviewer_id = $13, qc_reviewed_at = $14, qc_score = $15, qc_remarks = $16,
		    qc_checklist_items = $17, rework_count = $18, linking_active = $19,
		    submitted_by = $20, submitted_at = $21, designed_by = $22,
		    published_by = $23, published_at = $24, verified_by = $25,
		    seo_score = $26, grammar_score = $27, ai_plagiarism_score = $28,
		    static_service_links = $29, updated_at = $30,
		    version = version + 1
		WHERE id = $1 AND status = $2 AND version = $31
	`

	now := time.Now()
	result, err := r.pool.Exec(ctx, query,
		a.ID,
		expected,
		a.Name,
		a.Type,
		a.Category,
		a.ContentType,
		a.Repository,
		a.FileURL,
		a.FileKey,
		a.Status,
		a.WorkflowStage,
		a.QCStatus,
		a.QCReviewerID,
		a.QCReviewedAt,
		a.QCScore,
		a.QCRemarks,
		checklist,
		a.ReworkCount,
		a.LinkingActive,
		a.SubmittedBy,
		a.SubmittedAt,
		a.DesignedBy,
		a.PublishedBy,
		a.PublishedAt,
		a.VerifiedBy,
		a.SEOScore,
		a.GrammarScore,
		a.AIPlagiarismScore,
		links,
		now,
		a.Version,
	)
	if err != nil {
		return false, fmt.Errorf("updating asset: %w", err)
	}

	if result.RowsAffected() == 0 {
		return false, nil
	}

	a.UpdatedAt = now
	a.Version++
	return true, nil
}

// List retrieves assets with filtering
func (r *AssetPostgres) List(ctx context.Context, filter AssetFilter, opts ListOptions) ([]entity.Asset, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + assetColumns + ` FROM assets` + where
	argNum := len(args) + 1

	// Sorting
	sortCol, ok := sortColumns[opts.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := "ASC"
	if opts.Desc {
		order = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id %s", sortCol, order, order)

	// Pagination
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, opts.Limit)
		argNum++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, opts.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	var assets []entity.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}

	return assets, nil
}

// Count returns the total count of assets matching the filter
func (r *AssetPostgres) Count(ctx context.Context, filter AssetFilter) (int64, error) {
	where, args := buildWhere(filter)

	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM assets"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting assets: %w", err)
	}

	return count, nil
}

// Exists reports whether an asset row exists
func (r *AssetPostgres) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM assets WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking asset: %w", err)
	}
	return exists, nil
}

// ListQCSnapshots returns qc_status and qc_score for every asset
func (r *AssetPostgres) ListQCSnapshots(ctx context.Context) ([]entity.QCSnapshot, error) {
	rows, err := r.pool.Query(ctx, "SELECT qc_status, qc_score FROM assets")
	if err != nil {
		return nil, fmt.Errorf("querying qc snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []entity.QCSnapshot
	for rows.Next() {
		var s entity.QCSnapshot
		if err := rows.Scan(&s.QCStatus, &s.QCScore); err != nil {
			return nil, fmt.Errorf("scanning qc snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating qc snapshots: %w", err)
	}

	return snapshots, nil
}

func buildWhere(filter AssetFilter) (string, []any) {
	var conds []string
	var args []any
	argNum := 1

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", argNum))
		args = append(args, statuses)
		argNum++
	}

	if filter.QCStatus != nil {
		conds = append(conds, fmt.Sprintf("qc_status = $%d", argNum))
		args = append(args, *filter.QCStatus)
		argNum++
	}

	if filter.Type != "" {
		conds = append(conds, fmt.Sprintf("type = $%d", argNum))
		args = append(args, filter.Type)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanAsset(row pgx.Row) (*entity.Asset, error) {
	var a entity.Asset
	var checklist, links []byte

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Type,
		&a.Category,
		&a.ContentType,
		&a.Repository,
		&a.FileURL,
		&a.FileKey,
		&a.Status,
		&a.WorkflowStage,
		&a.QCStatus,
		&a.QCReviewerID,
		&a.QCReviewedAt,
		&a.QCScore,
		&a.QCRemarks,
		&checklist,
		&a.ReworkCount,
		&a.LinkingActive,
		&a.SubmittedBy,
		&a.SubmittedAt,
		&a.CreatedBy,
		&a.DesignedBy,
		&a.PublishedBy,
		&a.PublishedAt,
		&a.VerifiedBy,
		&links,
		&a.SEOScore,
		&a.GrammarScore,
		&a.AIPlagiarismScore,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.Version,
	)
	if err != nil {
		return nil, err
	}

	if len(checklist) > 0 {
		if err := json.Unmarshal(checklist, &a.QCChecklistItems); err != nil {
			return nil, fmt.Errorf("decoding qc_checklist_items: %w", err)
		}
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &a.StaticServiceLinks); err != nil {
			return nil, fmt.Errorf("decoding static_service_links: %w", err)
		}
	}
	a.Normalize()

	return &a, nil
}

func encodeJSONColumns(a *entity.Asset) (checklist, links []byte, err error) {
	a.Normalize()
	checklist, err = json.Marshal(a.QCChecklistItems)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding qc_checklist_items: %w", err)
	}
	links, err = json.Marshal(a.StaticServiceLinks)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding static_service_links: %w", err)
	}
	return checklist, links, nil
}
