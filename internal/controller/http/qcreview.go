package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vadim/asset-qc/internal/domain/asset/entity"
	"github.com/vadim/asset-qc/internal/domain/asset/policy"
	"github.com/vadim/asset-qc/internal/httpx/request"
	"github.com/vadim/asset-qc/internal/httpx/response"
)

// QCReviewPolicy defines the interface for QC review operations
// Interface is defined by consumer (handler), not provider (policy)
type QCReviewPolicy interface {
	ListPending(ctx context.Context, filter policy.PendingFilter, limit int) ([]entity.Asset, error)
	GetStatistics(ctx context.Context) (*entity.QCStatistics, error)
	Approve(ctx context.Context, in policy.ReviewInput) (*entity.Asset, error)
	Reject(ctx context.Context, in policy.ReviewInput) (*entity.Asset, error)
	RequestRework(ctx context.Context, in policy.ReviewInput) (*entity.Asset, error)
}

// QCReviewHandler handles HTTP requests for the QC review queue
type QCReviewHandler struct {
	policy QCReviewPolicy
	logger *zap.Logger
}

// NewQCReviewHandler creates a new QC review handler
func NewQCReviewHandler(p QCReviewPolicy, logger *zap.Logger) *QCReviewHandler {
	return &QCReviewHandler{policy: p, logger: logger}
}

// RegisterRoutes registers QC review routes
func (h *QCReviewHandler) RegisterRoutes(r chi.Router) {
	r.Route("/qc-review", func(r chi.Router) {
		r.Get("/pending", h.ListPending())
		r.Get("/statistics", h.Statistics())
		r.Post("/assets/{id}/approve", h.Approve())
		r.Post("/assets/{id}/reject", h.Reject())
		r.Post("/assets/{id}/rework", h.RequestRework())
	})
}

// PendingResponse represents the review queue listing
type PendingResponse struct {
	Assets []entity.Asset `json:"assets"`
	Count  int            `json:"count"`
}

// ListPending handles GET /qc-review/pending
func (h *QCReviewHandler) ListPending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := request.QueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		filter := policy.PendingFilter(r.URL.Query().Get("status"))
		assets, err := h.policy.ListPending(r.Context(), filter, limit)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, PendingResponse{Assets: assets, Count: len(assets)})
	}
}

// Statistics handles GET /qc-review/statistics
func (h *QCReviewHandler) Statistics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.policy.GetStatistics(r.Context())
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, stats)
	}
}

// ChecklistItemRequest represents one scored checklist line
type ChecklistItemRequest struct {
	ItemName string `json:"item_name"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
	Result   string `json:"result"`
}

// ReviewRequest represents the request body of a reviewer decision.
// Score and checklist ranges are checked by the asset after its status,
// so a decision on a missing or already decided asset reports that first.
type ReviewRequest struct {
	AssetID          int64                  `json:"asset_id"`
	QCRemarks        string                 `json:"qc_remarks"`
	QCScore          *int                   `json:"qc_score"`
	QCChecklistItems []ChecklistItemRequest `json:"qc_checklist_items"`
}

// Approve handles POST /qc-review/assets/{id}/approve
func (h *QCReviewHandler) Approve() http.HandlerFunc {
	return h.review(h.policy.Approve)
}

// Reject handles POST /qc-review/assets/{id}/reject
func (h *QCReviewHandler) Reject() http.HandlerFunc {
	return h.review(h.policy.Reject)
}

// RequestRework handles POST /qc-review/assets/{id}/rework
func (h *QCReviewHandler) RequestRework() http.HandlerFunc {
	return h.review(h.policy.RequestRework)
}

func (h *QCReviewHandler) review(decide func(context.Context, policy.ReviewInput) (*entity.Asset, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(chi.URLParam(r, "id"), "id")
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		reviewerID, err := request.UserID(r)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		var req ReviewRequest
		if err := request.DecodeJSON(r, &req); err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}
		if req.AssetID != 0 && req.AssetID != id {
			response.ErrorWithBody(w, http.StatusBadRequest, response.ErrorBody{
				Error: "asset_id does not match the asset in the path",
				Field: "asset_id",
			})
			return
		}

		var checklist []entity.ChecklistItem
		if req.QCChecklistItems != nil {
			checklist = make([]entity.ChecklistItem, len(req.QCChecklistItems))
			for i, item := range req.QCChecklistItems {
				checklist[i] = entity.ChecklistItem{
					ItemName: item.ItemName,
					Score:    item.Score,
					MaxScore: item.MaxScore,
					Result:   item.Result,
				}
			}
		}

		a, err := decide(r.Context(), policy.ReviewInput{
			AssetID:    id,
			ReviewerID: reviewerID,
			Remarks:    req.QCRemarks,
			Score:      req.QCScore,
			Checklist:  checklist,
		})
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, a)
	}
}
