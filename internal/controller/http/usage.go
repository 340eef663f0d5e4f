package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vadim/asset-qc/internal/domain/usage/entity"
	"github.com/vadim/asset-qc/internal/httpx/request"
	"github.com/vadim/asset-qc/internal/httpx/response"
)

// UsageProvider defines the interface for asset usage lookups
type UsageProvider interface {
	GetUsage(ctx context.Context, assetID int64) (*entity.Usage, error)
}

// UsageHandler handles HTTP requests for asset usage
type UsageHandler struct {
	usage  UsageProvider
	logger *zap.Logger
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(u UsageProvider, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{usage: u, logger: logger}
}

// RegisterRoutes registers usage routes
func (h *UsageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/assets/{id}/usage", h.Get())
}

// Get handles GET /assets/{id}/usage
func (h *UsageHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(chi.URLParam(r, "id"), "id")
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		usage, err := h.usage.GetUsage(r.Context(), id)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, usage)
	}
}
