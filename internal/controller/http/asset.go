package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vadim/asset-qc/internal/domain/asset/entity"
	"github.com/vadim/asset-qc/internal/domain/asset/policy"
	"github.com/vadim/asset-qc/internal/domain/asset/service"
	"github.com/vadim/asset-qc/internal/httpx/request"
	"github.com/vadim/asset-qc/internal/httpx/response"
	"github.com/vadim/asset-qc/internal/storage"
)

// AssetPolicy defines the interface for asset catalog operations
// Interface is defined by consumer (handler), not provider (policy)
type AssetPolicy interface {
	CreateAsset(ctx context.Context, in service.CreateInput) (*entity.Asset, error)
	UpdateAsset(ctx context.Context, in service.UpdateInput) (*entity.Asset, error)
	GetAsset(ctx context.Context, id int64) (*entity.Asset, error)
	ListAssets(ctx context.Context, in service.ListInput) (*service.ListOutput, error)
	UploadFile(ctx context.Context, in policy.UploadFileInput) (*entity.Asset, error)
	Submit(ctx context.Context, id int64, submittedBy *int64) (*entity.Asset, error)
	Publish(ctx context.Context, id int64, publishedBy *int64) (*entity.Asset, error)
	Archive(ctx context.Context, id int64) (*entity.Asset, error)
}

// AssetHandler handles HTTP requests for the asset catalog
type AssetHandler struct {
	policy AssetPolicy
	logger *zap.Logger
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(p AssetPolicy, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{policy: p, logger: logger}
}

// RegisterRoutes registers asset routes
func (h *AssetHandler) RegisterRoutes(r chi.Router) {
	r.Post("/assets", h.Create())
	r.Get("/assets", h.List())
	r.Get("/assets/{id}", h.Get())
	r.Put("/assets/{id}", h.Update())
	r.Post("/assets/{id}/file", h.UploadFile())
	r.Post("/assets/{id}/submit", h.Submit())
	r.Post("/assets/{id}/publish", h.Publish())
	r.Post("/assets/{id}/archive", h.Archive())
}

// StaticServiceLinkRequest links an asset to a service or sub-service
type StaticServiceLinkRequest struct {
	ServiceID    *int64 `json:"service_id" validate:"omitempty,min=1"`
	SubServiceID *int64 `json:"sub_service_id" validate:"omitempty,min=1"`
	Type         string `json:"type" validate:"required,oneof=service sub_service"`
}

// CreateAssetRequest represents the request body for creating an asset
type CreateAssetRequest struct {
	Name               string                     `json:"name" validate:"required,max=255"`
	Type               string                     `json:"type" validate:"max=100"`
	Category           string                     `json:"category" validate:"max=100"`
	ContentType        string                     `json:"content_type" validate:"max=100"`
	Repository         string                     `json:"repository" validate:"max=255"`
	WorkflowStage      string                     `json:"workflow_stage"`
	DesignedBy         *int64                     `json:"designed_by" validate:"omitempty,min=1"`
	VerifiedBy         *int64                     `json:"verified_by" validate:"omitempty,min=1"`
	StaticServiceLinks []StaticServiceLinkRequest `json:"static_service_links" validate:"dive"`
	SEOScore           *int                       `json:"seo_score" validate:"omitempty,min=0,max=100"`
	GrammarScore       *int                       `json:"grammar_score" validate:"omitempty,min=0,max=100"`
	AIPlagiarismScore  *int                       `json:"ai_plagiarism_score" validate:"omitempty,min=0,max=100"`
}

// Create handles POST /assets
func (h *AssetHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := request.UserID(r)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		var req CreateAssetRequest
		if err := request.DecodeJSON(r, &req); err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		links := make([]entity.StaticServiceLink, len(req.StaticServiceLinks))
		for i, l := range req.StaticServiceLinks {
			links[i] = entity.StaticServiceLink{
				ServiceID:    l.ServiceID,
				SubServiceID: l.SubServiceID,
				Type:         l.Type,
			}
		}

		a, err := h.policy.CreateAsset(r.Context(), service.CreateInput{
			Name:               strings.TrimSpace(req.Name),
			Type:               req.Type,
			Category:           req.Category,
			ContentType:        req.ContentType,
			Repository:         req.Repository,
			WorkflowStage:      entity.WorkflowStage(req.WorkflowStage),
			CreatedBy:          userID,
			DesignedBy:         req.DesignedBy,
			VerifiedBy:         req.VerifiedBy,
			StaticServiceLinks: links,
			SEOScore:           req.SEOScore,
			GrammarScore:       req.GrammarScore,
			AIPlagiarismScore:  req.AIPlagiarismScore,
		})
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.Created(w, a)
	}
}

// UpdateAssetRequest represents the request body for updating asset metadata
type UpdateAssetRequest struct {
	Name              *string `json:"name" validate:"omitempty,max=255"`
	Type              *string `json:"type" validate:"omitempty,max=100"`
	Category          *string `json:"category" validate:"omitempty,max=100"`
	ContentType       *string `json:"content_type" validate:"omitempty,max=100"`
	Repository        *string `json:"repository" validate:"omitempty,max=255"`
	WorkflowStage     *string `json:"workflow_stage"`
	DesignedBy        *int64  `json:"designed_by" validate:"omitempty,min=1"`
	VerifiedBy        *int64  `json:"verified_by" validate:"omitempty,min=1"`
	SEOScore          *int    `json:"seo_score" validate:"omitempty,min=0,max=100"`
	GrammarScore      *int    `json:"grammar_score" validate:"omitempty,min=0,max=100"`
	AIPlagiarismScore *int    `json:"ai_plagiarism_score" validate:"omitempty,min=0,max=100"`
}

// Update handles PUT /assets/{id}
func (h *AssetHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(chi.URLParam(r, "id"), "id")
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		var req UpdateAssetRequest
		if err := request.DecodeJSON(r, &req); err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		var stage *entity.WorkflowStage
		if req.WorkflowStage != nil {
			s := entity.WorkflowStage(*req.WorkflowStage)
			stage = &s
		}

		a, err := h.policy.UpdateAsset(r.Context(), service.UpdateInput{
			ID:                id,
			Name:              req.Name,
			Type:              req.Type,
			Category:          req.Category,
			ContentType:       req.ContentType,
			Repository:        req.Repository,
			WorkflowStage:     stage,
			DesignedBy:        req.DesignedBy,
			VerifiedBy:        req.VerifiedBy,
			SEOScore:          req.SEOScore,
			GrammarScore:      req.GrammarScore,
			AIPlagiarismScore: req.AIPlagiarismScore,
		})
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, a)
	}
}

// Get handles GET /assets/{id}
func (h *AssetHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(chi.URLParam(r, "id"), "id")
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		a, err := h.policy.GetAsset(r.Context(), id)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, a)
	}
}

// ListAssetsResponse represents the response for listing assets
type ListAssetsResponse struct {
	Assets []entity.Asset `json:"assets"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// List handles GET /assets
func (h *AssetHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var statuses []entity.Status
		for _, s := range q["status"] {
			status := entity.Status(s)
			if !entity.IsValidStatus(status) {
				response.ErrorWithBody(w, http.StatusBadRequest, response.ErrorBody{Error: "invalid status", Field: "status"})
				return
			}
			statuses = append(statuses, status)
		}

		var qcStatus *entity.QCStatus
		if s := q.Get("qc_status"); s != "" {
			qs := entity.QCStatus(s)
			if !entity.IsValidQCStatus(qs) {
				response.ErrorWithBody(w, http.StatusBadRequest, response.ErrorBody{Error: "invalid qc_status", Field: "qc_status"})
				return
			}
			qcStatus = &qs
		}

		limit, err := request.QueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}
		offset, err := request.QueryInt(r, "offset", 0, 0, 1<<31-1)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		out, err := h.policy.ListAssets(r.Context(), service.ListInput{
			Statuses: statuses,
			QCStatus: qcStatus,
			Type:     q.Get("type"),
			Limit:    limit,
			Offset:   offset,
			SortBy:   q.Get("sort_by"),
			Asc:      q.Get("order") == "asc",
		})
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, ListAssetsResponse{
			Assets: out.Assets,
			Total:  out.Total,
			Limit:  limit,
			Offset: offset,
		})
	}
}

// UploadFile handles POST /assets/{id}/file
func (h *AssetHandler) UploadFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(chi.URLParam(r, "id"), "id")
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, storage.MaxFileSize+(1<<20))
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(w, http.StatusRequestEntityTooLarge, "file exceeds 50MB limit")
				return
			}
			response.ErrorWithBody(w, http.StatusBadRequest, response.ErrorBody{Error: "invalid multipart form", Field: "file"})
			return
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			response.ErrorWithBody(w, http.StatusBadRequest, response.ErrorBody{Error: "file is required", Field: "file"})
			return
		}
		defer file.Close()

		if header.Size > storage.MaxFileSize {
			response.Error(w, http.StatusRequestEntityTooLarge, "file exceeds 50MB limit")
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			buf := make([]byte, 512)
			n, _ := file.Read(buf)
			contentType = http.DetectContentType(buf[:n])
			if _, err := file.Seek(0, 0); err != nil {
				handleDomainError(w, r, h.logger, err)
				return
			}
		}
		if !storage.IsAllowedContentType(contentType) {
			response.ErrorWithBody(w, http.StatusBadRequest, response.ErrorBody{
				Error: "unsupported content type " + contentType,
				Field: "file",
			})
			return
		}

		a, err := h.policy.UploadFile(r.Context(), policy.UploadFileInput{
			AssetID: id,
			File: policy.FileUpload{
				Reader:      file,
				ContentType: contentType,
				Size:        header.Size,
				Filename:    header.Filename,
			},
		})
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, a)
	}
}

// Submit handles POST /assets/{id}/submit
func (h *AssetHandler) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, userID, ok := h.idAndUser(w, r)
		if !ok {
			return
		}

		a, err := h.policy.Submit(r.Context(), id, userID)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, a)
	}
}

// Publish handles POST /assets/{id}/publish
func (h *AssetHandler) Publish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, userID, ok := h.idAndUser(w, r)
		if !ok {
			return
		}

		a, err := h.policy.Publish(r.Context(), id, userID)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, a)
	}
}

// Archive handles POST /assets/{id}/archive
func (h *AssetHandler) Archive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(chi.URLParam(r, "id"), "id")
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		a, err := h.policy.Archive(r.Context(), id)
		if err != nil {
			handleDomainError(w, r, h.logger, err)
			return
		}

		response.OK(w, a)
	}
}

func (h *AssetHandler) idAndUser(w http.ResponseWriter, r *http.Request) (int64, *int64, bool) {
	id, err := request.PathID(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, r, h.logger, err)
		return 0, nil, false
	}
	userID, err := request.UserID(r)
	if err != nil {
		handleDomainError(w, r, h.logger, err)
		return 0, nil, false
	}
	return id, userID, true
}
