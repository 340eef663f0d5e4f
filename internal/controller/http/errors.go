package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vadim/asset-qc/internal/domain/asset/entity"
	"github.com/vadim/asset-qc/internal/domain/asset/policy"
	"github.com/vadim/asset-qc/internal/httpx/request"
	"github.com/vadim/asset-qc/internal/httpx/response"
)

func handleDomainError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var (
		vErr     *entity.ValidationError
		fieldErr *request.FieldError
		stateErr *entity.InvalidStateTransitionError
	)

	switch {
	case errors.As(err, &vErr):
		response.ErrorWithBody(w, http.StatusBadRequest, response.ErrorBody{Error: vErr.Message, Field: vErr.Field})
	case errors.As(err, &fieldErr):
		response.ErrorWithBody(w, http.StatusBadRequest, response.ErrorBody{Error: fieldErr.Error(), Field: fieldErr.Field})
	case errors.Is(err, entity.ErrAssetNotFound):
		response.NotFound(w, err.Error())
	case errors.As(err, &stateErr):
		response.ErrorWithBody(w, http.StatusConflict, response.ErrorBody{
			Error:         stateErr.Error(),
			CurrentStatus: string(stateErr.Current),
			Attempted:     string(stateErr.Attempted),
		})
	case errors.Is(err, entity.ErrConcurrentUpdate):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, policy.ErrStorageDisabled):
		response.ServiceUnavailable(w, err.Error())
	default:
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		response.InternalError(w, "internal server error")
	}
}
