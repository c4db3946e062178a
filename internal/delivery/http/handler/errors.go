package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const (
	CodeUnauthorized       = "unauthorized"
	CodeBadRequest         = "bad_request"
	CodeNotFound           = "not_found"
	CodeInvalidDecision    = "invalid_decision"
	CodeRateLimited        = "rate_limited"
	CodeConflict           = "conflict"
	CodeServiceUnavailable = "service_unavailable"
	CodeInternal           = "internal_error"
)

// respondError maps engine errors onto HTTP statuses. Unknown errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, resp := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

func errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "profile not found", Code: CodeNotFound}
	case errors.Is(err, domain.ErrMatchNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "match not found", Code: CodeNotFound}
	case errors.Is(err, domain.ErrInvalidDecision):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidDecision}
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{Error: "daily like quota exceeded", Code: CodeRateLimited}
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict, ErrorResponse{Error: "concurrent update, try again", Code: CodeConflict}
	case errors.Is(err, domain.ErrTransientStorage), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "storage temporarily unavailable", Code: CodeServiceUnavailable}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: CodeInternal}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeBadRequest})
}

func requireViewer(c *gin.Context) (int64, bool) {
	id, ok := middleware.ViewerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: CodeUnauthorized})
		return 0, false
	}
	return id, true
}
