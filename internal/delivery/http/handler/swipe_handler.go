package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/usecase/swipe"
)

type SwipeHandler struct {
	swipeUseCase *swipe.SwipeUseCase
	logger       *zap.Logger
}

func NewSwipeHandler(swipeUseCase *swipe.SwipeUseCase, logger *zap.Logger) *SwipeHandler {
	return &SwipeHandler{
		swipeUseCase: swipeUseCase,
		logger:       logger,
	}
}

// CreateSwipe handles POST /swipes
// @Summary Record a swipe
// @Description Store the viewer's decision on a candidate and report a new match
// @Tags swipe
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body swipe.SwipeRequest true "Decision"
// @Success 200 {object} domain.DecisionResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /swipes [post]
func (h *SwipeHandler) CreateSwipe(c *gin.Context) {
	viewerID, ok := requireViewer(c)
	if !ok {
		return
	}

	var req swipe.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  CodeInvalidDecision,
		})
		return
	}

	result, err := h.swipeUseCase.RecordSwipe(c.Request.Context(), viewerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MatchExists handles GET /matches/:target_id/exists
// @Summary Check match
// @Tags match
// @Security BearerAuth
// @Produce json
// @Param target_id path int true "Other profile id"
// @Success 200 {object} MatchExistsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /matches/{target_id}/exists [get]
func (h *SwipeHandler) MatchExists(c *gin.Context) {
	viewerID, ok := requireViewer(c)
	if !ok {
		return
	}

	targetID, err := strconv.ParseInt(c.Param("target_id"), 10, 64)
	if err != nil || targetID <= 0 {
		badRequest(c, "invalid target_id")
		return
	}

	matched, err := h.swipeUseCase.CheckExistingMatch(c.Request.Context(), viewerID, targetID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MatchExistsResponse{Matched: matched})
}

type MatchExistsResponse struct {
	Matched bool `json:"matched"`
}

type ListMatchesQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

type MatchesResponse struct {
	Matches []*domain.Match `json:"matches"`
}

// ListMatches handles GET /matches
// @Summary List matches
// @Description Viewer's matches, newest first
// @Tags match
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} MatchesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /matches [get]
func (h *SwipeHandler) ListMatches(c *gin.Context) {
	viewerID, ok := requireViewer(c)
	if !ok {
		return
	}

	var q ListMatchesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	if q.Limit == 0 {
		q.Limit = 20
	}

	matches, err := h.swipeUseCase.ListMatches(c.Request.Context(), viewerID, q.Limit, q.Offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if matches == nil {
		matches = []*domain.Match{}
	}

	c.JSON(http.StatusOK, MatchesResponse{Matches: matches})
}
