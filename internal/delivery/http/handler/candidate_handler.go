package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/usecase/feed"
)

type CandidateHandler struct {
	feedUseCase *feed.FeedUseCase
	logger      *zap.Logger
}

func NewCandidateHandler(feedUseCase *feed.FeedUseCase, logger *zap.Logger) *CandidateHandler {
	return &CandidateHandler{
		feedUseCase: feedUseCase,
		logger:      logger,
	}
}

// CandidateQuery holds the query string of GET /candidates. Exclude accepts
// both repeated parameters and comma separated lists.
type CandidateQuery struct {
	Count   int      `form:"count" binding:"omitempty,min=1,max=100"`
	Status  []string `form:"status" binding:"omitempty,dive,status_category"`
	Country string   `form:"country" binding:"omitempty,max=64"`
	City    string   `form:"city" binding:"omitempty,max=128"`
	Exclude []string `form:"exclude"`
}

// GetCandidates handles GET /candidates
// @Summary Get candidate batch
// @Description Ranked batch of candidates the viewer has not decided on yet
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Param count query int false "Batch size"
// @Param status query []string false "Status categories"
// @Param country query string false "Country"
// @Param city query string false "City"
// @Param exclude query []int false "Profile ids to skip"
// @Success 200 {object} feed.Batch
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /candidates [get]
func (h *CandidateHandler) GetCandidates(c *gin.Context) {
	viewerID, ok := requireViewer(c)
	if !ok {
		return
	}

	var q CandidateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	statuses := make([]domain.StatusCategory, 0, len(q.Status))
	for _, s := range q.Status {
		statuses = append(statuses, domain.StatusCategory(s))
	}

	var exclude []int64
	for _, s := range splitValues(q.Exclude) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "invalid exclude id: "+s)
			return
		}
		exclude = append(exclude, id)
	}

	batch, err := h.feedUseCase.GetCandidateBatch(c.Request.Context(), viewerID, feed.BatchRequest{
		Filter: domain.CandidateFilter{
			Statuses: statuses,
			Country:  q.Country,
			City:     q.City,
		},
		ExcludeIDs: exclude,
		Count:      q.Count,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
