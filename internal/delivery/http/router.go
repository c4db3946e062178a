package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http/middleware"
)

type Router struct {
	candidateHandler    *handler.CandidateHandler
	swipeHandler        *handler.SwipeHandler
	notificationHandler *handler.NotificationHandler
	viewerAuth          *middleware.ViewerAuth
	logger              *zap.Logger
}

func NewRouter(
	candidateHandler *handler.CandidateHandler,
	swipeHandler *handler.SwipeHandler,
	notificationHandler *handler.NotificationHandler,
	viewerAuth *middleware.ViewerAuth,
	logger *zap.Logger,
) *Router {
	return &Router{
		candidateHandler:    candidateHandler,
		swipeHandler:        swipeHandler,
		notificationHandler: notificationHandler,
		viewerAuth:          viewerAuth,
		logger:              logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(r.logger))

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(r.viewerAuth.RequireViewer())
	{
		v1.GET("/candidates", r.candidateHandler.GetCandidates)
		v1.POST("/swipes", r.swipeHandler.CreateSwipe)

		matches := v1.Group("/matches")
		{
			matches.GET("", r.swipeHandler.ListMatches)
			matches.GET("/:target_id/exists", r.swipeHandler.MatchExists)
		}

		if r.notificationHandler != nil {
			v1.GET("/ws", r.notificationHandler.Stream)
		}
	}

	return router
}
