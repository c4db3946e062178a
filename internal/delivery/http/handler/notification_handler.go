package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/notify"
)

type NotificationHandler struct {
	hub *notify.Hub
}

func NewNotificationHandler(hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// Stream handles GET /ws
// @Summary Match event stream
// @Description Websocket delivering the viewer's match events
// @Tags match
// @Security BearerAuth
// @Router /ws [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	viewerID, ok := requireViewer(c)
	if !ok {
		return
	}
	h.hub.ServeWS(c.Writer, c.Request, viewerID)
}
