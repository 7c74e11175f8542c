package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// SyncHandler triggers sync cycles and exposes their notifications.
type SyncHandler struct {
	sync          *app.SyncService
	notifications *app.Notifications
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(sync *app.SyncService, notifications *app.Notifications) *SyncHandler {
	return &SyncHandler{sync: sync, notifications: notifications}
}

// Sync handles POST /api/v1/sync by running one cycle in the request.
// A failed fetch is a 503; a cycle skipped because another is running is a
// 200 with outcome "skipped".
func (h *SyncHandler) Sync(c *gin.Context) {
	result, err := h.sync.Sync(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SyncResponse{Outcome: result.Outcome, Count: result.Count})
}

// LatestNotification handles GET /api/v1/notifications/latest.
func (h *SyncHandler) LatestNotification(c *gin.Context) {
	note, ok := h.notifications.Latest()
	if !ok {
		dto.HandleError(c, domain.NewNotFoundError("notification", "latest"))
		return
	}

	c.JSON(http.StatusOK, dto.NotificationResponse{
		Message: note.Message,
		At:      note.At.Format(time.RFC3339),
	})
}

// RegisterSyncRoutes registers the sync routes. Writes go through write.
func (h *SyncHandler) RegisterSyncRoutes(rg *gin.RouterGroup, write ...gin.HandlerFunc) {
	rg.GET("/notifications/latest", h.LatestNotification)
	rg.Group("", write...).POST("/sync", h.Sync)
}
