package handlers

import (
	"net/http"

	"workdesk/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NotificationHandler 通知处理器
type NotificationHandler struct {
	notifications *services.NotificationService
	hub           *services.NotificationHub
	logger        *logrus.Logger
}

// NewNotificationHandler 创建通知处理器；hub 为 nil 时不注册 websocket 路由
func NewNotificationHandler(notifications *services.NotificationService, hub *services.NotificationHub, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, hub: hub, logger: defaultLogger(logger)}
}

// List 列出当前用户的通知
// @Param unread query bool false "仅未读"
// @Param limit query int false "数量上限"
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	unread := c.Query("unread") == "true" || c.Query("unread") == "1"
	list, err := h.notifications.List(c.Request.Context(), actorOf(c), unread, queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, h.logger, "Failed to list notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": len(list)})
}

// MarkRead 标记单条通知已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	n, err := h.notifications.MarkRead(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "Failed to mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// MarkAllRead 标记全部通知已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	count, err := h.notifications.MarkAllRead(c.Request.Context(), actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to mark notifications read", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Notifications marked as read", Data: gin.H{"updated": count}})
}

// Stats 实时连接统计
func (h *NotificationHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"client_count": h.hub.ClientCount()}})
}

// RegisterNotificationRoutes 注册通知路由
func RegisterNotificationRoutes(r *gin.RouterGroup, h *NotificationHandler) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.POST("/:id/read", h.MarkRead)
		if h.hub != nil {
			notifications.GET("/ws", h.hub.HandleWebSocket)
			notifications.GET("/ws/stats", h.Stats)
		}
	}
}
