package handlers

import (
	"net/http"

	"workdesk/internal/models"
	"workdesk/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WorkItemHandler 工作项处理器
type WorkItemHandler struct {
	workItems *services.WorkItemService
	logger    *logrus.Logger
}

// NewWorkItemHandler 创建工作项处理器
func NewWorkItemHandler(workItems *services.WorkItemService, logger *logrus.Logger) *WorkItemHandler {
	return &WorkItemHandler{workItems: workItems, logger: defaultLogger(logger)}
}

// StatusUpdateRequest 状态变更请求
type StatusUpdateRequest struct {
	Status models.WorkItemStatus `json:"status" binding:"required"`
	Force  bool                  `json:"force"`
}

// CommentRequest 评论请求
type CommentRequest struct {
	Text       string                   `json:"text" binding:"required"`
	Visibility models.CommentVisibility `json:"visibility"`
}

// DecisionRequest 审批决定请求
type DecisionRequest struct {
	Decision models.Decision `json:"decision" binding:"required"`
	Comments string          `json:"comments"`
}

// Create 创建工作项
// @Summary 创建工作项
// @Tags 工作项
// @Accept json
// @Produce json
// @Param item body services.CreateWorkItemRequest true "工作项"
// @Success 201 {object} models.WorkItem
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/work-items [post]
func (h *WorkItemHandler) Create(c *gin.Context) {
	var req services.CreateWorkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.workItems.Create(c.Request.Context(), &req, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to create work item", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Get 获取工作项详情
func (h *WorkItemHandler) Get(c *gin.Context) {
	item, err := h.workItems.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "Work item not available", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateStatus 变更工作项状态
// @Router /api/v1/work-items/{id}/status [patch]
func (h *WorkItemHandler) UpdateStatus(c *gin.Context) {
	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.workItems.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, actorOf(c), req.Force)
	if err != nil {
		respondError(c, h.logger, "Failed to update status", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// AddComment 添加评论
// @Router /api/v1/work-items/{id}/comments [post]
func (h *WorkItemHandler) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.workItems.AddComment(c.Request.Context(), c.Param("id"), req.Text, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to add comment", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Decide 提交审批决定
// @Router /api/v1/work-items/{id}/approvals/{stepId} [post]
func (h *WorkItemHandler) Decide(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.workItems.SubmitApprovalDecision(c.Request.Context(), c.Param("id"), c.Param("stepId"), req.Decision, req.Comments, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to record decision", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// RegisterWorkItemRoutes 注册工作项路由
func RegisterWorkItemRoutes(r *gin.RouterGroup, h *WorkItemHandler) {
	items := r.Group("/work-items")
	{
		items.POST("", h.Create)
		items.GET("/:id", h.Get)
		items.PATCH("/:id/status", h.UpdateStatus)
		items.POST("/:id/comments", h.AddComment)
		items.POST("/:id/approvals/:stepId", h.Decide)
	}
}
