package handlers

import (
	"net/http"

	"workdesk/internal/models"
	"workdesk/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TicketHandler 服务台工单处理器
type TicketHandler struct {
	tickets *services.TicketService
	logger  *logrus.Logger
}

// NewTicketHandler 创建工单处理器
func NewTicketHandler(tickets *services.TicketService, logger *logrus.Logger) *TicketHandler {
	return &TicketHandler{tickets: tickets, logger: defaultLogger(logger)}
}

// TicketTransitionRequest 工单状态流转请求
type TicketTransitionRequest struct {
	Status models.TicketStatus `json:"status" binding:"required"`
}

// SignatureRequest 签名请求
type SignatureRequest struct {
	URL string `json:"url" binding:"required"`
}

// Create 创建工单
// @Router /api/v1/tickets [post]
func (h *TicketHandler) Create(c *gin.Context) {
	var req services.TicketCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ticket, err := h.tickets.Create(c.Request.Context(), &req, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to create ticket", err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// Get 获取工单详情
func (h *TicketHandler) Get(c *gin.Context) {
	ticket, err := h.tickets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "Ticket not available", err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Transition 工单状态流转
func (h *TicketHandler) Transition(c *gin.Context) {
	var req TicketTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ticket, err := h.tickets.Transition(c.Request.Context(), c.Param("id"), req.Status, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to transition ticket", err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// AttachSignature 上传签名
func (h *TicketHandler) AttachSignature(c *gin.Context) {
	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ticket, err := h.tickets.AttachSignature(c.Request.Context(), c.Param("id"), req.URL, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to attach signature", err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// AddComment 添加工单回复
func (h *TicketHandler) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ticket, err := h.tickets.AddComment(c.Request.Context(), c.Param("id"), req.Text, req.Visibility, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to add comment", err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// RegisterTicketRoutes 注册工单路由
func RegisterTicketRoutes(r *gin.RouterGroup, h *TicketHandler) {
	tickets := r.Group("/tickets")
	{
		tickets.POST("", h.Create)
		tickets.GET("/:id", h.Get)
		tickets.POST("/:id/transitions", h.Transition)
		tickets.PUT("/:id/signature", h.AttachSignature)
		tickets.POST("/:id/comments", h.AddComment)
	}
}
