package handlers

import (
	"net/http"

	"workdesk/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RuleHandler 自动化规则处理器
type RuleHandler struct {
	rules  *services.RuleService
	logger *logrus.Logger
}

func NewRuleHandler(rules *services.RuleService, logger *logrus.Logger) *RuleHandler {
	return &RuleHandler{rules: rules, logger: defaultLogger(logger)}
}

// RuleToggleRequest 启用/停用规则
type RuleToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *RuleHandler) List(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to list rules", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rules, "total": len(rules)})
}

func (h *RuleHandler) Create(c *gin.Context) {
	var req services.RuleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := h.rules.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "Failed to create rule", err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *RuleHandler) Toggle(c *gin.Context) {
	var req RuleToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := h.rules.SetEnabled(c.Request.Context(), c.Param("id"), *req.Enabled)
	if err != nil {
		respondError(c, h.logger, "Failed to update rule", err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// RegisterRuleRoutes 注册规则路由
func RegisterRuleRoutes(r *gin.RouterGroup, h *RuleHandler) {
	rules := r.Group("/automation-rules")
	{
		rules.GET("", h.List)
		rules.POST("", h.Create)
		rules.PATCH("/:id", h.Toggle)
	}
}
