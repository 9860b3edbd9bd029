package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"workdesk/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	db      *gorm.DB
	hub     *services.NotificationHub
	version string
	started time.Time
	logger  *logrus.Logger
}

// NewHealthHandler 创建健康检查处理器；hub 可以为 nil
func NewHealthHandler(db *gorm.DB, hub *services.NotificationHub, version string, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		hub:     hub,
		version: version,
		started: time.Now(),
		logger:  defaultLogger(logger),
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]ServiceInfo `json:"services"`
	System    SystemInfo             `json:"system"`
}

// ServiceInfo 依赖服务状态
type ServiceInfo struct {
	Status  string      `json:"status"`
	Latency string      `json:"latency,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// SystemInfo 系统信息
type SystemInfo struct {
	Uptime    string `json:"uptime"`
	GoVersion string `json:"go_version"`
}

// Health 健康检查端点。数据库不可用时返回 503
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: time.Now(),
		Services:  make(map[string]ServiceInfo),
		System: SystemInfo{
			Uptime:    time.Since(h.started).Round(time.Second).String(),
			GoVersion: runtime.Version(),
		},
	}

	db := h.checkDatabase(ctx)
	response.Services["database"] = db
	if db.Status != "healthy" {
		response.Status = "unhealthy"
	}

	if h.hub != nil {
		response.Services["realtime"] = ServiceInfo{
			Status:  "healthy",
			Details: map[string]interface{}{"client_count": h.hub.ClientCount()},
		}
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

// Ready 就绪检查端点，只检查数据库
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	db := h.checkDatabase(ctx)
	ready := db.Status == "healthy"
	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, gin.H{
		"ready":     ready,
		"timestamp": time.Now(),
		"services":  map[string]string{"database": db.Status},
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	start := time.Now()
	if h.db == nil {
		return ServiceInfo{Status: "unhealthy", Error: "database connection not initialized"}
	}
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	info := ServiceInfo{
		Status:  "healthy",
		Latency: time.Since(start).String(),
		Details: map[string]interface{}{"driver": h.db.Dialector.Name()},
	}
	if err != nil {
		h.logger.Warnf("Database health check failed: %v", err)
		info.Status = "unhealthy"
		info.Error = err.Error()
	}
	return info
}

// RegisterHealthRoutes 注册健康检查路由
func RegisterHealthRoutes(r gin.IRouter, h *HealthHandler) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}
