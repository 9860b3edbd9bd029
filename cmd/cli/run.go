package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"workdesk/internal/clock"
	"workdesk/internal/config"
	"workdesk/internal/handlers"
	"workdesk/internal/metrics"
	"workdesk/internal/middleware"
	"workdesk/internal/observability"
	"workdesk/internal/services"
	"workdesk/internal/sla"
	"workdesk/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the workdesk API server",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	// OpenTelemetry 初始化（可选）
	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg)
	if err != nil {
		logger.Warnf("init tracing: %v", err)
	} else {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	if err := store.AutoMigrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := services.NewNotificationHub(logger)
	go hub.Run(ctx)

	if cfg.Monitoring.Enabled {
		go reportPoolStats(ctx, db, logger)
	}

	router := setupRouter(cfg, db, hub, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server exited")
	return nil
}

func setupRouter(cfg *config.Config, db *gorm.DB, hub *services.NotificationHub, logger *logrus.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	clk := clock.Real()

	notificationStore := store.NewNotificationStore(db)
	dispatcher := services.NewDispatcher(services.MultiSink{notificationStore, hub}, clk, cfg.Notification.Timeout, logger)
	ruleStore := store.NewRuleStore(db)
	policy := sla.FromHours(cfg.SLA.CriticalHours, cfg.SLA.HighHours, cfg.SLA.MediumHours, cfg.SLA.LowHours)

	workItems := services.NewWorkItemService(store.NewWorkItemStore(db), ruleStore, dispatcher, clk, logger,
		services.WorkItemOptions{AllowForce: cfg.Lifecycle.AllowForce})
	tickets := services.NewTicketService(store.NewTicketStore(db), dispatcher, policy, clk, logger)
	notifications := services.NewNotificationService(notificationStore, logger)
	rules := services.NewRuleService(ruleStore, clk, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Monitoring.Tracing.Enabled {
		router.Use(otelgin.Middleware(observability.ServiceName(cfg)))
	}
	router.Use(middleware.RequestLog(logger))
	if cfg.Security.CORS.Enabled {
		router.Use(middleware.CORS(cfg.Security.CORS))
	}
	if rl := cfg.Security.RateLimiting; rl.Enabled {
		router.Use(middleware.RateLimit(middleware.NewIPRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: rl.RequestsPerMinute,
			Burst:             rl.Burst,
		})))
	}
	router.Use(middleware.Actor())

	handlers.RegisterHealthRoutes(router, handlers.NewHealthHandler(db, hub, Version, logger))
	if cfg.Monitoring.Enabled {
		router.GET(cfg.Monitoring.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	api := router.Group("/api/v1")
	handlers.RegisterWorkItemRoutes(api, handlers.NewWorkItemHandler(workItems, logger))
	handlers.RegisterTicketRoutes(api, handlers.NewTicketHandler(tickets, logger))
	handlers.RegisterNotificationRoutes(api, handlers.NewNotificationHandler(notifications, hub, logger))
	handlers.RegisterRuleRoutes(api, handlers.NewRuleHandler(rules, logger))
	return router
}

// reportPoolStats 周期性上报数据库连接池指标
func reportPoolStats(ctx context.Context, db *gorm.DB, logger *logrus.Logger) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := metrics.UpdateDatabaseConnections(db); err != nil {
				logger.Debugf("database pool stats: %v", err)
			}
		}
	}
}
