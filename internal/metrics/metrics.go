// Package metrics exposes Prometheus counters for lifecycle events and HTTP
// traffic. Collectors are registered on the default registry at init.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	workItemsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workdesk_work_items_created_total",
			Help: "Total number of work items created",
		},
		[]string{"type"},
	)

	approvalDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workdesk_approval_decisions_total",
			Help: "Total number of approval decisions recorded",
		},
		[]string{"decision"},
	)

	ticketTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workdesk_ticket_transitions_total",
			Help: "Total number of ticket status transitions",
		},
		[]string{"to"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workdesk_notifications_total",
			Help: "Notification dispatch attempts by outcome",
		},
		[]string{"category", "result"}, // delivered, failed
	)

	ruleEffectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workdesk_automation_rule_effects_total",
			Help: "Audit lines produced by automation rules",
		},
		[]string{"rule"},
	)

	databaseConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "workdesk_database_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"}, // in_use, idle, max
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		workItemsCreatedTotal,
		approvalDecisionsTotal,
		ticketTransitionsTotal,
		notificationsTotal,
		ruleEffectsTotal,
		databaseConnections,
	)

	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func RecordWorkItemCreated(itemType string) {
	workItemsCreatedTotal.WithLabelValues(itemType).Inc()
}

func RecordApprovalDecision(decision string) {
	approvalDecisionsTotal.WithLabelValues(decision).Inc()
}

func RecordTicketTransition(to string) {
	ticketTransitionsTotal.WithLabelValues(to).Inc()
}

// RecordNotification counts one dispatch attempt; failed is true when the
// sink returned an error.
func RecordNotification(category string, failed bool) {
	result := "delivered"
	if failed {
		result = "failed"
	}
	notificationsTotal.WithLabelValues(category, result).Inc()
}

func RecordRuleEffect(rule string) {
	ruleEffectsTotal.WithLabelValues(rule).Inc()
}

// UpdateDatabaseConnections 更新数据库连接池指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	databaseConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	databaseConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	databaseConnections.WithLabelValues("max").Set(float64(stats.MaxOpenConnections))
	return nil
}
