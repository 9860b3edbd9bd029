package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRecordNotification_SplitsByResult(t *testing.T) {
	before := testutil.ToFloat64(notificationsTotal.WithLabelValues("approval", "failed"))

	RecordNotification("approval", true)
	RecordNotification("approval", false)

	assert.Equal(t, before+1, testutil.ToFloat64(notificationsTotal.WithLabelValues("approval", "failed")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(notificationsTotal.WithLabelValues("approval", "delivered")), 1.0)
}

func TestHandler_ExposesLifecycleCounters(t *testing.T) {
	RecordWorkItemCreated("Task")
	RecordApprovalDecision("Approved")
	RecordTicketTransition("Resolved")
	RecordRuleEffect("Critical-Priority SLA")
	RecordHTTPRequest("GET", "/api/v1/work-items/:id", 200, 0.01)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, name := range []string{
		"workdesk_work_items_created_total",
		"workdesk_approval_decisions_total",
		"workdesk_ticket_transitions_total",
		"workdesk_automation_rule_effects_total",
		"workdesk_http_requests_total",
	} {
		assert.True(t, strings.Contains(body, name), name)
	}
}

func TestUpdateDatabaseConnections(t *testing.T) {
	assert.Error(t, UpdateDatabaseConnections(nil))

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, UpdateDatabaseConnections(db))
}
