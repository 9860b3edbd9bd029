package services

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdesk/internal/automation"
	"workdesk/internal/models"
	"workdesk/internal/store"
)

func TestRuleService_CreateAndToggle(t *testing.T) {
	f := newFixture(t, WorkItemOptions{})
	ctx := context.Background()

	rule, err := f.rules.Create(ctx, &RuleCreateRequest{
		Name:       "Route hardware",
		Position:   5,
		Conditions: []automation.Condition{{Field: automation.FieldTags, Op: automation.OpContains, Value: "hardware"}},
		Actions:    []automation.Action{{Type: automation.ActionSetAssignee, Params: map[string]interface{}{"assignee_id": agent.ID}}},
	})
	require.NoError(t, err)
	assert.True(t, rule.IsEnabled)
	assert.Equal(t, models.TriggerOnCreate, rule.Trigger)

	item, err := f.workItems.Create(ctx, &CreateWorkItemRequest{Title: "Monitor", Tags: []string{"hardware"}}, requester)
	require.NoError(t, err)
	assert.Equal(t, agent.ID, item.Assignee(), "the new rule runs on the next create")
	assert.Equal(t, []string{agent.ID}, recipients(f.sink.all()))

	_, err = f.rules.SetEnabled(ctx, rule.ID, false)
	require.NoError(t, err)
	item, err = f.workItems.Create(ctx, &CreateWorkItemRequest{Title: "Keyboard", Tags: []string{"hardware"}}, requester)
	require.NoError(t, err)
	assert.Empty(t, item.Assignee())

	list, err := f.rules.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Route hardware", list[0].Name, "lowest position first")
}

func TestRuleService_Validation(t *testing.T) {
	f := newFixture(t, WorkItemOptions{})
	ctx := context.Background()

	cases := map[string]*RuleCreateRequest{
		"no name":    {Actions: []automation.Action{{Type: automation.ActionAddNote}}},
		"no actions": {Name: "Empty"},
		"bad op":     {Name: "Bad op", Conditions: []automation.Condition{{Field: "type", Op: "like"}}, Actions: []automation.Action{{Type: automation.ActionAddNote}}},
		"bad action": {Name: "Bad action", Actions: []automation.Action{{Type: "explode"}}},
	}
	for name, req := range cases {
		_, err := f.rules.Create(ctx, req)
		assert.ErrorIs(t, err, ErrValidation, name)
	}

	_, err := f.rules.SetEnabled(ctx, "rule_missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRuleService_SeedDefaultsIsIdempotent(t *testing.T) {
	f := newFixture(t, WorkItemOptions{})
	added, err := f.rules.SeedDefaults(context.Background())
	require.NoError(t, err)
	assert.Zero(t, added, "fixture already seeded")

	list, err := f.rules.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, len(automation.DefaultRules()))
}

func TestNotificationService_ReadFlow(t *testing.T) {
	f := newFixture(t, WorkItemOptions{})
	ctx := context.Background()
	d := NewDispatcher(store.NewNotificationStore(f.db), f.clock, time.Second, quietLogger())

	for i := 0; i < 3; i++ {
		require.True(t, d.Dispatch(ctx, models.Notification{UserID: agent.ID, Title: "n", Category: models.CategoryStatus}))
		f.clock.Advance(time.Second)
	}
	require.True(t, d.Dispatch(ctx, models.Notification{UserID: requester.ID, Title: "other"}))

	list, err := f.notifications.List(ctx, agent, false, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)

	_, err = f.notifications.MarkRead(ctx, requester, list[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := f.notifications.MarkRead(ctx, agent, list[0].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	count, err := f.notifications.MarkAllRead(ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	unread, err := f.notifications.List(ctx, agent, true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)

	_, err = f.notifications.List(ctx, Actor{}, false, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNotificationHub_PushesToRecipient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewNotificationHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user_id=" + agent.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Create(ctx, &models.Notification{ID: "n-other", UserID: requester.ID}))
	require.NoError(t, hub.Create(ctx, &models.Notification{ID: "n-1", UserID: agent.ID, Title: "Approval required"}))

	var msg struct {
		Type string              `json:"type"`
		Data models.Notification `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "notification", msg.Type)
	assert.Equal(t, "n-1", msg.Data.ID, "other users' notifications are not delivered")

	cancel()
	require.Eventually(t, func() bool {
		return hub.Create(context.Background(), &models.Notification{UserID: agent.ID}) == ErrSinkUnavailable
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationHub_RequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewNotificationHub(quietLogger())
	r := gin.New()
	r.GET("/ws", hub.HandleWebSocket)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/ws", nil))
	assert.Equal(t, 400, rec.Code)
}
