package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdesk/internal/clock"
	"workdesk/internal/models"
)

func TestDispatch_StampsRecord(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, clock.Fake(t0), time.Second, quietLogger())

	ok := d.Dispatch(context.Background(), models.Notification{UserID: "u1", Title: "hi", Category: models.CategoryStatus, IsRead: true})
	require.True(t, ok)

	got := sink.all()
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.True(t, got[0].CreatedAt.Equal(t0))
	assert.False(t, got[0].IsRead)
	assert.Equal(t, models.NotificationInfo, got[0].Type)
	assert.Equal(t, models.PriorityMedium, got[0].Priority)
}

func TestDispatch_SkipsEmptyRecipient(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, clock.Fake(t0), time.Second, quietLogger())
	assert.False(t, d.Dispatch(context.Background(), models.Notification{Title: "nobody"}))
	assert.Empty(t, sink.all())
}

func TestDispatch_BoundedBySlowSink(t *testing.T) {
	sink := &recordingSink{delay: 500 * time.Millisecond}
	d := NewDispatcher(sink, clock.Fake(t0), 20*time.Millisecond, quietLogger())

	start := time.Now()
	ok := d.Dispatch(context.Background(), models.Notification{UserID: "u1"})
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestDispatch_IgnoresCallerCancellation(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, clock.Fake(t0), time.Second, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := d.Dispatch(ctx, models.Notification{UserID: "u1"})
	assert.True(t, ok, "a finished request must not cancel its notifications")
}

func TestMultiSink_StopsAtFirstFailure(t *testing.T) {
	first := SinkFunc(func(context.Context, *models.Notification) error { return errors.New("db down") })
	second := &recordingSink{}

	err := MultiSink{first, second}.Create(context.Background(), &models.Notification{UserID: "u1"})
	assert.Error(t, err)
	assert.Empty(t, second.all())

	require.NoError(t, MultiSink{second}.Create(context.Background(), &models.Notification{UserID: "u1"}))
	assert.Len(t, second.all(), 1)
}

func TestNotifyDecision_Titles(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, clock.Fake(t0), time.Second, quietLogger())
	item := &models.WorkItem{ID: "wi_1", Title: "Budget", CreatorID: strPtr("u-req")}

	d.NotifyDecision(context.Background(), item, models.ApprovalStep{ApproverName: "Alex", Decision: models.DecisionApproved})
	d.NotifyDecision(context.Background(), item, models.ApprovalStep{ApproverID: "u-b", Decision: models.DecisionRejected})

	got := sink.all()
	require.Len(t, got, 2)
	assert.Equal(t, "Request approved", got[0].Title)
	assert.Equal(t, models.NotificationSuccess, got[0].Type)
	assert.Equal(t, `Alex approved "Budget"`, got[0].Message)
	assert.Equal(t, "Request rejected", got[1].Title)
	assert.Equal(t, `u-b rejected "Budget"`, got[1].Message)
}
