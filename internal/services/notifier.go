package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workdesk/internal/clock"
	"workdesk/internal/metrics"
	"workdesk/internal/models"
	"workdesk/pkg/utils"

	"github.com/sirupsen/logrus"
)

const defaultNotifyTimeout = 5 * time.Second

// NotificationSink accepts notification records.
type NotificationSink interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Dispatcher turns lifecycle events into notifications. Delivery is best
// effort: sink errors are logged and counted, never returned to callers.
type Dispatcher struct {
	sink    NotificationSink
	clock   clock.Clock
	timeout time.Duration
	logger  *logrus.Logger
}

// NewDispatcher 创建通知分发器
func NewDispatcher(sink NotificationSink, clk clock.Clock, timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	if clk == nil {
		clk = clock.Real()
	}
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &Dispatcher{sink: sink, clock: clk, timeout: timeout, logger: logger}
}

// Dispatch delivers n to the sink and reports whether it was accepted. The
// call is detached from ctx cancellation and bounded by the dispatcher
// timeout even if the sink ignores its context.
func (d *Dispatcher) Dispatch(ctx context.Context, n models.Notification) bool {
	if n.UserID == "" {
		return false
	}
	n.ID = utils.GenerateID("ntf")
	n.CreatedAt = d.clock.Now()
	n.IsRead = false
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.sink.Create(cctx, &n) }()

	var err error
	select {
	case err = <-done:
	case <-cctx.Done():
		err = fmt.Errorf("sink did not respond: %w", cctx.Err())
	}

	metrics.RecordNotification(string(n.Category), err != nil)
	if err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":  n.UserID,
			"category": n.Category,
			"related":  n.RelatedItemID,
		}).Warn("Notification dispatch failed")
		return false
	}
	return true
}

func related(id string) *string { return &id }

// creatorRecipient is the creator id, or "" for anonymous items.
func creatorRecipient(item *models.WorkItem) string {
	if c := item.Creator(); c != models.AnonymousCreator {
		return c
	}
	return ""
}

func (d *Dispatcher) NotifyAssigned(ctx context.Context, item *models.WorkItem) {
	d.Dispatch(ctx, models.Notification{
		UserID:        item.Assignee(),
		Title:         "New assignment",
		Message:       fmt.Sprintf("You have been assigned %q", item.Title),
		Type:          models.NotificationInfo,
		Priority:      item.Priority,
		Category:      models.CategoryAssignment,
		RelatedItemID: related(item.ID),
	})
}

func (d *Dispatcher) NotifyApprovalRequired(ctx context.Context, item *models.WorkItem, step models.ApprovalStep) {
	d.Dispatch(ctx, models.Notification{
		UserID:        step.ApproverID,
		Title:         "Approval required",
		Message:       fmt.Sprintf("%q is waiting for your decision", item.Title),
		Type:          models.NotificationWarning,
		Priority:      item.Priority,
		Category:      models.CategoryApproval,
		RelatedItemID: related(item.ID),
	})
}

func (d *Dispatcher) NotifyStatusChanged(ctx context.Context, item *models.WorkItem, from models.WorkItemStatus) {
	d.Dispatch(ctx, models.Notification{
		UserID:        creatorRecipient(item),
		Title:         "Status changed",
		Message:       fmt.Sprintf("%q moved from %s to %s", item.Title, from, item.Status),
		Type:          models.NotificationInfo,
		Priority:      item.Priority,
		Category:      models.CategoryStatus,
		RelatedItemID: related(item.ID),
	})
}

func (d *Dispatcher) NotifyNewComment(ctx context.Context, item *models.WorkItem, recipient string, c models.Comment) {
	d.Dispatch(ctx, models.Notification{
		UserID:        recipient,
		Title:         "New comment",
		Message:       fmt.Sprintf("%s commented on %q", c.UserName, item.Title),
		Type:          models.NotificationInfo,
		Priority:      item.Priority,
		Category:      models.CategoryComment,
		RelatedItemID: related(item.ID),
	})
}

// NotifyDecision tells the creator how a step was decided.
func (d *Dispatcher) NotifyDecision(ctx context.Context, item *models.WorkItem, step models.ApprovalStep) {
	n := models.Notification{
		UserID:        creatorRecipient(item),
		Priority:      item.Priority,
		Category:      models.CategoryApproval,
		RelatedItemID: related(item.ID),
	}
	approver := step.ApproverName
	if approver == "" {
		approver = step.ApproverID
	}
	if step.Decision == models.DecisionRejected {
		n.Title = "Request rejected"
		n.Message = fmt.Sprintf("%s rejected %q", approver, item.Title)
		n.Type = models.NotificationError
	} else {
		n.Title = "Request approved"
		n.Message = fmt.Sprintf("%s approved %q", approver, item.Title)
		n.Type = models.NotificationSuccess
	}
	d.Dispatch(ctx, n)
}

func (d *Dispatcher) NotifyTicketStatus(ctx context.Context, t *models.Ticket, from models.TicketStatus) {
	d.Dispatch(ctx, models.Notification{
		UserID:        t.RequesterID,
		Title:         fmt.Sprintf("Ticket %s updated", t.Key),
		Message:       fmt.Sprintf("%q moved from %s to %s", t.Title, from, t.Status),
		Type:          models.NotificationInfo,
		Priority:      t.Priority,
		Category:      models.CategoryTicket,
		RelatedItemID: related(t.ID),
	})
}

func (d *Dispatcher) NotifyTicketComment(ctx context.Context, t *models.Ticket, c models.TicketComment) {
	d.Dispatch(ctx, models.Notification{
		UserID:        t.RequesterID,
		Title:         fmt.Sprintf("New reply on %s", t.Key),
		Message:       fmt.Sprintf("%s replied to %q", c.UserName, t.Title),
		Type:          models.NotificationInfo,
		Priority:      t.Priority,
		Category:      models.CategoryTicket,
		RelatedItemID: related(t.ID),
	})
}

// MultiSink fans a notification out to sinks in order and stops at the
// first failure, so later sinks only see accepted records.
type MultiSink []NotificationSink

func (m MultiSink) Create(ctx context.Context, n *models.Notification) error {
	for _, s := range m {
		if err := s.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// SinkFunc adapts a function to NotificationSink.
type SinkFunc func(ctx context.Context, n *models.Notification) error

func (f SinkFunc) Create(ctx context.Context, n *models.Notification) error { return f(ctx, n) }

// ErrSinkUnavailable is returned by sinks that are shut down.
var ErrSinkUnavailable = errors.New("notification sink unavailable")
