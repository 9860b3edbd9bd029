package services

import (
	"context"

	"workdesk/internal/models"
	"workdesk/internal/store"

	"github.com/sirupsen/logrus"
)

const defaultNotificationPage = 50

// NotificationService 通知查询与已读管理
type NotificationService struct {
	notifications store.NotificationStore
	logger        *logrus.Logger
}

func NewNotificationService(notifications store.NotificationStore, logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.New()
	}
	return &NotificationService{notifications: notifications, logger: logger}
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor Actor, unreadOnly bool, limit int) ([]models.Notification, error) {
	if actor.Anonymous() {
		return nil, validationErrorf("user identity is required")
	}
	if limit <= 0 || limit > 500 {
		limit = defaultNotificationPage
	}
	list, err := s.notifications.ListByUser(ctx, actor.ID, unreadOnly, limit)
	if err != nil {
		return nil, storeError(err, "notifications for", actor.ID)
	}
	return list, nil
}

// MarkRead flags one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id string) (*models.Notification, error) {
	if actor.Anonymous() {
		return nil, validationErrorf("user identity is required")
	}
	n, err := s.notifications.MarkRead(ctx, actor.ID, id)
	if err != nil {
		return nil, storeError(err, "notification", id)
	}
	return n, nil
}

// MarkAllRead flags every unread notification of the actor and returns how
// many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	if actor.Anonymous() {
		return 0, validationErrorf("user identity is required")
	}
	n, err := s.notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, storeError(err, "notifications for", actor.ID)
	}
	s.logger.Debugf("Marked %d notifications read for %s", n, actor.ID)
	return n, nil
}
