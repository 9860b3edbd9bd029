package store

import (
	"context"
	"fmt"

	"workdesk/internal/models"

	"gorm.io/gorm"
)

type notificationStore struct {
	db *gorm.DB
}

// NewNotificationStore returns a gorm-backed NotificationStore.
func NewNotificationStore(db *gorm.DB) NotificationStore {
	return &notificationStore{db: db}
}

func (s *notificationStore) Create(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *notificationStore) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Notification
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

func (s *notificationStore) MarkRead(ctx context.Context, userID, id string) (*models.Notification, error) {
	var n models.Notification
	db := s.db.WithContext(ctx)
	if err := db.First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, translate(err)
	}
	if n.IsRead {
		return &n, nil
	}
	if err := db.Model(&n).Update("is_read", true).Error; err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n.IsRead = true
	return &n, nil
}

func (s *notificationStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}
