package models

import "time"

// NotificationType is the visual severity of a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// NotificationCategory groups notifications by the event that produced them.
type NotificationCategory string

const (
	CategoryAssignment NotificationCategory = "assignment"
	CategoryStatus     NotificationCategory = "status"
	CategoryComment    NotificationCategory = "comment"
	CategoryApproval   NotificationCategory = "approval"
	CategoryTicket     NotificationCategory = "ticket"
)

// Notification is created by the dispatcher and only ever mutated by
// mark-read operations.
type Notification struct {
	ID            string               `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID        string               `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Title         string               `gorm:"not null" json:"title"`
	Message       string               `gorm:"type:text" json:"message"`
	Type          NotificationType     `gorm:"type:varchar(16)" json:"type"`
	Priority      Priority             `gorm:"type:varchar(16)" json:"priority"`
	Category      NotificationCategory `gorm:"type:varchar(32);index" json:"category"`
	IsRead        bool                 `gorm:"index" json:"is_read"`
	RelatedItemID *string              `gorm:"type:varchar(64);index" json:"related_item_id,omitempty"`
	CreatedAt     time.Time            `gorm:"index" json:"created_at"`
}
