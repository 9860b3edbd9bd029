// Package store persists lifecycle entities. Every Update runs its mutation
// under a per-id lock inside a transaction, so read-check-write sequences
// such as "step is still Pending" hold across concurrent callers.
package store

import (
	"context"
	"errors"
	"fmt"

	"workdesk/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when the addressed record does not exist.
var ErrNotFound = errors.New("record not found")

// WorkItemStore persists work items.
type WorkItemStore interface {
	Get(ctx context.Context, id string) (*models.WorkItem, error)
	Create(ctx context.Context, item *models.WorkItem) (*models.WorkItem, error)
	// Update loads the item, applies mutate and writes the whole row in one
	// statement. If mutate returns an error nothing is written.
	Update(ctx context.Context, id string, mutate func(*models.WorkItem) error) (*models.WorkItem, error)
}

// TicketStore persists tickets together with their comments and activities.
type TicketStore interface {
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Create(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error)
	// Update applies mutate to the loaded ticket. Comments and activities
	// are append-only: entries appended by mutate are inserted, existing
	// ones are never rewritten.
	Update(ctx context.Context, id string, mutate func(*models.Ticket) error) (*models.Ticket, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// RuleCatalog supplies the enabled automation rules in catalog order.
type RuleCatalog interface {
	EnabledRules(ctx context.Context) ([]models.AutomationRule, error)
}

// RuleStore manages the rule catalog.
type RuleStore interface {
	RuleCatalog
	List(ctx context.Context) ([]models.AutomationRule, error)
	Get(ctx context.Context, id string) (*models.AutomationRule, error)
	Create(ctx context.Context, rule *models.AutomationRule) (*models.AutomationRule, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (*models.AutomationRule, error)
}

// AutoMigrate creates or updates every table the lifecycle engine uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.WorkItem{},
		&models.Notification{},
		&models.AutomationRule{},
		&models.Ticket{},
		&models.TicketComment{},
		&models.TicketActivity{},
	)
}

// compositeIndexes serve the inbox query and the open-ticket views.
var compositeIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_notifications_user_read_created ON notifications(user_id, is_read, created_at)",
	"CREATE INDEX IF NOT EXISTS idx_tickets_status_due ON tickets(status, resolution_due_at)",
	"CREATE INDEX IF NOT EXISTS idx_work_items_status_created ON work_items(status, created_at)",
}

// CreateIndexes adds the composite indexes AutoMigrate cannot express.
func CreateIndexes(db *gorm.DB) error {
	for _, stmt := range compositeIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
