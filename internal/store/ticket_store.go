package store

import (
	"context"
	"fmt"

	"workdesk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ticketStore struct {
	db    *gorm.DB
	locks *keyedMutex
}

// NewTicketStore returns a gorm-backed TicketStore.
func NewTicketStore(db *gorm.DB) TicketStore {
	return &ticketStore{db: db, locks: newKeyedMutex()}
}

func withHistory(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC") }).
		Preload("Activities", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (s *ticketStore) Get(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := withHistory(s.db.WithContext(ctx)).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

func (s *ticketStore) Create(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	if ticket.ID == "" {
		return nil, fmt.Errorf("ticket id is required")
	}
	if err := s.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return ticket, nil
}

func (s *ticketStore) Update(ctx context.Context, id string, mutate func(*models.Ticket) error) (*models.Ticket, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var ticket models.Ticket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := withHistory(tx.Clauses(clause.Locking{Strength: "UPDATE"}))
		if err := q.First(&ticket, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		nComments, nActivities := len(ticket.Comments), len(ticket.Activities)

		if err := mutate(&ticket); err != nil {
			return err
		}
		if len(ticket.Comments) < nComments || len(ticket.Activities) < nActivities {
			return fmt.Errorf("ticket %s: comments and activities are append-only", id)
		}
		ticket.ID = id

		if err := tx.Omit(clause.Associations).Save(&ticket).Error; err != nil {
			return fmt.Errorf("failed to save ticket: %w", err)
		}
		if added := ticket.Comments[nComments:]; len(added) > 0 {
			for i := range added {
				added[i].TicketID = id
			}
			if err := tx.Create(&added).Error; err != nil {
				return fmt.Errorf("failed to append ticket comments: %w", err)
			}
		}
		if added := ticket.Activities[nActivities:]; len(added) > 0 {
			for i := range added {
				added[i].TicketID = id
			}
			if err := tx.Create(&added).Error; err != nil {
				return fmt.Errorf("failed to append ticket activities: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}
