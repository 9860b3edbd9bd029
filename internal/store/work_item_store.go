package store

import (
	"context"
	"fmt"

	"workdesk/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type workItemStore struct {
	db    *gorm.DB
	locks *keyedMutex
}

// NewWorkItemStore returns a gorm-backed WorkItemStore.
func NewWorkItemStore(db *gorm.DB) WorkItemStore {
	return &workItemStore{db: db, locks: newKeyedMutex()}
}

func (s *workItemStore) Get(ctx context.Context, id string) (*models.WorkItem, error) {
	var item models.WorkItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *workItemStore) Create(ctx context.Context, item *models.WorkItem) (*models.WorkItem, error) {
	if item.ID == "" {
		return nil, fmt.Errorf("work item id is required")
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create work item: %w", err)
	}
	return item, nil
}

func (s *workItemStore) Update(ctx context.Context, id string, mutate func(*models.WorkItem) error) (*models.WorkItem, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var item models.WorkItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if err := mutate(&item); err != nil {
			return err
		}
		item.ID = id
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
