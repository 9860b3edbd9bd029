package store

import (
	"context"
	"fmt"

	"workdesk/internal/models"

	"gorm.io/gorm"
)

type ruleStore struct {
	db *gorm.DB
}

// NewRuleStore returns a gorm-backed RuleStore.
func NewRuleStore(db *gorm.DB) RuleStore {
	return &ruleStore{db: db}
}

func ordered(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC").Order("id ASC")
}

func (s *ruleStore) EnabledRules(ctx context.Context) ([]models.AutomationRule, error) {
	var rules []models.AutomationRule
	if err := ordered(s.db.WithContext(ctx)).Where("is_enabled = ?", true).Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to load automation rules: %w", err)
	}
	return rules, nil
}

func (s *ruleStore) List(ctx context.Context) ([]models.AutomationRule, error) {
	var rules []models.AutomationRule
	if err := ordered(s.db.WithContext(ctx)).Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list automation rules: %w", err)
	}
	return rules, nil
}

func (s *ruleStore) Get(ctx context.Context, id string) (*models.AutomationRule, error) {
	var rule models.AutomationRule
	if err := s.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rule, nil
}

func (s *ruleStore) Create(ctx context.Context, rule *models.AutomationRule) (*models.AutomationRule, error) {
	if rule.ID == "" {
		return nil, fmt.Errorf("rule id is required")
	}
	if err := s.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create automation rule: %w", err)
	}
	return rule, nil
}

func (s *ruleStore) SetEnabled(ctx context.Context, id string, enabled bool) (*models.AutomationRule, error) {
	rule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(rule).Update("is_enabled", enabled).Error; err != nil {
		return nil, fmt.Errorf("failed to update automation rule: %w", err)
	}
	rule.IsEnabled = enabled
	return rule, nil
}
