package services

import (
	"context"
	"strings"

	"workdesk/internal/automation"
	"workdesk/internal/clock"
	"workdesk/internal/models"
	"workdesk/internal/store"
	"workdesk/pkg/utils"

	"github.com/sirupsen/logrus"
)

// RuleService 自动化规则目录管理
type RuleService struct {
	rules  store.RuleStore
	clock  clock.Clock
	logger *logrus.Logger
}

func NewRuleService(rules store.RuleStore, clk clock.Clock, logger *logrus.Logger) *RuleService {
	if logger == nil {
		logger = logrus.New()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &RuleService{rules: rules, clock: clk, logger: logger}
}

// RuleCreateRequest 创建规则请求
type RuleCreateRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description"`
	IsEnabled   *bool                  `json:"is_enabled"`
	Trigger     models.RuleTrigger     `json:"trigger"`
	Position    int                    `json:"position"`
	Conditions  []automation.Condition `json:"conditions"`
	Actions     []automation.Action    `json:"actions"`
}

func (s *RuleService) List(ctx context.Context) ([]models.AutomationRule, error) {
	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, storeError(err, "rules", "catalog")
	}
	return rules, nil
}

// Create validates the rule by round-tripping it through the rule codec so
// only rules the engine can decode are stored.
func (s *RuleService) Create(ctx context.Context, req *RuleCreateRequest) (*models.AutomationRule, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, validationErrorf("rule name is required")
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = models.TriggerOnCreate
	}
	if len(req.Actions) == 0 {
		return nil, validationErrorf("rule needs at least one action")
	}

	conds, err := automation.EncodeConditions(req.Conditions)
	if err != nil {
		return nil, validationErrorf("conditions: %v", err)
	}
	if _, err := automation.ParseConditions(conds); err != nil {
		return nil, validationErrorf("%v", err)
	}
	actions, err := automation.EncodeActions(req.Actions)
	if err != nil {
		return nil, validationErrorf("actions: %v", err)
	}
	if _, err := automation.ParseActions(actions); err != nil {
		return nil, validationErrorf("%v", err)
	}

	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}
	now := s.clock.Now()
	rule, err := s.rules.Create(ctx, &models.AutomationRule{
		ID:          utils.GenerateID("rule"),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsEnabled:   enabled,
		Trigger:     trigger,
		Position:    req.Position,
		Conditions:  conds,
		Actions:     actions,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, storeError(err, "rule", req.Name)
	}
	s.logger.Infof("Created automation rule %s (%s)", rule.Name, rule.ID)
	return rule, nil
}

func (s *RuleService) SetEnabled(ctx context.Context, id string, enabled bool) (*models.AutomationRule, error) {
	rule, err := s.rules.SetEnabled(ctx, id, enabled)
	if err != nil {
		return nil, storeError(err, "rule", id)
	}
	s.logger.Infof("Automation rule %s enabled=%t", rule.Name, enabled)
	return rule, nil
}

// SeedDefaults inserts the default catalog, skipping rules whose name is
// already present. It returns the number of rules added.
func (s *RuleService) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.rules.List(ctx)
	if err != nil {
		return 0, storeError(err, "rules", "catalog")
	}
	have := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		have[strings.ToLower(r.Name)] = struct{}{}
	}

	added := 0
	now := s.clock.Now()
	for _, rule := range automation.DefaultRules() {
		if _, ok := have[strings.ToLower(rule.Name)]; ok {
			continue
		}
		rule.ID = utils.GenerateID("rule")
		rule.CreatedAt, rule.UpdatedAt = now, now
		if _, err := s.rules.Create(ctx, &rule); err != nil {
			return added, storeError(err, "rule", rule.Name)
		}
		added++
	}
	if added > 0 {
		s.logger.Infof("Seeded %d default automation rules", added)
	}
	return added, nil
}
