package automation

import (
	"fmt"
	"strings"
	"time"

	"workdesk/internal/models"
)

// Effect is one audit line attributed to the rule that produced it.
type Effect struct {
	Rule    string
	Line    string
	Skipped bool
}

// Apply runs rules in catalog order against a newly assembled item and
// returns the transformed copy plus one audit line per effect. Later rules
// see the output of earlier ones. A rule that cannot be decoded or whose
// action fails is skipped as a whole and reported in the audit lines; the
// input item is never modified.
//
// Due-date actions are relative to item.CreatedAt, which the caller stamps
// before calling Apply.
func Apply(item *models.WorkItem, rules []models.AutomationRule) (*models.WorkItem, []string) {
	out, effects := Evaluate(item, rules)
	lines := make([]string, 0, len(effects))
	for _, e := range effects {
		lines = append(lines, e.Line)
	}
	return out, lines
}

// Evaluate is Apply with each line attributed to its rule.
func Evaluate(item *models.WorkItem, rules []models.AutomationRule) (*models.WorkItem, []Effect) {
	out := item.Clone()
	effects := []Effect{}
	for _, rule := range rules {
		if !rule.IsEnabled || rule.Trigger != models.TriggerOnCreate {
			continue
		}
		next, ruleLines, err := applyRule(out, rule)
		if err != nil {
			effects = append(effects, Effect{
				Rule:    rule.Name,
				Line:    fmt.Sprintf("Rule %s skipped: %v", rule.Name, err),
				Skipped: true,
			})
			continue
		}
		out = next
		for _, line := range ruleLines {
			effects = append(effects, Effect{Rule: rule.Name, Line: line})
		}
	}
	return out, effects
}

func applyRule(item *models.WorkItem, rule models.AutomationRule) (*models.WorkItem, []string, error) {
	conds, err := ParseConditions(rule.Conditions)
	if err != nil {
		return nil, nil, err
	}
	for _, cond := range conds {
		ok, err := evaluateCondition(cond, item)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return item, nil, nil
		}
	}

	actions, err := ParseActions(rule.Actions)
	if err != nil {
		return nil, nil, err
	}
	candidate := item.Clone()
	var lines []string
	for _, act := range actions {
		line, err := executeAction(candidate, act, rule.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("action %s failed: %w", act.Type, err)
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return candidate, lines, nil
}

func attribute(item *models.WorkItem, field string) string {
	switch field {
	case FieldType:
		return string(item.Type)
	case FieldPriority:
		return string(item.Priority)
	case FieldStatus:
		return string(item.Status)
	case FieldTitle:
		return item.Title
	case FieldProjectID:
		return item.ProjectID
	}
	return ""
}

func evaluateCondition(cond Condition, item *models.WorkItem) (bool, error) {
	if cond.Field == FieldTags {
		return evaluateTagCondition(cond, item)
	}
	actual := attribute(item, cond.Field)
	switch cond.Op {
	case OpEq:
		return strings.EqualFold(actual, fmt.Sprintf("%v", cond.Value)), nil
	case OpNeq:
		return !strings.EqualFold(actual, fmt.Sprintf("%v", cond.Value)), nil
	case OpContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(fmt.Sprintf("%v", cond.Value))), nil
	case OpIn:
		values, err := valueList(cond.Value)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			if strings.EqualFold(actual, v) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported condition op: %q", cond.Op)
}

// Tag conditions test set membership rather than string equality.
func evaluateTagCondition(cond Condition, item *models.WorkItem) (bool, error) {
	switch cond.Op {
	case OpEq, OpContains:
		return item.HasTag(fmt.Sprintf("%v", cond.Value)), nil
	case OpNeq:
		return !item.HasTag(fmt.Sprintf("%v", cond.Value)), nil
	case OpIn:
		values, err := valueList(cond.Value)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			if item.HasTag(v) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported condition op: %q", cond.Op)
}

func valueList(v interface{}) ([]string, error) {
	switch vals := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, x := range vals {
			out = append(out, fmt.Sprintf("%v", x))
		}
		return out, nil
	case []string:
		return vals, nil
	}
	return nil, fmt.Errorf("op %q needs a list value", OpIn)
}

func executeAction(item *models.WorkItem, act Action, ruleName string) (string, error) {
	switch act.Type {
	case ActionSetDueWithin:
		hours, ok := paramNumber(act.Params, "hours")
		if !ok || hours <= 0 {
			return "", fmt.Errorf("positive hours param required")
		}
		if item.CreatedAt.IsZero() {
			return "", fmt.Errorf("item has no creation time")
		}
		deadline := item.CreatedAt.Add(time.Duration(hours * float64(time.Hour)))
		switch {
		case item.DueDate == nil:
			item.DueDate = &deadline
			return fmt.Sprintf("Due date set to %sh per %s rule", formatHours(hours), ruleName), nil
		case item.DueDate.After(deadline):
			item.DueDate = &deadline
			return fmt.Sprintf("Due date tightened to %sh per %s rule", formatHours(hours), ruleName), nil
		}
		return "", nil

	case ActionAddTag:
		tag := paramString(act.Params, "tag")
		if tag == "" {
			return "", fmt.Errorf("tag param required")
		}
		if item.HasTag(tag) {
			return "", nil
		}
		item.Tags = append(item.Tags, tag)
		return fmt.Sprintf("Tag %q added per %s rule", tag, ruleName), nil

	case ActionSetPriority:
		p := models.Priority(paramString(act.Params, "priority"))
		if !p.Valid() {
			return "", fmt.Errorf("invalid priority param: %q", p)
		}
		if item.Priority == p {
			return "", nil
		}
		old := item.Priority
		item.Priority = p
		return fmt.Sprintf("Priority changed from %s to %s per %s rule", old, p, ruleName), nil

	case ActionSetAssignee:
		assignee := paramString(act.Params, "assignee_id")
		if assignee == "" {
			return "", fmt.Errorf("assignee_id param required")
		}
		if item.AssigneeID != nil && *item.AssigneeID != "" {
			return "", nil
		}
		item.AssigneeID = &assignee
		return fmt.Sprintf("Assigned to %s per %s rule", assignee, ruleName), nil

	case ActionAddNote:
		text := paramString(act.Params, "text")
		if text == "" {
			return "", fmt.Errorf("text param required")
		}
		return text, nil
	}
	return "", fmt.Errorf("unsupported action type: %s", act.Type)
}

func formatHours(h float64) string {
	if h == float64(int64(h)) {
		return fmt.Sprintf("%d", int64(h))
	}
	return fmt.Sprintf("%g", h)
}
