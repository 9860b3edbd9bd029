// Package automation applies creation-time rules to new work items.
//
// The engine is a pure transform: it never touches persistence or
// notifications, and identical inputs always give identical outputs.
package automation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Condition describes a single condition entry.
type Condition struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value interface{} `json:"value"`
}

// Action describes an effect to apply when all conditions match.
type Action struct {
	Type   string                 `json:"type"`
	Params map[string]interface{} `json:"params"`
}

// Supported condition fields.
const (
	FieldType      = "type"
	FieldPriority  = "priority"
	FieldStatus    = "status"
	FieldTitle     = "title"
	FieldProjectID = "project_id"
	FieldTags      = "tags"
)

// Supported condition operators.
const (
	OpEq       = "eq"
	OpNeq      = "neq"
	OpContains = "contains"
	OpIn       = "in"
)

// Supported action types.
const (
	ActionSetDueWithin = "set_due_within"
	ActionAddTag       = "add_tag"
	ActionSetPriority  = "set_priority"
	ActionSetAssignee  = "set_assignee"
	ActionAddNote      = "add_note"
)

// ParseConditions decodes a rule's conditions column. Empty means "always".
func ParseConditions(raw string) ([]Condition, error) {
	conds := []Condition{}
	if strings.TrimSpace(raw) == "" {
		return conds, nil
	}
	if err := json.Unmarshal([]byte(raw), &conds); err != nil {
		return nil, fmt.Errorf("invalid conditions: %w", err)
	}
	for _, c := range conds {
		if !knownField(c.Field) {
			return nil, fmt.Errorf("unsupported condition field: %q", c.Field)
		}
		if !knownOp(c.Op) {
			return nil, fmt.Errorf("unsupported condition op: %q", c.Op)
		}
	}
	return conds, nil
}

// ParseActions decodes a rule's actions column.
func ParseActions(raw string) ([]Action, error) {
	actions := []Action{}
	if strings.TrimSpace(raw) == "" {
		return actions, nil
	}
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		return nil, fmt.Errorf("invalid actions: %w", err)
	}
	for _, a := range actions {
		switch a.Type {
		case ActionSetDueWithin, ActionAddTag, ActionSetPriority, ActionSetAssignee, ActionAddNote:
		default:
			return nil, fmt.Errorf("unsupported action type: %s", a.Type)
		}
	}
	return actions, nil
}

// EncodeConditions is the inverse of ParseConditions.
func EncodeConditions(conds []Condition) (string, error) {
	if len(conds) == 0 {
		return "", nil
	}
	b, err := json.Marshal(conds)
	if err != nil {
		return "", fmt.Errorf("invalid conditions: %w", err)
	}
	return string(b), nil
}

// EncodeActions is the inverse of ParseActions.
func EncodeActions(actions []Action) (string, error) {
	if len(actions) == 0 {
		return "", nil
	}
	b, err := json.Marshal(actions)
	if err != nil {
		return "", fmt.Errorf("invalid actions: %w", err)
	}
	return string(b), nil
}

func knownField(f string) bool {
	switch f {
	case FieldType, FieldPriority, FieldStatus, FieldTitle, FieldProjectID, FieldTags:
		return true
	}
	return false
}

func knownOp(op string) bool {
	switch op {
	case OpEq, OpNeq, OpContains, OpIn:
		return true
	}
	return false
}

func paramString(params map[string]interface{}, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%v", v)
}

func paramNumber(params map[string]interface{}, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
