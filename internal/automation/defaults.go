package automation

import "workdesk/internal/models"

// DefaultRules is the catalog seeded on first migration. IDs are left empty
// for the caller to assign.
func DefaultRules() []models.AutomationRule {
	return []models.AutomationRule{
		{
			Name:        "Critical-Priority SLA",
			Description: "Critical items must be handled within 24 hours of filing.",
			IsEnabled:   true,
			Trigger:     models.TriggerOnCreate,
			Position:    10,
			Conditions:  `[{"field":"priority","op":"eq","value":"Critical"}]`,
			Actions:     `[{"type":"set_due_within","params":{"hours":24}}]`,
		},
		{
			Name:        "Incident Triage",
			Description: "Tag incidents so the on-call queue picks them up.",
			IsEnabled:   true,
			Trigger:     models.TriggerOnCreate,
			Position:    20,
			Conditions:  `[{"field":"type","op":"eq","value":"Incident"}]`,
			Actions:     `[{"type":"add_tag","params":{"tag":"incident"}}]`,
		},
	}
}
