package models

import "time"

// RuleTrigger names the lifecycle event a rule reacts to.
type RuleTrigger string

// TriggerOnCreate is the only trigger the lifecycle engine evaluates.
const TriggerOnCreate RuleTrigger = "On Create"

// AutomationRule is an externally authored creation-time transform.
// Conditions and Actions hold JSON: [{field,op,value}] and [{type,params}].
type AutomationRule struct {
	ID          string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string      `gorm:"uniqueIndex;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	IsEnabled   bool        `gorm:"index" json:"is_enabled"`
	Trigger     RuleTrigger `gorm:"type:varchar(32);not null" json:"trigger"`
	Position    int         `gorm:"index" json:"position"`
	Conditions  string      `gorm:"type:text" json:"conditions"`
	Actions     string      `gorm:"type:text" json:"actions"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
