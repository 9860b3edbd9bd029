// Package sla holds the ticket resolution policy and the breach predicate.
package sla

import (
	"time"

	"workdesk/internal/models"
)

// Policy maps a priority to the time allowed for resolution.
type Policy struct {
	windows  map[models.Priority]time.Duration
	fallback time.Duration
}

// DefaultPolicy is 24h Critical, 48h High, 72h Medium, 120h Low.
func DefaultPolicy() Policy {
	return NewPolicy(map[models.Priority]time.Duration{
		models.PriorityCritical: 24 * time.Hour,
		models.PriorityHigh:     48 * time.Hour,
		models.PriorityMedium:   72 * time.Hour,
		models.PriorityLow:      120 * time.Hour,
	})
}

// NewPolicy builds a policy from explicit windows. Non-positive windows are
// ignored; priorities without a window fall back to the Medium window.
func NewPolicy(windows map[models.Priority]time.Duration) Policy {
	p := Policy{windows: make(map[models.Priority]time.Duration, len(windows))}
	for prio, d := range windows {
		if d > 0 {
			p.windows[prio] = d
		}
	}
	p.fallback = p.windows[models.PriorityMedium]
	if p.fallback == 0 {
		p.fallback = 72 * time.Hour
	}
	return p
}

// FromHours is NewPolicy for whole-hour windows as they appear in config.
func FromHours(critical, high, medium, low int) Policy {
	return NewPolicy(map[models.Priority]time.Duration{
		models.PriorityCritical: time.Duration(critical) * time.Hour,
		models.PriorityHigh:     time.Duration(high) * time.Hour,
		models.PriorityMedium:   time.Duration(medium) * time.Hour,
		models.PriorityLow:      time.Duration(low) * time.Hour,
	})
}

// Window returns the resolution window for priority.
func (p Policy) Window(priority models.Priority) time.Duration {
	if d, ok := p.windows[priority]; ok {
		return d
	}
	return p.fallback
}

// ResolutionDue returns the deadline for a ticket filed at createdAt.
func (p Policy) ResolutionDue(priority models.Priority, createdAt time.Time) time.Time {
	return createdAt.Add(p.Window(priority))
}

// IsBreached reports whether the ticket is past its deadline while still open.
func IsBreached(t *models.Ticket, now time.Time) bool {
	if t == nil || t.Status.Terminal() {
		return false
	}
	return now.After(t.ResolutionDueAt)
}
