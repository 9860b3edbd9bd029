// Package approval derives a work item's status from its approval chain.
// Everything here is a pure function of the chain contents.
package approval

import "workdesk/internal/models"

// Aggregate reduces an approval chain to the item-level status:
// any rejection vetoes the chain, unanimous approval approves it, and
// everything else is still pending. An empty chain has nothing approved
// and reports PendingApproval.
func Aggregate(steps []models.ApprovalStep) models.WorkItemStatus {
	if len(steps) == 0 {
		return models.StatusPendingApproval
	}
	approved := 0
	for _, step := range steps {
		switch step.Decision {
		case models.DecisionRejected:
			return models.StatusRejected
		case models.DecisionApproved:
			approved++
		}
	}
	if approved == len(steps) {
		return models.StatusApproved
	}
	return models.StatusPendingApproval
}

// CurrentStep returns the index of the first Pending step in chain order,
// or -1 when no step is actionable.
func CurrentStep(steps []models.ApprovalStep) int {
	for i, step := range steps {
		if step.Decision == models.DecisionPending {
			return i
		}
	}
	return -1
}

// FindStep locates a step by id. Steps are never addressed by position.
func FindStep(steps []models.ApprovalStep, stepID string) int {
	for i, step := range steps {
		if step.ID == stepID {
			return i
		}
	}
	return -1
}

// Decided reports whether the step has left Pending.
func Decided(step models.ApprovalStep) bool {
	return step.Decision != models.DecisionPending && step.Decision != ""
}
