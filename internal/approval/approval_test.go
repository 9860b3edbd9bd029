package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"workdesk/internal/models"
)

func chain(decisions ...models.Decision) []models.ApprovalStep {
	steps := make([]models.ApprovalStep, len(decisions))
	for i, d := range decisions {
		steps[i] = models.ApprovalStep{ID: string(rune('a' + i)), ApproverID: "u" + string(rune('1'+i)), Decision: d}
	}
	return steps
}

func TestAggregate(t *testing.T) {
	const (
		P = models.DecisionPending
		A = models.DecisionApproved
		R = models.DecisionRejected
	)
	tests := []struct {
		name  string
		steps []models.ApprovalStep
		want  models.WorkItemStatus
	}{
		{"single pending", chain(P), models.StatusPendingApproval},
		{"single approved", chain(A), models.StatusApproved},
		{"single rejected", chain(R), models.StatusRejected},
		{"all approved", chain(A, A, A), models.StatusApproved},
		{"approved then pending", chain(A, P), models.StatusPendingApproval},
		{"rejection vetoes approvals", chain(A, A, R), models.StatusRejected},
		{"rejection before pending", chain(R, P), models.StatusRejected},
		{"empty chain", nil, models.StatusPendingApproval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.steps))
		})
	}
}

// Every combination of decisions over chains up to length 4 yields one of
// the three aggregate states, and Rejected whenever any step is rejected.
func TestAggregate_Totality(t *testing.T) {
	all := []models.Decision{models.DecisionPending, models.DecisionApproved, models.DecisionRejected}
	var walk func(prefix []models.Decision)
	walk = func(prefix []models.Decision) {
		if len(prefix) > 0 {
			got := Aggregate(chain(prefix...))
			hasRejected := false
			for _, d := range prefix {
				if d == models.DecisionRejected {
					hasRejected = true
				}
			}
			assert.Contains(t, []models.WorkItemStatus{models.StatusRejected, models.StatusApproved, models.StatusPendingApproval}, got)
			if hasRejected {
				assert.Equal(t, models.StatusRejected, got, "chain %v", prefix)
			}
		}
		if len(prefix) == 4 {
			return
		}
		for _, d := range all {
			walk(append(append([]models.Decision{}, prefix...), d))
		}
	}
	walk(nil)
}

func TestCurrentStep(t *testing.T) {
	assert.Equal(t, 0, CurrentStep(chain(models.DecisionPending, models.DecisionPending)))
	assert.Equal(t, 1, CurrentStep(chain(models.DecisionApproved, models.DecisionPending)))
	assert.Equal(t, -1, CurrentStep(chain(models.DecisionApproved, models.DecisionApproved)))
	assert.Equal(t, -1, CurrentStep(nil))
}

func TestFindStep(t *testing.T) {
	steps := chain(models.DecisionPending, models.DecisionPending)
	assert.Equal(t, 1, FindStep(steps, "b"))
	assert.Equal(t, -1, FindStep(steps, "zz"))
	assert.False(t, Decided(steps[0]))
	steps[0].Decision = models.DecisionRejected
	assert.True(t, Decided(steps[0]))
}
