package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// WorkItemType classifies a unit of work.
type WorkItemType string

const (
	TypeTask           WorkItemType = "Task"
	TypeTicket         WorkItemType = "Ticket"
	TypeServiceRequest WorkItemType = "ServiceRequest"
	TypeIncident       WorkItemType = "Incident"
	TypeApprovalCase   WorkItemType = "ApprovalCase"
	TypeCustody        WorkItemType = "Custody"
	TypeObservation    WorkItemType = "Observation"
	TypeComplaint      WorkItemType = "Complaint"
	TypeSuggestion     WorkItemType = "Suggestion"
)

func (t WorkItemType) Valid() bool {
	switch t {
	case TypeTask, TypeTicket, TypeServiceRequest, TypeIncident, TypeApprovalCase,
		TypeCustody, TypeObservation, TypeComplaint, TypeSuggestion:
		return true
	}
	return false
}

// Priority is shared by work items, tickets and notifications.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// WorkItemStatus is the lifecycle state of a work item.
type WorkItemStatus string

const (
	StatusOpen            WorkItemStatus = "Open"
	StatusInProgress      WorkItemStatus = "InProgress"
	StatusPendingApproval WorkItemStatus = "PendingApproval"
	StatusApproved        WorkItemStatus = "Approved"
	StatusRejected        WorkItemStatus = "Rejected"
	StatusDone            WorkItemStatus = "Done"
)

func (s WorkItemStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusPendingApproval, StatusApproved, StatusRejected, StatusDone:
		return true
	}
	return false
}

// Decision is the verdict recorded on a single approval step.
type Decision string

const (
	DecisionPending  Decision = "Pending"
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionPending || d == DecisionApproved || d == DecisionRejected
}

// AnonymousCreator marks items filed without an identified creator.
const AnonymousCreator = "ANONYMOUS"

// Subtask is a checklist entry carried on a work item.
type Subtask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

// ApprovalStep is one approver's slot in an approval chain. Role and
// ApproverName are snapshots taken when the chain was built.
type ApprovalStep struct {
	ID           string     `json:"id"`
	ApproverID   string     `json:"approver_id"`
	ApproverName string     `json:"approver_name"`
	Role         string     `json:"role"`
	Decision     Decision   `json:"decision"`
	DecisionDate *time.Time `json:"decision_date,omitempty"`
	Comments     string     `json:"comments,omitempty"`
}

// Comment is an append-only entry in a work item's history.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsSystem  bool      `json:"is_system"`
}

// WorkItem is the unit of work driven through the lifecycle service.
// Collections are stored as JSON columns so that a chain decision and the
// derived status land in a single row update.
type WorkItem struct {
	ID            string                            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Type          WorkItemType                      `gorm:"type:varchar(32);not null;index" json:"type"`
	Priority      Priority                          `gorm:"type:varchar(16);index" json:"priority"`
	Status        WorkItemStatus                    `gorm:"type:varchar(32);not null;index" json:"status"`
	Title         string                            `gorm:"not null" json:"title"`
	Description   string                            `gorm:"type:text" json:"description"`
	Tags          datatypes.JSONSlice[string]       `json:"tags"`
	Subtasks      datatypes.JSONSlice[Subtask]      `json:"subtasks"`
	ProjectID     string                            `gorm:"type:varchar(64);index" json:"project_id"`
	AssigneeID    *string                           `gorm:"type:varchar(64);index" json:"assignee_id,omitempty"`
	CreatorID     *string                           `gorm:"type:varchar(64);index" json:"creator_id,omitempty"`
	ApprovalChain datatypes.JSONSlice[ApprovalStep] `json:"approval_chain"`
	Comments      datatypes.JSONSlice[Comment]      `json:"comments"`
	DueDate       *time.Time                        `json:"due_date,omitempty"`
	CreatedAt     time.Time                         `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time                         `json:"updated_at"`
}

func (WorkItem) TableName() string {
	return "work_items"
}

// HasTag reports whether tag is present, ignoring case.
func (w *WorkItem) HasTag(tag string) bool {
	for _, t := range w.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can transform an item without
// aliasing the original's slices or pointers.
func (w *WorkItem) Clone() *WorkItem {
	if w == nil {
		return nil
	}
	out := *w
	out.Tags = append(datatypes.JSONSlice[string]{}, w.Tags...)
	out.Subtasks = append(datatypes.JSONSlice[Subtask]{}, w.Subtasks...)
	out.Comments = append(datatypes.JSONSlice[Comment]{}, w.Comments...)
	out.ApprovalChain = make(datatypes.JSONSlice[ApprovalStep], len(w.ApprovalChain))
	for i, step := range w.ApprovalChain {
		if step.DecisionDate != nil {
			d := *step.DecisionDate
			step.DecisionDate = &d
		}
		out.ApprovalChain[i] = step
	}
	out.AssigneeID = cloneString(w.AssigneeID)
	out.CreatorID = cloneString(w.CreatorID)
	if w.DueDate != nil {
		d := *w.DueDate
		out.DueDate = &d
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Assignee returns the assignee id or "" when unassigned.
func (w *WorkItem) Assignee() string {
	if w.AssigneeID == nil {
		return ""
	}
	return *w.AssigneeID
}

// Creator returns the creator id or "" when none was recorded.
func (w *WorkItem) Creator() string {
	if w.CreatorID == nil {
		return ""
	}
	return *w.CreatorID
}
