package models

import "time"

// TicketStatus is the service-desk ticket state.
type TicketStatus string

const (
	TicketNew        TicketStatus = "New"
	TicketInProgress TicketStatus = "InProgress"
	TicketResolved   TicketStatus = "Resolved"
	TicketClosed     TicketStatus = "Closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketNew, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// Terminal reports whether the ticket no longer counts against its SLA.
func (s TicketStatus) Terminal() bool {
	return s == TicketResolved || s == TicketClosed
}

// CommentVisibility controls whether requesters can see a ticket comment.
type CommentVisibility string

const (
	VisibilityPublic   CommentVisibility = "Public"
	VisibilityInternal CommentVisibility = "Internal"
)

// Ticket activity actions.
const (
	ActivityCreated           = "created"
	ActivityStatusChanged     = "status_changed"
	ActivitySignatureAttached = "signature_attached"
)

// Ticket is the service-desk entity. ResolutionDueAt is fixed at creation
// from the priority's SLA; SignatureURL gates the Resolved state.
type Ticket struct {
	ID              string       `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Key             string       `gorm:"type:varchar(32);uniqueIndex;not null" json:"key"`
	Title           string       `gorm:"not null" json:"title"`
	Description     string       `gorm:"type:text" json:"description"`
	Type            string       `gorm:"type:varchar(32)" json:"type"`
	Priority        Priority     `gorm:"type:varchar(16);index" json:"priority"`
	Status          TicketStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	RequesterID     string       `gorm:"type:varchar(64);index" json:"requester_id"`
	RequesterName   string       `json:"requester_name"`
	ResolutionDueAt time.Time    `gorm:"index" json:"resolution_due_at"`
	SignatureURL    *string      `json:"signature_url,omitempty"`
	ResolvedAt      *time.Time   `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time   `json:"closed_at,omitempty"`
	CreatedAt       time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	// Breached is computed on read and never stored.
	Breached bool `gorm:"-" json:"breached"`

	Comments   []TicketComment  `gorm:"foreignKey:TicketID" json:"comments,omitempty"`
	Activities []TicketActivity `gorm:"foreignKey:TicketID" json:"activities,omitempty"`
}

// Signed reports whether a signature artifact is attached.
func (t *Ticket) Signed() bool {
	return t.SignatureURL != nil && *t.SignatureURL != ""
}

// TicketComment is an append-only ticket comment.
type TicketComment struct {
	ID         string            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TicketID   string            `gorm:"type:varchar(64);not null;index" json:"ticket_id"`
	UserID     string            `gorm:"type:varchar(64);index" json:"user_id"`
	UserName   string            `json:"user_name"`
	Text       string            `gorm:"type:text;not null" json:"text"`
	Visibility CommentVisibility `gorm:"type:varchar(16);not null" json:"visibility"`
	IsSystem   bool              `json:"is_system"`
	Timestamp  time.Time         `gorm:"index" json:"timestamp"`
}

// TicketActivity is one row of the canonical, append-only ticket audit log.
type TicketActivity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TicketID  string    `gorm:"type:varchar(64);not null;index" json:"ticket_id"`
	Action    string    `gorm:"type:varchar(32);not null" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	ActorName string    `json:"actor_name"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
