package services

import (
	"context"
	"fmt"
	"strings"

	"workdesk/internal/clock"
	"workdesk/internal/metrics"
	"workdesk/internal/models"
	"workdesk/internal/sla"
	"workdesk/internal/store"
	"workdesk/pkg/utils"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ticketTransitions = map[models.TicketStatus][]models.TicketStatus{
	models.TicketNew:        {models.TicketInProgress, models.TicketResolved},
	models.TicketInProgress: {models.TicketResolved},
	models.TicketResolved:   {models.TicketClosed},
}

// TicketService 服务台工单服务
type TicketService struct {
	tickets  store.TicketStore
	notifier *Dispatcher
	policy   sla.Policy
	clock    clock.Clock
	logger   *logrus.Logger
	tracer   trace.Tracer
}

// NewTicketService 创建工单服务
func NewTicketService(tickets store.TicketStore, notifier *Dispatcher, policy sla.Policy, clk clock.Clock, logger *logrus.Logger) *TicketService {
	if logger == nil {
		logger = logrus.New()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &TicketService{
		tickets:  tickets,
		notifier: notifier,
		policy:   policy,
		clock:    clk,
		logger:   logger,
		tracer:   otel.Tracer("workdesk.ticket"),
	}
}

// TicketCreateRequest 创建工单请求
type TicketCreateRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Priority    models.Priority `json:"priority"`
}

// Create opens a ticket for the actor with its SLA deadline fixed from the
// priority.
func (s *TicketService) Create(ctx context.Context, req *TicketCreateRequest, actor Actor) (*models.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "ticket.create")
	defer span.End()

	if req == nil || strings.TrimSpace(req.Title) == "" {
		return nil, validationErrorf("title is required")
	}
	if actor.Anonymous() {
		return nil, validationErrorf("requester identity is required")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, validationErrorf("unknown priority %q", req.Priority)
	}
	ticketType := req.Type
	if ticketType == "" {
		ticketType = "general"
	}

	now := s.clock.Now()
	ticket := &models.Ticket{
		ID:              utils.GenerateID("tck"),
		Key:             utils.GenerateTicketKey(),
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Type:            ticketType,
		Priority:        priority,
		Status:          models.TicketNew,
		RequesterID:     actor.ID,
		RequesterName:   actor.DisplayName(),
		ResolutionDueAt: s.policy.ResolutionDue(priority, now),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	ticket.Activities = []models.TicketActivity{{
		Action:    models.ActivityCreated,
		Details:   fmt.Sprintf("Ticket %s opened with priority %s, due %s", ticket.Key, priority, utils.FormatTime(ticket.ResolutionDueAt)),
		ActorName: actor.DisplayName(),
		CreatedAt: now,
	}}
	span.SetAttributes(
		attribute.String("ticket.key", ticket.Key),
		attribute.String("ticket.priority", string(priority)),
	)

	created, err := s.tickets.Create(ctx, ticket)
	if err != nil {
		span.SetStatus(codes.Error, "persist failed")
		return nil, storeError(err, "ticket", ticket.ID)
	}
	s.logger.Infof("Created ticket %s (%s) for %s", created.Key, created.ID, actor.ID)
	return s.withBreach(created), nil
}

// Get returns the ticket with its comments, activities and breach flag.
func (s *TicketService) Get(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "ticket", id)
	}
	return s.withBreach(ticket), nil
}

// Transition moves a ticket along New -> InProgress -> Resolved -> Closed.
// Resolved requires an attached signature. Each move appends one activity.
func (s *TicketService) Transition(ctx context.Context, id string, to models.TicketStatus, actor Actor) (*models.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "ticket.transition")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", id), attribute.String("ticket.to", string(to)))

	if !to.Valid() {
		return nil, validationErrorf("unknown ticket status %q", to)
	}

	var from models.TicketStatus
	ticket, err := s.tickets.Update(ctx, id, func(t *models.Ticket) error {
		from = t.Status
		if !ticketTransitionAllowed(from, to) {
			return transitionErrorf("%s -> %s is not allowed", from, to)
		}
		if to == models.TicketResolved && !t.Signed() {
			return transitionErrorf("ticket %s must be signed before it can be resolved", t.Key)
		}
		now := s.clock.Now()
		t.Status = to
		t.UpdatedAt = now
		switch to {
		case models.TicketResolved:
			t.ResolvedAt = &now
		case models.TicketClosed:
			t.ClosedAt = &now
		}
		t.Activities = append(t.Activities, models.TicketActivity{
			Action:    models.ActivityStatusChanged,
			Details:   fmt.Sprintf("%s -> %s", from, to),
			ActorName: actor.DisplayName(),
			CreatedAt: now,
		})
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, storeError(err, "ticket", id)
	}
	metrics.RecordTicketTransition(string(to))
	s.logger.WithFields(logrus.Fields{"ticket": ticket.Key, "from": from, "to": to, "actor": actor.DisplayName()}).
		Info("Ticket status changed")

	if ticket.RequesterID != actor.ID {
		s.notifier.NotifyTicketStatus(ctx, ticket, from)
	}
	return s.withBreach(ticket), nil
}

func ticketTransitionAllowed(from, to models.TicketStatus) bool {
	for _, allowed := range ticketTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AttachSignature records the signature artifact that unlocks Resolved.
func (s *TicketService) AttachSignature(ctx context.Context, id, url string, actor Actor) (*models.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "ticket.attach_signature")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", id))

	url = strings.TrimSpace(url)
	if url == "" {
		return nil, validationErrorf("signature url is required")
	}
	ticket, err := s.tickets.Update(ctx, id, func(t *models.Ticket) error {
		if t.Status.Terminal() {
			return transitionErrorf("ticket %s is already %s", t.Key, t.Status)
		}
		now := s.clock.Now()
		details := "Signature attached"
		if t.Signed() {
			details = "Signature replaced"
		}
		t.SignatureURL = &url
		t.UpdatedAt = now
		t.Activities = append(t.Activities, models.TicketActivity{
			Action:    models.ActivitySignatureAttached,
			Details:   details,
			ActorName: actor.DisplayName(),
			CreatedAt: now,
		})
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, storeError(err, "ticket", id)
	}
	s.logger.Infof("Signature attached to ticket %s by %s", ticket.Key, actor.DisplayName())
	return s.withBreach(ticket), nil
}

// AddComment appends a comment. Public replies from someone other than the
// requester notify the requester.
func (s *TicketService) AddComment(ctx context.Context, id, text string, visibility models.CommentVisibility, actor Actor) (*models.Ticket, error) {
	text = strings.TrimSpace(text)
	if !utils.ValidateText(text, maxCommentLength) {
		return nil, validationErrorf("comment text must be 1-%d characters", maxCommentLength)
	}
	if actor.Anonymous() {
		return nil, validationErrorf("commenter identity is required")
	}
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if visibility != models.VisibilityPublic && visibility != models.VisibilityInternal {
		return nil, validationErrorf("unknown visibility %q", visibility)
	}

	comment := models.TicketComment{
		ID:         utils.GenerateID("tcm"),
		TicketID:   id,
		UserID:     actor.ID,
		UserName:   actor.DisplayName(),
		Text:       text,
		Visibility: visibility,
		Timestamp:  s.clock.Now(),
	}
	ticket, err := s.tickets.Update(ctx, id, func(t *models.Ticket) error {
		t.Comments = append(t.Comments, comment)
		t.UpdatedAt = comment.Timestamp
		return nil
	})
	if err != nil {
		return nil, storeError(err, "ticket", id)
	}
	if visibility == models.VisibilityPublic && ticket.RequesterID != actor.ID {
		s.notifier.NotifyTicketComment(ctx, ticket, comment)
	}
	return s.withBreach(ticket), nil
}

// IsBreached evaluates the SLA predicate against the service clock.
func (s *TicketService) IsBreached(t *models.Ticket) bool {
	return sla.IsBreached(t, s.clock.Now())
}

func (s *TicketService) withBreach(t *models.Ticket) *models.Ticket {
	t.Breached = s.IsBreached(t)
	return t
}
