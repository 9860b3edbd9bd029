package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"workdesk/internal/approval"
	"workdesk/internal/automation"
	"workdesk/internal/clock"
	"workdesk/internal/metrics"
	"workdesk/internal/models"
	"workdesk/internal/store"
	"workdesk/pkg/utils"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxCommentLength = 4096

// workItemTransitions lists the statuses reachable through UpdateStatus.
// Approved and Rejected are only reached through approval decisions.
var workItemTransitions = map[models.WorkItemStatus][]models.WorkItemStatus{
	models.StatusOpen:       {models.StatusInProgress, models.StatusDone},
	models.StatusInProgress: {models.StatusDone, models.StatusPendingApproval},
}

// WorkItemService 工作项生命周期服务
type WorkItemService struct {
	items      store.WorkItemStore
	rules      store.RuleCatalog
	notifier   *Dispatcher
	clock      clock.Clock
	logger     *logrus.Logger
	tracer     trace.Tracer
	allowForce bool
}

// WorkItemOptions tunes lifecycle policy.
type WorkItemOptions struct {
	// AllowForce enables the force flag on UpdateStatus.
	AllowForce bool
}

// NewWorkItemService 创建工作项服务
func NewWorkItemService(items store.WorkItemStore, rules store.RuleCatalog, notifier *Dispatcher, clk clock.Clock, logger *logrus.Logger, opts WorkItemOptions) *WorkItemService {
	if logger == nil {
		logger = logrus.New()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &WorkItemService{
		items:      items,
		rules:      rules,
		notifier:   notifier,
		clock:      clk,
		logger:     logger,
		tracer:     otel.Tracer("workdesk.lifecycle"),
		allowForce: opts.AllowForce,
	}
}

// ApprovalStepInput describes one approver when building a chain. Decision
// may pre-seed a step; it defaults to Pending.
type ApprovalStepInput struct {
	ApproverID   string          `json:"approver_id"`
	ApproverName string          `json:"approver_name"`
	Role         string          `json:"role"`
	Decision     models.Decision `json:"decision"`
	Comments     string          `json:"comments"`
}

// CreateWorkItemRequest 创建工作项请求
type CreateWorkItemRequest struct {
	Type          models.WorkItemType   `json:"type"`
	Priority      models.Priority       `json:"priority"`
	Status        models.WorkItemStatus `json:"status"`
	Title         string                `json:"title" binding:"required"`
	Description   string                `json:"description"`
	Tags          []string              `json:"tags"`
	Subtasks      []string              `json:"subtasks"`
	ProjectID     string                `json:"project_id"`
	AssigneeID    *string               `json:"assignee_id"`
	DueDate       *time.Time            `json:"due_date"`
	ApprovalChain []ApprovalStepInput   `json:"approval_chain"`
}

// Create assembles, automates and persists a new work item. Notifications
// are sent only after the write succeeds.
func (s *WorkItemService) Create(ctx context.Context, req *CreateWorkItemRequest, actor Actor) (*models.WorkItem, error) {
	ctx, span := s.tracer.Start(ctx, "workitem.create")
	defer span.End()

	item, err := s.assemble(req, actor)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("workitem.id", item.ID),
		attribute.String("workitem.type", string(item.Type)),
		attribute.String("workitem.priority", string(item.Priority)),
	)

	item = s.automate(ctx, item)

	created, err := s.items.Create(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, storeError(err, "work item", item.ID)
	}
	metrics.RecordWorkItemCreated(string(created.Type))
	s.logger.Infof("Created work item %s (%s, %s)", created.ID, created.Type, created.Status)

	if assignee := created.Assignee(); assignee != "" && assignee != created.Creator() {
		s.notifier.NotifyAssigned(ctx, created)
	}
	if idx := approval.CurrentStep(created.ApprovalChain); idx >= 0 {
		s.notifier.NotifyApprovalRequired(ctx, created, created.ApprovalChain[idx])
	}
	return created, nil
}

func (s *WorkItemService) assemble(req *CreateWorkItemRequest, actor Actor) (*models.WorkItem, error) {
	if req == nil {
		return nil, validationErrorf("request body is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationErrorf("title is required")
	}

	itemType := req.Type
	if itemType == "" {
		itemType = models.TypeTask
	}
	if !itemType.Valid() {
		return nil, validationErrorf("unknown type %q", req.Type)
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, validationErrorf("unknown priority %q", req.Priority)
	}

	now := s.clock.Now()
	chain, err := buildChain(itemType, req.ApprovalChain, now)
	if err != nil {
		return nil, err
	}

	status := req.Status
	switch {
	case len(chain) > 0:
		status = approval.Aggregate(chain)
	case status == "":
		status = models.StatusOpen
	case status != models.StatusOpen && status != models.StatusInProgress:
		return nil, validationErrorf("items cannot be created in status %q", req.Status)
	}

	creator := actor.ID
	if actor.Anonymous() {
		creator = models.AnonymousCreator
	}
	var assignee *string
	if req.AssigneeID != nil && strings.TrimSpace(*req.AssigneeID) != "" {
		a := strings.TrimSpace(*req.AssigneeID)
		assignee = &a
	}

	subtasks := make([]models.Subtask, 0, len(req.Subtasks))
	for _, st := range req.Subtasks {
		if st = strings.TrimSpace(st); st != "" {
			subtasks = append(subtasks, models.Subtask{ID: utils.GenerateID("st"), Title: st})
		}
	}

	return &models.WorkItem{
		ID:            utils.GenerateID("wi"),
		Type:          itemType,
		Priority:      priority,
		Status:        status,
		Title:         title,
		Description:   req.Description,
		Tags:          utils.NormalizeTags(req.Tags),
		Subtasks:      subtasks,
		ProjectID:     req.ProjectID,
		AssigneeID:    assignee,
		CreatorID:     &creator,
		ApprovalChain: chain,
		Comments:      []models.Comment{},
		DueDate:       req.DueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func buildChain(itemType models.WorkItemType, steps []ApprovalStepInput, now time.Time) ([]models.ApprovalStep, error) {
	if itemType == models.TypeApprovalCase && len(steps) == 0 {
		return nil, validationErrorf("approval case requires at least one approver")
	}
	if itemType != models.TypeApprovalCase && len(steps) > 0 {
		return nil, validationErrorf("only approval cases carry an approval chain")
	}
	chain := make([]models.ApprovalStep, 0, len(steps))
	for i, in := range steps {
		approver := strings.TrimSpace(in.ApproverID)
		if approver == "" {
			return nil, validationErrorf("approval step %d has no approver", i+1)
		}
		decision := in.Decision
		if decision == "" {
			decision = models.DecisionPending
		}
		if !decision.Valid() {
			return nil, validationErrorf("approval step %d has unknown decision %q", i+1, in.Decision)
		}
		step := models.ApprovalStep{
			ID:           utils.GenerateID("step"),
			ApproverID:   approver,
			ApproverName: in.ApproverName,
			Role:         in.Role,
			Decision:     decision,
			Comments:     in.Comments,
		}
		if approval.Decided(step) {
			t := now
			step.DecisionDate = &t
		}
		chain = append(chain, step)
	}
	return chain, nil
}

// automate applies enabled rules and records their audit lines as system
// comments. A catalog outage leaves the item untouched.
func (s *WorkItemService) automate(ctx context.Context, item *models.WorkItem) *models.WorkItem {
	if s.rules == nil {
		return item
	}
	rules, err := s.rules.EnabledRules(ctx)
	if err != nil {
		s.logger.WithError(err).Warnf("Automation skipped for work item %s", item.ID)
		return item
	}
	out, effects := automation.Evaluate(item, rules)
	for _, e := range effects {
		out.Comments = append(out.Comments, models.Comment{
			ID:        utils.GenerateID("cmt"),
			UserID:    SystemActor.ID,
			UserName:  SystemActor.Name,
			Text:      e.Line,
			Timestamp: item.CreatedAt,
			IsSystem:  true,
		})
		metrics.RecordRuleEffect(e.Rule)
		if e.Skipped {
			s.logger.Warnf("Work item %s: %s", item.ID, e.Line)
		}
	}
	out.Tags = utils.NormalizeTags(out.Tags)
	return out
}

// Get returns the work item with the given id.
func (s *WorkItemService) Get(ctx context.Context, id string) (*models.WorkItem, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "work item", id)
	}
	return item, nil
}

// UpdateStatus moves an item along the transition table. force bypasses the
// table when the service was built with AllowForce.
func (s *WorkItemService) UpdateStatus(ctx context.Context, id string, status models.WorkItemStatus, actor Actor, force bool) (*models.WorkItem, error) {
	ctx, span := s.tracer.Start(ctx, "workitem.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("workitem.id", id),
		attribute.String("workitem.status", string(status)),
		attribute.Bool("force", force),
	)

	if !status.Valid() {
		return nil, validationErrorf("unknown status %q", status)
	}
	if force && !s.allowForce {
		return nil, transitionErrorf("forced transitions are disabled")
	}

	var from models.WorkItemStatus
	item, err := s.items.Update(ctx, id, func(it *models.WorkItem) error {
		from = it.Status
		if !force {
			if err := checkTransition(it, status); err != nil {
				return err
			}
		}
		it.Status = status
		it.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, storeError(err, "work item", id)
	}

	entry := s.logger.WithFields(logrus.Fields{"work_item": id, "from": from, "to": status, "actor": actor.DisplayName()})
	if force {
		entry.Warn("Work item status forced")
	} else {
		entry.Info("Work item status updated")
	}
	if from != status {
		s.notifier.NotifyStatusChanged(ctx, item, from)
	}
	return item, nil
}

func checkTransition(item *models.WorkItem, to models.WorkItemStatus) error {
	for _, allowed := range workItemTransitions[item.Status] {
		if allowed != to {
			continue
		}
		if to == models.StatusPendingApproval &&
			(len(item.ApprovalChain) == 0 || approval.Aggregate(item.ApprovalChain) != models.StatusPendingApproval) {
			return transitionErrorf("item %s has no pending approval chain", item.ID)
		}
		return nil
	}
	return transitionErrorf("%s -> %s is not allowed", item.Status, to)
}

// AddComment appends a human comment and notifies the assignee and creator,
// skipping anyone who is the commenter.
func (s *WorkItemService) AddComment(ctx context.Context, id, text string, actor Actor) (*models.WorkItem, error) {
	ctx, span := s.tracer.Start(ctx, "workitem.add_comment")
	defer span.End()
	span.SetAttributes(attribute.String("workitem.id", id))

	text = strings.TrimSpace(text)
	if !utils.ValidateText(text, maxCommentLength) {
		return nil, validationErrorf("comment text must be 1-%d characters", maxCommentLength)
	}
	if actor.Anonymous() {
		return nil, validationErrorf("commenter identity is required")
	}

	comment := models.Comment{
		ID:        utils.GenerateID("cmt"),
		UserID:    actor.ID,
		UserName:  actor.DisplayName(),
		Text:      text,
		Timestamp: s.clock.Now(),
	}
	item, err := s.items.Update(ctx, id, func(it *models.WorkItem) error {
		it.Comments = append(it.Comments, comment)
		it.UpdatedAt = comment.Timestamp
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, storeError(err, "work item", id)
	}
	s.logger.Infof("Comment %s added to work item %s by %s", comment.ID, id, actor.ID)

	for _, recipient := range commentRecipients(item, actor.ID) {
		s.notifier.NotifyNewComment(ctx, item, recipient, comment)
	}
	return item, nil
}

// commentRecipients returns at most two distinct users, none of whom is the
// commenter. The creator is only told when the commenter is neither the
// assignee nor the creator.
func commentRecipients(item *models.WorkItem, commenter string) []string {
	var out []string
	assignee, creator := item.Assignee(), creatorRecipient(item)
	if assignee != "" && assignee != commenter {
		out = append(out, assignee)
	}
	if creator != "" && commenter != assignee && commenter != creator && creator != assignee {
		out = append(out, creator)
	}
	return out
}

// SubmitApprovalDecision records a decision on one step and re-derives the
// item status from the chain in the same write.
func (s *WorkItemService) SubmitApprovalDecision(ctx context.Context, itemID, stepID string, decision models.Decision, comments string, actor Actor) (*models.WorkItem, error) {
	ctx, span := s.tracer.Start(ctx, "workitem.submit_decision")
	defer span.End()
	span.SetAttributes(
		attribute.String("workitem.id", itemID),
		attribute.String("step.id", stepID),
		attribute.String("decision", string(decision)),
	)

	if decision != models.DecisionApproved && decision != models.DecisionRejected {
		return nil, validationErrorf("decision must be %s or %s", models.DecisionApproved, models.DecisionRejected)
	}

	var decided models.ApprovalStep
	item, err := s.items.Update(ctx, itemID, func(it *models.WorkItem) error {
		if len(it.ApprovalChain) == 0 {
			return fmt.Errorf("work item %s has no approval chain: %w", itemID, ErrNotFound)
		}
		idx := approval.FindStep(it.ApprovalChain, stepID)
		if idx < 0 {
			return fmt.Errorf("step %s on work item %s: %w", stepID, itemID, ErrStepNotFound)
		}
		if approval.Decided(it.ApprovalChain[idx]) {
			return fmt.Errorf("step %s is %s: %w", stepID, it.ApprovalChain[idx].Decision, ErrAlreadyDecided)
		}
		now := s.clock.Now()
		it.ApprovalChain[idx].Decision = decision
		it.ApprovalChain[idx].Comments = comments
		it.ApprovalChain[idx].DecisionDate = &now
		it.Status = approval.Aggregate(it.ApprovalChain)
		it.UpdatedAt = now
		decided = it.ApprovalChain[idx]
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, storeError(err, "work item", itemID)
	}
	metrics.RecordApprovalDecision(string(decision))
	s.logger.WithFields(logrus.Fields{
		"work_item": itemID,
		"step":      stepID,
		"decision":  decision,
		"status":    item.Status,
		"actor":     actor.DisplayName(),
	}).Info("Approval decision recorded")

	s.notifier.NotifyDecision(ctx, item, decided)
	if item.Status == models.StatusPendingApproval {
		if idx := approval.CurrentStep(item.ApprovalChain); idx >= 0 {
			s.notifier.NotifyApprovalRequired(ctx, item, item.ApprovalChain[idx])
		}
	}
	return item, nil
}
