package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdesk/internal/models"
	"workdesk/internal/sla"
)

func newTicket(t *testing.T, f *fixture, priority models.Priority) *models.Ticket {
	t.Helper()
	ticket, err := f.tickets.Create(context.Background(), &TicketCreateRequest{Title: "VPN drops", Priority: priority}, requester)
	require.NoError(t, err)
	return ticket
}

func TestTicketCreate_CriticalSLA(t *testing.T) {
	f := newFixture(t, WorkItemOptions{})
	ticket := newTicket(t, f, models.PriorityCritical)

	assert.Regexp(t, `^TCK-[0-9A-F]{8}$`, ticket.Key)
	assert.Equal(t, models.TicketNew, ticket.Status)
	assert.True(t, ticket.ResolutionDueAt.Equal(t0.Add(24*time.Hour)))
	assert.Equal(t, requester.ID, ticket.RequesterID)
	require.Len(t, ticket.Activities, 1)
	assert.Equal(t, models.ActivityCreated, ticket.Activities[0].Action)
	assert.False(t, ticket.Breached)

	f.clock.Advance(24*time.Hour + time.Minute)
	got, err := f.tickets.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, got.Breached)
	assert.True(t, f.tickets.IsBreached(got))
	assert.True(t, sla.IsBreached(got, f.clock.Now()))
}

func TestTicketCreate_Validation(t *testing.T) {
	f := newFixture(t, WorkItemOptions{})
	ctx := context.Background()

	_, err := f.tickets.Create(ctx, &TicketCreateRequest{Title: ""}, requester)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.tickets.Create(ctx, &TicketCreateRequest{Title: "x", Priority: "P0"}, requester)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.tickets.Create(ctx, &TicketCreateRequest{Title: "x"}, Actor{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTicketTransition_SignatureGate(t *testing.T) {
	for name, viaInProgress := range map[string]bool{"from new": false, "from in progress": true} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, WorkItemOptions{})
			ctx := context.Background()
			ticket := newTicket(t, f, models.PriorityHigh)

			if viaInProgress {
				_, err := f.tickets.Transition(ctx, ticket.ID, models.TicketInProgress, agent)
				require.NoError(t, err)
			}

			_, err := f.tickets.Transition(ctx, ticket.ID, models.TicketResolved, agent)
			assert.ErrorIs(t, err, ErrInvalidTransition)

			_, err = f.tickets.AttachSignature(ctx, ticket.ID, "https://sign.example/abc.png", agent)
			require.NoError(t, err)

			f.clock.Advance(time.Hour)
			resolved, err := f.tickets.Transition(ctx, ticket.ID, models.TicketResolved, agent)
			require.NoError(t, err)
			assert.Equal(t, models.TicketResolved, resolved.Status)
			require.NotNil(t, resolved.ResolvedAt)
			assert.True(t, resolved.ResolvedAt.Equal(t0.Add(time.Hour)))
		})
	}
}

func TestTicketTransition_ActivityLog(t *testing.T) {
	f := newFixture(t, WorkItemOptions{})
	ctx := context.Background()
	ticket := newTicket(t, f, models.PriorityLow)

	_, err := f.tickets.Transition(ctx, ticket.ID, models.TicketInProgress, agent)
	require.NoError(t, err)
	_, err = f.tickets.AttachSignature(ctx, ticket.ID, "sig://1", agent)
	require.NoError(t, err)
	_, err = f.tickets.Transition(ctx, ticket.ID, models.TicketResolved, agent)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	closed, err := f.tickets.Transition(ctx, ticket.ID, models.TicketClosed, agent)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)

	got, err := f.tickets.Get(ctx, ticket.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(got.Activities))
	for _, a := range got.Activities {
		actions = append(actions, a.Action)
	}
	assert.Equal(t, []string{
		models.ActivityCreated,
		models.ActivityStatusChanged,
		models.ActivitySignatureAttached,
		models.ActivityStatusChanged,
		models.ActivityStatusChanged,
	}, actions)
	assert.Equal(t, "Resolved -> Closed", got.Activities[4].Details)
	assert.Equal(t, agent.Name, got.Activities[4].ActorName)
	assert.False(t, got.Breached, "closed tickets never breach")

	_, err = f.tickets.Transition(ctx, ticket.ID, models.TicketInProgress, agent)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.tickets.AttachSignature(ctx, ticket.ID, "sig://2", agent)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err = f.tickets.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, got.Activities, 5, "failed transitions leave no activity")
}

func TestTicketTransition_NotifiesRequester(t *testing.T) {
	f := newFixture(t, WorkItemOptions{})
	ctx := context.Background()
	ticket := newTicket(t, f, models.PriorityMedium)

	_, err := f.tickets.Transition(ctx, ticket.ID, models.TicketInProgress, agent)
	require.NoError(t, err)
	got := f.sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, requester.ID, got[0].UserID)
	assert.Equal(t, models.CategoryTicket, got[0].Category)

	_, err = f.tickets.Transition(ctx, "tck_missing", models.TicketInProgress, agent)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.tickets.Transition(ctx, ticket.ID, "Reopened", agent)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTicketAddComment_Visibility(t *testing.T) {
	f := newFixture(t, WorkItemOptions{})
	ctx := context.Background()
	ticket := newTicket(t, f, models.PriorityMedium)

	_, err := f.tickets.AddComment(ctx, ticket.ID, "checking logs", models.VisibilityInternal, agent)
	require.NoError(t, err)
	assert.Empty(t, f.sink.all(), "internal notes stay internal")

	got, err := f.tickets.AddComment(ctx, ticket.ID, "fixed, please confirm", "", agent)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, models.VisibilityInternal, got.Comments[0].Visibility)
	assert.Equal(t, models.VisibilityPublic, got.Comments[1].Visibility)
	assert.Equal(t, []string{requester.ID}, recipients(f.sink.all()))

	_, err = f.tickets.AddComment(ctx, ticket.ID, "thanks", models.VisibilityPublic, requester)
	require.NoError(t, err)
	assert.Len(t, f.sink.all(), 1, "requester is not notified of their own reply")

	_, err = f.tickets.AddComment(ctx, ticket.ID, "x", "Secret", agent)
	assert.ErrorIs(t, err, ErrValidation)
}
