package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/events"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

func TestReportTicket(t *testing.T) {
	f := newFixture(t)
	var reported []events.Event
	f.dispatcher.Subscribe(events.EventTicketReported, func(_ context.Context, e events.Event) error {
		reported = append(reported, e)
		return nil
	})

	score := 4
	ticket, err := f.tickets.Report(f.ctx, "rita", at(t, "2025-01-01"), TicketReportInput{
		Type:             "UI_FEEDBACK",
		Title:            "Checkout button hidden",
		ExpertiseArea:    "DESIGN",
		BusinessPriority: "high",
		BusinessValue:    "L",
		UsabilityScore:   &score,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, ticket.ID)
	assert.Equal(t, "rita", ticket.ReportedBy)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.BusinessPriority)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.InitialPriority())
	require.NotNil(t, ticket.UIFeedback)
	assert.Equal(t, 4, *ticket.UIFeedback.UsabilityScore)
	assert.Nil(t, ticket.Bug)

	require.Len(t, reported, 1)
	assert.NotEmpty(t, reported[0].ID)
	assert.Equal(t, 0, *reported[0].TicketID)
}

func TestReportTicketRules(t *testing.T) {
	f := newFixture(t)
	anonymous := ""

	_, err := f.tickets.Report(f.ctx, "dave", at(t, "2025-01-01"), TicketReportInput{Type: "BUG"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodePermissionDenied))

	_, err = f.tickets.Report(f.ctx, "rita", at(t, "2025-01-01"), TicketReportInput{Type: "QUESTION"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = f.tickets.Report(f.ctx, "rita", at(t, "2025-01-01"), TicketReportInput{
		Type: "FEATURE_REQUEST", ReportedBy: &anonymous,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	ticket, err := f.tickets.Report(f.ctx, "rita", at(t, "2025-01-01"), TicketReportInput{
		Type: "BUG", BusinessPriority: "CRITICAL", ReportedBy: &anonymous,
	})
	require.NoError(t, err)
	assert.True(t, ticket.IsAnonymous())
	assert.Equal(t, domain.TicketPriorityLow, ticket.BusinessPriority)
}

func TestStatusLifecycleAndUndo(t *testing.T) {
	f := newFixture(t)
	ticket := f.bug(t, "Login fails", "LOW", "2025-01-01")
	f.develop(t)
	m := f.milestone(t, "m1", "2025-02-01", "2025-01-13", []int{ticket.ID}, []string{"dave", "sam"}, nil)
	_, err := f.assignments.Assign(f.ctx, "dave", ticket.ID, at(t, "2025-01-14"))
	require.NoError(t, err)

	_, err = f.tickets.ChangeStatus(f.ctx, "sam", ticket.ID, at(t, "2025-01-15"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodePermissionDenied))

	_, err = f.tickets.ChangeStatus(f.ctx, "ghost", ticket.ID, at(t, "2025-01-15"))
	assert.Equal(t, "The user ghost does not exist.", err.Error())

	got, err := f.tickets.ChangeStatus(f.ctx, "dave", ticket.ID, at(t, "2025-01-15"))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)
	assert.Len(t, got.History, 3)

	got, err = f.tickets.UndoChangeStatus(f.ctx, "dave", ticket.ID, at(t, "2025-01-16"))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)
	require.Len(t, got.History, 4)
	assert.Equal(t, domain.TicketAction{
		Action: domain.ActionStatusChanged, From: domain.TicketStatusResolved, To: domain.TicketStatusInProgress,
		By: "dave", Timestamp: "2025-01-16",
	}, got.History[3])

	// Undoing the undo moves forward again.
	got, err = f.tickets.UndoChangeStatus(f.ctx, "dave", ticket.ID, at(t, "2025-01-16"))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)

	got, err = f.tickets.ChangeStatus(f.ctx, "dave", ticket.ID, at(t, "2025-01-17"))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, got.Status)
	assert.Equal(t, "2025-01-17", got.SolvedAt)
	assert.Equal(t, domain.MilestoneStatusCompleted, m.Status)

	depth := len(got.History)
	got, err = f.tickets.ChangeStatus(f.ctx, "dave", ticket.ID, at(t, "2025-01-18"))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, got.Status)
	assert.Len(t, got.History, depth)

	got, err = f.tickets.UndoChangeStatus(f.ctx, "dave", ticket.ID, at(t, "2025-01-18"))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)
	assert.Empty(t, got.SolvedAt)
	assert.Equal(t, domain.MilestoneStatusActive, m.Status)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	ticket := f.bug(t, "Login fails", "LOW", "2025-01-01")
	anonymous := ""
	anon, err := f.tickets.Report(f.ctx, "rita", at(t, "2025-01-01"), TicketReportInput{Type: "BUG", ReportedBy: &anonymous})
	require.NoError(t, err)

	comment, err := f.tickets.AddComment(f.ctx, "rita", ticket.ID, "Still happening on v2", at(t, "2025-01-02"))
	require.NoError(t, err)
	assert.Equal(t, domain.Comment{Author: "rita", Content: "Still happening on v2", CreatedAt: "2025-01-02"}, *comment)

	_, err = f.tickets.AddComment(f.ctx, "rita", ticket.ID, "short", at(t, "2025-01-02"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = f.tickets.AddComment(f.ctx, "rita", anon.ID, "Anonymous follow up", at(t, "2025-01-02"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRuleViolation))

	_, err = f.tickets.AddComment(f.ctx, "dave", ticket.ID, "Looking into it now", at(t, "2025-01-02"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodePermissionDenied))

	_, err = f.tickets.AddComment(f.ctx, "mona", ticket.ID, "Please prioritise this", at(t, "2025-01-03"))
	require.NoError(t, err)
	_, err = f.tickets.AddComment(f.ctx, "rita", ticket.ID, "Attached a screenshot", at(t, "2025-01-04"))
	require.NoError(t, err)
	require.Len(t, ticket.Comments, 3)

	require.NoError(t, f.tickets.UndoAddComment(f.ctx, "rita", ticket.ID))
	require.Len(t, ticket.Comments, 2)
	assert.Equal(t, "mona", ticket.Comments[1].Author)

	err = f.tickets.UndoAddComment(f.ctx, "rita", 99)
	assert.Equal(t, "Ticket 99 does not exist.", err.Error())
}

func TestCommentPreviewCutsOnRunes(t *testing.T) {
	f := newFixture(t)
	ticket := f.bug(t, "Login fails", "LOW", "2025-01-01")
	var previews []string
	f.dispatcher.Subscribe(events.EventCommentAdded, func(_ context.Context, e events.Event) error {
		previews = append(previews, e.Payload.(events.CommentAddedPayload).BodyPreview)
		return nil
	})

	body := strings.Repeat("é", 79) + "日本語"
	_, err := f.tickets.AddComment(f.ctx, "rita", ticket.ID, body, at(t, "2025-01-02"))
	require.NoError(t, err)

	require.Len(t, previews, 1)
	assert.True(t, utf8.ValidString(previews[0]))
	assert.Equal(t, strings.Repeat("é", 79)+"日", previews[0])

	assert.Equal(t, "short", truncateRunes("short", commentPreviewLength))
}
