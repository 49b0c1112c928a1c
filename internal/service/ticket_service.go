package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/events"
	"github.com/spec-kit/milestone-tracker/internal/store"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

const minCommentLength = 10

// TicketService coordinates ticket intake, status changes and comments.
type TicketService struct {
	store      *store.Store
	graph      *MilestoneGraph
	phases     *PhaseService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTicketService creates the service.
func NewTicketService(deps Dependencies, graph *MilestoneGraph, phases *PhaseService) *TicketService {
	return &TicketService{
		store:      deps.Store,
		graph:      graph,
		phases:     phases,
		dispatcher: deps.Dispatcher,
		logger:     deps.logger(),
	}
}

// TicketReportInput describes the params of a reportTicket command.
// ReportedBy nil means the caller reports under their own name; an empty
// string reports anonymously.
type TicketReportInput struct {
	Type             string  `json:"type"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	ExpertiseArea    string  `json:"expertiseArea"`
	BusinessPriority string  `json:"businessPriority"`
	ReportedBy       *string `json:"reportedBy"`

	Severity         string `json:"severity"`
	Frequency        string `json:"frequency"`
	ExpectedBehavior string `json:"expectedBehavior"`
	ActualBehavior   string `json:"actualBehavior"`
	Environment      string `json:"environment"`
	ErrorCode        *int   `json:"errorCode"`

	BusinessValue  string `json:"businessValue"`
	CustomerDemand string `json:"customerDemand"`

	UIElementID    string `json:"uiElementId"`
	UsabilityScore *int   `json:"usabilityScore"`
	SuggestedFix   string `json:"suggestedFix"`
}

// Report creates a ticket during the testing phase. The first report of a
// phase fixes its start date.
func (s *TicketService) Report(ctx context.Context, username string, now domain.Moment, in TicketReportInput) (*domain.Ticket, error) {
	actor, err := lookupUser(s.store, username)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleReporter); err != nil {
		return nil, err
	}
	if !now.IsZero() {
		s.store.MarkPhaseStart(now.Date)
	}
	s.phases.Sync(now)
	if s.store.Phase() != store.PhaseTesting {
		return nil, apperrors.NewPhaseViolation("Tickets can only be reported during testing phases.")
	}

	ticketType := domain.TicketType(in.Type)
	if !ticketType.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Unknown ticket type %s.", in.Type), map[string]any{"type": in.Type})
	}
	reporter := username
	if in.ReportedBy != nil {
		reporter = *in.ReportedBy
	}
	priority := domain.ParsePriority(in.BusinessPriority)
	if reporter == "" {
		if ticketType != domain.TicketTypeBug {
			return nil, apperrors.NewValidationError("Anonymous reports are only allowed for tickets of type BUG.", nil)
		}
		priority = domain.TicketPriorityLow
	}

	t := domain.NewTicket(ticketType, priority)
	t.Title = in.Title
	t.Description = in.Description
	t.ExpertiseArea = in.ExpertiseArea
	t.ReportedBy = reporter
	t.CreatedAt = now.Raw
	switch ticketType {
	case domain.TicketTypeBug:
		t.Bug = &domain.BugDetails{
			Severity:         in.Severity,
			Frequency:        in.Frequency,
			ExpectedBehavior: in.ExpectedBehavior,
			ActualBehavior:   in.ActualBehavior,
			Environment:      in.Environment,
			ErrorCode:        in.ErrorCode,
		}
	case domain.TicketTypeFeatureRequest:
		t.Feature = &domain.FeatureDetails{
			BusinessValue:  in.BusinessValue,
			CustomerDemand: in.CustomerDemand,
		}
	case domain.TicketTypeUIFeedback:
		t.UIFeedback = &domain.UIFeedbackDetails{
			BusinessValue:  in.BusinessValue,
			UIElementID:    in.UIElementID,
			UsabilityScore: in.UsabilityScore,
			SuggestedFix:   in.SuggestedFix,
		}
	}
	s.store.AddTicket(t)

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventTicketReported,
		TicketID:  ticketRef(t.ID),
		Actor:     actorOf(actor),
		Timestamp: now.Date,
		Payload: events.TicketReportedPayload{
			Type:      t.Type,
			Priority:  t.BusinessPriority,
			Title:     t.Title,
			Anonymous: t.IsAnonymous(),
		},
	})
	return t, nil
}

var nextStatus = map[domain.TicketStatus]domain.TicketStatus{
	domain.TicketStatusOpen:       domain.TicketStatusInProgress,
	domain.TicketStatusInProgress: domain.TicketStatusResolved,
	domain.TicketStatusResolved:   domain.TicketStatusClosed,
}

// ChangeStatus advances the ticket one step along OPEN, IN_PROGRESS,
// RESOLVED, CLOSED. Only the assignee may do this; CLOSED is terminal and
// the call is a no-op.
func (s *TicketService) ChangeStatus(ctx context.Context, username string, ticketID int, now domain.Moment) (*domain.Ticket, error) {
	actor, t, err := s.assigneeAndTicket(username, ticketID)
	if err != nil {
		return nil, err
	}
	target, ok := nextStatus[t.Status]
	if !ok {
		return t, nil
	}
	s.applyStatus(ctx, actor, t, target, now, false)
	return t, nil
}

// UndoChangeStatus reverts to the from-status of the most recent
// STATUS_CHANGED entry and records a compensating entry. Without any status
// history the call is a no-op.
func (s *TicketService) UndoChangeStatus(ctx context.Context, username string, ticketID int, now domain.Moment) (*domain.Ticket, error) {
	actor, t, err := s.assigneeAndTicket(username, ticketID)
	if err != nil {
		return nil, err
	}
	last, ok := t.LastStatusChange()
	if !ok {
		return t, nil
	}
	s.applyStatus(ctx, actor, t, last.From, now, true)
	return t, nil
}

func (s *TicketService) applyStatus(ctx context.Context, actor *domain.User, t *domain.Ticket, target domain.TicketStatus, now domain.Moment, undo bool) {
	previous := t.Status
	t.AddHistory(domain.TicketAction{
		Action:    domain.ActionStatusChanged,
		From:      previous,
		To:        target,
		By:        actor.Username,
		Timestamp: now.Raw,
	})
	t.Status = target
	if target == domain.TicketStatusClosed {
		t.SolvedAt = now.Raw
	} else {
		t.SolvedAt = ""
	}
	s.graph.RecomputeStatus(t.ID)

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventTicketStatusChanged,
		TicketID:  ticketRef(t.ID),
		Actor:     actorOf(actor),
		Timestamp: now.Date,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: previous,
			NewStatus: target,
			Undo:      undo,
		},
	})
}

func (s *TicketService) assigneeAndTicket(username string, ticketID int) (*domain.User, *domain.Ticket, error) {
	actor, err := lookupUser(s.store, username)
	if err != nil {
		return nil, nil, err
	}
	t, err := lookupTicket(s.store, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if t.AssignedTo != username {
		return nil, nil, apperrors.NewPermissionDenied(fmt.Sprintf("Ticket %d is not assigned to developer %s.", ticketID, username))
	}
	return actor, t, nil
}

// AddComment appends a comment. Developers may comment only on tickets
// assigned to them; reporters only on their own tickets that are not CLOSED.
func (s *TicketService) AddComment(ctx context.Context, username string, ticketID int, content string, now domain.Moment) (*domain.Comment, error) {
	actor, err := lookupUser(s.store, username)
	if err != nil {
		return nil, err
	}
	t, err := lookupTicket(s.store, ticketID)
	if err != nil {
		return nil, err
	}
	if t.IsAnonymous() {
		return nil, apperrors.NewRuleViolation("Comments are not allowed on anonymous tickets.", nil)
	}
	if utf8.RuneCountInString(content) < minCommentLength {
		return nil, apperrors.NewValidationError("Comment must be at least 10 characters long.", nil)
	}
	switch actor.Role {
	case domain.RoleDeveloper:
		if t.AssignedTo != username {
			return nil, apperrors.NewPermissionDenied(fmt.Sprintf("Ticket %d is not assigned to the developer %s.", ticketID, username))
		}
	case domain.RoleReporter:
		if t.IsClosed() {
			return nil, apperrors.NewRuleViolation("Reporters cannot comment on CLOSED tickets.", nil)
		}
		if t.ReportedBy != username {
			return nil, apperrors.NewPermissionDenied(fmt.Sprintf("Reporter %s cannot comment on ticket %d.", username, ticketID))
		}
	}

	comment := domain.Comment{Author: username, Content: content, CreatedAt: now.Raw}
	t.Comments = append(t.Comments, comment)

	preview := truncateRunes(content, commentPreviewLength)
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventCommentAdded,
		TicketID:  ticketRef(t.ID),
		Actor:     actorOf(actor),
		Timestamp: now.Date,
		Payload:   events.CommentAddedPayload{Author: username, BodyPreview: preview},
	})
	return &comment, nil
}

// UndoAddComment removes the caller's most recent comment on the ticket.
func (s *TicketService) UndoAddComment(_ context.Context, username string, ticketID int) error {
	if _, err := lookupUser(s.store, username); err != nil {
		return err
	}
	t, err := lookupTicket(s.store, ticketID)
	if err != nil {
		return err
	}
	if t.IsAnonymous() {
		return apperrors.NewRuleViolation("Comments are not allowed on anonymous tickets.", nil)
	}
	t.RemoveLastCommentBy(username)
	return nil
}

const commentPreviewLength = 80

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
