package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/events"
	"github.com/spec-kit/milestone-tracker/internal/store"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

const fullstack = "FULLSTACK"

// expertiseAllowList maps a ticket's expertise area to developer areas that
// may take it.
var expertiseAllowList = map[string][]string{
	"BACKEND":  {"BACKEND", fullstack},
	"FRONTEND": {"DESIGN", "FRONTEND", fullstack},
	"DESIGN":   {"DESIGN", "FRONTEND", fullstack},
	"DEVOPS":   {"DEVOPS", fullstack},
	"DB":       {"BACKEND", "DB", fullstack},
}

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	store      *store.Store
	graph      *MilestoneGraph
	phases     *PhaseService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps Dependencies, graph *MilestoneGraph, phases *PhaseService) *AssignmentService {
	return &AssignmentService{
		store:      deps.Store,
		graph:      graph,
		phases:     phases,
		dispatcher: deps.Dispatcher,
		logger:     deps.logger(),
	}
}

// Assign gives an OPEN ticket to the calling developer and moves it to
// IN_PROGRESS. Checks run in a fixed order and the first failure wins.
func (s *AssignmentService) Assign(ctx context.Context, username string, ticketID int, now domain.Moment) (*domain.Ticket, error) {
	s.phases.Sync(now)

	actor, err := lookupUser(s.store, username)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleDeveloper); err != nil {
		return nil, err
	}
	if s.store.Phase() == store.PhaseTesting {
		return nil, apperrors.NewPhaseViolation("Tickets can only be assigned during development phase.")
	}
	t, err := lookupTicket(s.store, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.TicketStatusOpen {
		return nil, apperrors.NewRuleViolation("Only OPEN tickets can be assigned.", map[string]any{"ticket_id": ticketID})
	}
	m := s.store.MilestoneForTicket(ticketID)
	if m == nil {
		return nil, apperrors.NewRuleViolation("Ticket is not part of any milestone.", map[string]any{"ticket_id": ticketID})
	}
	if !m.HasDeveloper(username) {
		return nil, apperrors.NewPermissionDenied(fmt.Sprintf("Developer %s is not assigned to milestone %s.", username, m.Name))
	}
	if s.graph.IsBlocked(m) {
		return nil, apperrors.NewRuleViolation(
			fmt.Sprintf("Cannot assign ticket %d from blocked milestone %s.", ticketID, m.Name),
			map[string]any{"ticket_id": ticketID, "milestone": m.Name})
	}
	if err := CheckCompatibility(actor, t); err != nil {
		return nil, err
	}

	t.AssignedTo = username
	t.AssignedAt = now.Raw
	t.AddHistory(domain.TicketAction{
		Action:    domain.ActionAssigned,
		By:        username,
		Timestamp: now.Raw,
		Milestone: m.Name,
	})
	t.AddHistory(domain.TicketAction{
		Action:    domain.ActionStatusChanged,
		From:      domain.TicketStatusOpen,
		To:        domain.TicketStatusInProgress,
		By:        username,
		Timestamp: now.Raw,
	})
	t.Status = domain.TicketStatusInProgress
	s.graph.RecomputeStatus(t.ID)

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventTicketAssigned,
		TicketID:  ticketRef(t.ID),
		Milestone: m.Name,
		Actor:     actorOf(actor),
		Timestamp: now.Date,
		Payload:   events.TicketAssignedPayload{Assignee: username, Milestone: m.Name},
	})
	return t, nil
}

// Unassign reverses an assignment: the ticket goes back to OPEN with no
// assignee. Only the current assignee may do this.
func (s *AssignmentService) Unassign(ctx context.Context, username string, ticketID int, now domain.Moment) (*domain.Ticket, error) {
	actor, err := lookupUser(s.store, username)
	if err != nil {
		return nil, err
	}
	t, err := lookupTicket(s.store, ticketID)
	if err != nil {
		return nil, err
	}
	if t.AssignedTo != username {
		return nil, apperrors.NewPermissionDenied(fmt.Sprintf("Ticket %d is not assigned to developer %s.", ticketID, username))
	}
	t.AddHistory(domain.TicketAction{
		Action:    domain.ActionDeassigned,
		By:        username,
		Timestamp: now.Raw,
	})
	t.AssignedTo = ""
	t.AssignedAt = ""
	t.SolvedAt = ""
	t.Status = domain.TicketStatusOpen
	s.graph.RecomputeStatus(t.ID)

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventTicketUnassigned,
		TicketID:  ticketRef(t.ID),
		Actor:     actorOf(actor),
		Timestamp: now.Date,
		Payload:   events.TicketAssignedPayload{Assignee: username},
	})
	return t, nil
}

// AvailableFor reports whether dev could take t right now: unassigned, in a
// milestone the developer belongs to and compatible on expertise and
// seniority.
func (s *AssignmentService) AvailableFor(dev *domain.User, t *domain.Ticket) bool {
	if !dev.IsDeveloper() || t.IsAssigned() {
		return false
	}
	m := s.store.MilestoneForTicket(t.ID)
	if m == nil || !m.HasDeveloper(dev.Username) {
		return false
	}
	return CheckCompatibility(dev, t) == nil
}

// AllowedExpertise returns the developer areas that may take a ticket in
// area, sorted. Unknown areas accept an exact match or FULLSTACK.
func AllowedExpertise(area string) []string {
	allowed, ok := expertiseAllowList[area]
	if !ok {
		allowed = []string{area, fullstack}
	}
	out := append([]string(nil), allowed...)
	sort.Strings(out)
	return out
}

// AllowedSeniorities returns the seniorities that may take t at its current
// priority, from junior to senior.
func AllowedSeniorities(t *domain.Ticket) []domain.Seniority {
	out := []domain.Seniority{}
	juniorAllowed := t.BusinessPriority != domain.TicketPriorityHigh &&
		t.BusinessPriority != domain.TicketPriorityCritical &&
		t.Type != domain.TicketTypeFeatureRequest
	if juniorAllowed {
		out = append(out, domain.SeniorityJunior)
	}
	if t.BusinessPriority != domain.TicketPriorityCritical {
		out = append(out, domain.SeniorityMid)
	}
	return append(out, domain.SenioritySenior)
}

// CheckCompatibility validates expertise and then seniority of dev for t.
func CheckCompatibility(dev *domain.User, t *domain.Ticket) error {
	if !dev.IsDeveloper() {
		return apperrors.NewPermissionDenied(fmt.Sprintf(
			"The user does not have permission to execute this command: required role %s; user role %s.",
			domain.RoleDeveloper, dev.Role))
	}
	profile := dev.Developer

	allowedAreas := AllowedExpertise(t.ExpertiseArea)
	if !containsString(allowedAreas, profile.ExpertiseArea) {
		return apperrors.NewRuleViolation(fmt.Sprintf(
			"Developer %s cannot assign ticket %d due to expertise area. Required: %s; Current: %s.",
			dev.Username, t.ID, strings.Join(allowedAreas, ", "), profile.ExpertiseArea),
			map[string]any{"required": allowedAreas, "current": profile.ExpertiseArea})
	}

	allowedLevels := AllowedSeniorities(t)
	for _, level := range allowedLevels {
		if level == profile.Seniority {
			return nil
		}
	}
	names := make([]string, len(allowedLevels))
	for i, level := range allowedLevels {
		names[i] = string(level)
	}
	return apperrors.NewRuleViolation(fmt.Sprintf(
		"Developer %s cannot assign ticket %d due to seniority level. Required: %s; Current: %s.",
		dev.Username, t.ID, strings.Join(names, ", "), profile.Seniority),
		map[string]any{"required": names, "current": string(profile.Seniority)})
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
