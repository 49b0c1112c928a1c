package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/events"
	"github.com/spec-kit/milestone-tracker/internal/scoring"
	"github.com/spec-kit/milestone-tracker/internal/store"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

// MilestoneService creates milestones and computes their derived fields.
type MilestoneService struct {
	store      *store.Store
	graph      *MilestoneGraph
	phases     *PhaseService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewMilestoneService creates the service.
func NewMilestoneService(deps Dependencies, graph *MilestoneGraph, phases *PhaseService) *MilestoneService {
	return &MilestoneService{
		store:      deps.Store,
		graph:      graph,
		phases:     phases,
		dispatcher: deps.Dispatcher,
		logger:     deps.logger(),
	}
}

// MilestoneCreateInput describes a createMilestone request.
type MilestoneCreateInput struct {
	Name         string
	DueDate      string
	Tickets      []int
	AssignedDevs []string
	BlockingFor  []string
}

// Create validates and stores a new milestone. Only managers may create
// milestones and only during development.
func (s *MilestoneService) Create(ctx context.Context, username string, now domain.Moment, in MilestoneCreateInput) (*domain.Milestone, error) {
	s.phases.Sync(now)

	actor, err := lookupUser(s.store, username)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, domain.RoleManager); err != nil {
		return nil, err
	}
	if s.store.Phase() != store.PhaseDevelopment {
		return nil, apperrors.NewPhaseViolation("Milestones can be created only during development phase.")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("Milestone name is required.", nil)
	}
	if _, err := domain.ParseDate(in.DueDate); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid due date %s.", in.DueDate), map[string]any{"dueDate": in.DueDate})
	}
	if s.store.Milestone(name) != nil {
		return nil, apperrors.NewRuleViolation(fmt.Sprintf("Milestone %s already exists.", name), map[string]any{"name": name})
	}

	for _, existing := range s.store.Milestones() {
		for _, id := range in.Tickets {
			if existing.HasTicket(id) {
				return nil, apperrors.NewRuleViolation(
					fmt.Sprintf("Tickets %d already assigned to milestone %s.", id, existing.Name),
					map[string]any{"ticket_id": id, "milestone": existing.Name})
			}
		}
	}
	for _, id := range in.Tickets {
		if _, err := lookupTicket(s.store, id); err != nil {
			return nil, err
		}
	}
	if s.graph.WouldCycle(name, in.BlockingFor) {
		return nil, apperrors.NewRuleViolation(
			fmt.Sprintf("Milestone %s cannot block %s: blocking dependencies would form a cycle.", name, strings.Join(in.BlockingFor, ", ")),
			map[string]any{"name": name, "blockingFor": in.BlockingFor})
	}

	m := domain.NewMilestone(name, in.DueDate, now.Raw, username,
		append([]int(nil), in.Tickets...),
		append([]string(nil), in.AssignedDevs...),
		append([]string(nil), in.BlockingFor...))
	s.store.AddMilestone(m)

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventMilestoneCreated,
		Milestone: m.Name,
		Actor:     actorOf(actor),
		Timestamp: now.Date,
		Payload: events.MilestoneCreatedPayload{
			DueDate:     m.DueDate,
			Tickets:     m.Tickets,
			BlockingFor: m.BlockingFor,
		},
	})
	return m, nil
}

// Repartition lists the tickets each assigned developer owns.
type Repartition struct {
	Developer       string
	AssignedTickets []int
}

// MilestoneSnapshot is a milestone plus every derived field at one date.
type MilestoneSnapshot struct {
	Milestone            *domain.Milestone
	IsBlocked            bool
	DaysUntilDue         int
	OverdueBy            int
	OpenTickets          []int
	ClosedTickets        []int
	CompletionPercentage float64
	Repartition          []Repartition
}

// Snapshot computes derived fields for m relative to now. COMPLETED
// milestones measure against their latest solve date instead.
func (s *MilestoneService) Snapshot(m *domain.Milestone, now domain.Moment) MilestoneSnapshot {
	snap := MilestoneSnapshot{
		Milestone:     m,
		IsBlocked:     s.graph.IsBlocked(m),
		OpenTickets:   []int{},
		ClosedTickets: []int{},
		Repartition:   []Repartition{},
	}
	for _, id := range m.Tickets {
		t := s.store.Ticket(id)
		if t == nil {
			continue
		}
		if t.IsClosed() {
			snap.ClosedTickets = append(snap.ClosedTickets, id)
		} else {
			snap.OpenTickets = append(snap.OpenTickets, id)
		}
	}
	if len(m.Tickets) > 0 {
		snap.CompletionPercentage = scoring.Round2(float64(len(snap.ClosedTickets)) / float64(len(m.Tickets)))
	}
	for _, dev := range m.AssignedDevs {
		owned := []int{}
		for _, id := range m.Tickets {
			if t := s.store.Ticket(id); t != nil && t.AssignedTo == dev {
				owned = append(owned, id)
			}
		}
		snap.Repartition = append(snap.Repartition, Repartition{Developer: dev, AssignedTickets: owned})
	}
	snap.DaysUntilDue, snap.OverdueBy = s.timeFields(m, now)
	return snap
}

func (s *MilestoneService) timeFields(m *domain.Milestone, now domain.Moment) (daysUntilDue, overdueBy int) {
	if now.IsZero() {
		return 0, 0
	}
	due, err := domain.ParseDate(m.DueDate)
	if err != nil {
		return 0, 0
	}
	reference := now.Date
	if m.Status == domain.MilestoneStatusCompleted {
		if latest, ok := s.latestSolve(m); ok {
			reference = latest
		}
	}
	diff := domain.DaysBetween(reference, due)
	if diff >= 0 {
		return diff + 1, 0
	}
	return 0, -diff + 1
}

func (s *MilestoneService) latestSolve(m *domain.Milestone) (latest time.Time, found bool) {
	for _, id := range m.Tickets {
		t := s.store.Ticket(id)
		if t == nil || t.SolvedAt == "" {
			continue
		}
		solved, err := domain.ParseDate(t.SolvedAt)
		if err != nil {
			continue
		}
		if !found || solved.After(latest) {
			latest, found = solved, true
		}
	}
	return latest, found
}

// Visible returns the milestones user may see, sorted by due date then name.
// Managers see the milestones they created; developers those they are
// assigned to; reporters none.
func (s *MilestoneService) Visible(user *domain.User) []*domain.Milestone {
	out := []*domain.Milestone{}
	for _, m := range s.store.Milestones() {
		switch user.Role {
		case domain.RoleManager:
			if m.CreatedBy == user.Username {
				out = append(out, m)
			}
		case domain.RoleDeveloper:
			if m.HasDeveloper(user.Username) {
				out = append(out, m)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DueDate != out[j].DueDate {
			return out[i].DueDate < out[j].DueDate
		}
		return out[i].Name < out[j].Name
	})
	return out
}
