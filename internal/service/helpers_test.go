package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/milestone-tracker/internal/config"
	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/events"
	"github.com/spec-kit/milestone-tracker/internal/store"
)

type fixture struct {
	ctx           context.Context
	store         *store.Store
	dispatcher    events.Dispatcher
	graph         *MilestoneGraph
	phases        *PhaseService
	tickets       *TicketService
	milestones    *MilestoneService
	assignments   *AssignmentService
	escalation    *EscalationService
	notifications *NotificationService
	views         *ViewService
	search        *SearchService
	reports       *ReportService
}

func testUsers() []*domain.User {
	return []*domain.User{
		{Username: "rita", Role: domain.RoleReporter},
		{Username: "mona", Role: domain.RoleManager, Manager: &domain.ManagerProfile{HireDate: "2019-01-01"}},
		{Username: "dave", Role: domain.RoleDeveloper, Developer: &domain.DeveloperProfile{
			HireDate: "2021-03-01", ExpertiseArea: "BACKEND", Seniority: domain.SeniorityMid,
		}},
		{Username: "jane", Role: domain.RoleDeveloper, Developer: &domain.DeveloperProfile{
			HireDate: "2022-05-01", ExpertiseArea: "FRONTEND", Seniority: domain.SeniorityJunior,
		}},
		{Username: "sam", Role: domain.RoleDeveloper, Developer: &domain.DeveloperProfile{
			HireDate: "2020-01-15", ExpertiseArea: "FULLSTACK", Seniority: domain.SenioritySenior,
		}},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(testUsers())
	dispatcher := events.NewInMemoryDispatcher()
	deps := Dependencies{
		Store:      st,
		Dispatcher: dispatcher,
		Engine:     config.EngineConfig{TestingPhaseDays: 12},
	}
	graph := NewMilestoneGraph(st)
	phases := NewPhaseService(deps)
	milestones := NewMilestoneService(deps, graph, phases)
	assignments := NewAssignmentService(deps, graph, phases)
	notifications := NewNotificationService(deps, graph, config.NotificationConfig{})
	notifications.RegisterHandlers()

	return &fixture{
		ctx:           context.Background(),
		store:         st,
		dispatcher:    dispatcher,
		graph:         graph,
		phases:        phases,
		tickets:       NewTicketService(deps, graph, phases),
		milestones:    milestones,
		assignments:   assignments,
		escalation:    NewEscalationService(deps, graph),
		notifications: notifications,
		views:         NewViewService(deps, milestones),
		search:        NewSearchService(deps, assignments),
		reports:       NewReportService(deps),
	}
}

func at(t *testing.T, raw string) domain.Moment {
	t.Helper()
	m, err := domain.NewMoment(raw)
	require.NoError(t, err)
	return m
}

// bug reports a BACKEND bug as rita.
func (f *fixture) bug(t *testing.T, title, priority, date string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Report(f.ctx, "rita", at(t, date), TicketReportInput{
		Type:             string(domain.TicketTypeBug),
		Title:            title,
		Description:      "Steps to reproduce are attached",
		ExpertiseArea:    "BACKEND",
		BusinessPriority: priority,
		Severity:         "MODERATE",
		Frequency:        "OCCASIONAL",
	})
	require.NoError(t, err)
	return ticket
}

// develop ends the testing phase that started on 2025-01-01.
func (f *fixture) develop(t *testing.T) {
	t.Helper()
	f.phases.Sync(at(t, "2025-01-13"))
	require.Equal(t, store.PhaseDevelopment, f.store.Phase())
}

func (f *fixture) milestone(t *testing.T, name, due, created string, tickets []int, devs, blocking []string) *domain.Milestone {
	t.Helper()
	m, err := f.milestones.Create(f.ctx, "mona", at(t, created), MilestoneCreateInput{
		Name:         name,
		DueDate:      due,
		Tickets:      tickets,
		AssignedDevs: devs,
		BlockingFor:  blocking,
	})
	require.NoError(t, err)
	return m
}

// closeTicket assigns the ticket to dev and walks it to CLOSED.
func (f *fixture) closeTicket(t *testing.T, dev string, id int, assigned, resolved, closed string) {
	t.Helper()
	_, err := f.assignments.Assign(f.ctx, dev, id, at(t, assigned))
	require.NoError(t, err)
	_, err = f.tickets.ChangeStatus(f.ctx, dev, id, at(t, resolved))
	require.NoError(t, err)
	_, err = f.tickets.ChangeStatus(f.ctx, dev, id, at(t, closed))
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusClosed, f.store.Ticket(id).Status)
}
