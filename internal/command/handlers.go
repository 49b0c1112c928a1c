package command

import (
	"context"

	"github.com/spec-kit/milestone-tracker/internal/api/dto"
	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/service"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

type handlerFunc func(ctx context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error)

var handlers = map[string]handlerFunc{
	StartTestingPhase:          startTestingPhase,
	ReportTicket:               reportTicket,
	ViewTickets:                viewTickets,
	CreateMilestone:            createMilestone,
	ViewMilestones:             viewMilestones,
	AssignTicket:               assignTicket,
	ViewAssignedTickets:        viewAssignedTickets,
	UndoAssignTicket:           undoAssignTicket,
	AddComment:                 addComment,
	UndoAddComment:             undoAddComment,
	ChangeStatus:               changeStatus,
	UndoChangeStatus:           undoChangeStatus,
	ViewTicketHistory:          viewTicketHistory,
	Search:                     search,
	ViewNotifications:          viewNotifications,
	CustomerImpactReport:       customerImpactReport,
	TicketRiskReport:           ticketRiskReport,
	ResolutionEfficiencyReport: resolutionEfficiencyReport,
	AppStabilityReport:         appStabilityReport,
	PerformanceReport:          performanceReport,
}

func ticketID(cmd Command) (int, error) {
	if cmd.TicketID == nil {
		return 0, apperrors.NewValidationError("ticketID is required.", nil)
	}
	return *cmd.TicketID, nil
}

func startTestingPhase(ctx context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	return nil, s.phases.StartTesting(ctx, cmd.Username, now)
}

func reportTicket(ctx context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	_, err := s.tickets.Report(ctx, cmd.Username, now, cmd.Params)
	return nil, err
}

func createMilestone(ctx context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	_, err := s.milestones.Create(ctx, cmd.Username, now, service.MilestoneCreateInput{
		Name:         cmd.Name,
		DueDate:      cmd.DueDate,
		Tickets:      cmd.Tickets,
		AssignedDevs: cmd.AssignedDevs,
		BlockingFor:  cmd.BlockingFor,
	})
	return nil, err
}

func assignTicket(ctx context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	id, err := ticketID(cmd)
	if err != nil {
		return nil, err
	}
	_, err = s.assignments.Assign(ctx, cmd.Username, id, now)
	return nil, err
}

func undoAssignTicket(ctx context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	id, err := ticketID(cmd)
	if err != nil {
		return nil, err
	}
	_, err = s.assignments.Unassign(ctx, cmd.Username, id, now)
	return nil, err
}

func addComment(ctx context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	id, err := ticketID(cmd)
	if err != nil {
		return nil, err
	}
	_, err = s.tickets.AddComment(ctx, cmd.Username, id, cmd.Comment, now)
	return nil, err
}

func undoAddComment(ctx context.Context, s *session, cmd Command, _ domain.Moment) ([]Field, error) {
	id, err := ticketID(cmd)
	if err != nil {
		return nil, err
	}
	return nil, s.tickets.UndoAddComment(ctx, cmd.Username, id)
}

func changeStatus(ctx context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	id, err := ticketID(cmd)
	if err != nil {
		return nil, err
	}
	_, err = s.tickets.ChangeStatus(ctx, cmd.Username, id, now)
	return nil, err
}

func undoChangeStatus(ctx context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	id, err := ticketID(cmd)
	if err != nil {
		return nil, err
	}
	_, err = s.tickets.UndoChangeStatus(ctx, cmd.Username, id, now)
	return nil, err
}

func viewTickets(_ context.Context, s *session, cmd Command, _ domain.Moment) ([]Field, error) {
	tickets, err := s.views.Tickets(cmd.Username)
	if err != nil {
		return nil, err
	}
	return []Field{{Key: "tickets", Value: dto.TicketViews(tickets, dto.NewTicketView)}}, nil
}

func viewMilestones(_ context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	snapshots, err := s.views.Milestones(cmd.Username, now)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MilestoneView, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, dto.NewMilestoneView(snap))
	}
	return []Field{{Key: "milestones", Value: out}}, nil
}

func viewAssignedTickets(_ context.Context, s *session, cmd Command, _ domain.Moment) ([]Field, error) {
	tickets, err := s.views.AssignedTickets(cmd.Username)
	if err != nil {
		return nil, err
	}
	return []Field{{Key: "assignedTickets", Value: dto.TicketViews(tickets, dto.NewAssignedTicketView)}}, nil
}

func viewTicketHistory(_ context.Context, s *session, cmd Command, _ domain.Moment) ([]Field, error) {
	tickets, err := s.views.TicketHistory(cmd.Username)
	if err != nil {
		return nil, err
	}
	return []Field{{Key: "ticketHistory", Value: dto.TicketViews(tickets, dto.NewTicketHistoryView)}}, nil
}

func viewNotifications(_ context.Context, s *session, cmd Command, _ domain.Moment) ([]Field, error) {
	messages, err := s.views.Notifications(cmd.Username)
	if err != nil {
		return nil, err
	}
	return []Field{{Key: "notifications", Value: messages}}, nil
}

func search(_ context.Context, s *session, cmd Command, _ domain.Moment) ([]Field, error) {
	res, err := s.search.Search(cmd.Username, cmd.SearchType, cmd.Filters)
	if err != nil {
		return nil, err
	}
	var results any
	switch res.Type {
	case service.SearchDevelopers:
		rows := make([]dto.DeveloperRow, 0, len(res.Developers))
		for _, u := range res.Developers {
			rows = append(rows, dto.NewDeveloperRow(u))
		}
		results = rows
	default:
		hits := make([]dto.SearchTicketView, 0, len(res.Tickets))
		for _, m := range res.Tickets {
			hits = append(hits, dto.NewSearchTicketView(m))
		}
		results = hits
	}
	return []Field{
		{Key: "searchType", Value: res.Type},
		{Key: "results", Value: results},
	}, nil
}

func report(value any, err error) ([]Field, error) {
	if err != nil {
		return nil, err
	}
	return []Field{{Key: "report", Value: value}}, nil
}

func customerImpactReport(_ context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	return report(s.reports.CustomerImpact(cmd.Username, now))
}

func ticketRiskReport(_ context.Context, s *session, cmd Command, _ domain.Moment) ([]Field, error) {
	return report(s.reports.Risk(cmd.Username))
}

func resolutionEfficiencyReport(_ context.Context, s *session, cmd Command, _ domain.Moment) ([]Field, error) {
	return report(s.reports.ResolutionEfficiency(cmd.Username))
}

func appStabilityReport(_ context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	return report(s.reports.AppStability(cmd.Username, now))
}

func performanceReport(_ context.Context, s *session, cmd Command, now domain.Moment) ([]Field, error) {
	return report(s.reports.Performance(cmd.Username, now))
}
