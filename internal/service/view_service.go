package service

import (
	"sort"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/store"
)

// ViewService answers the read-only view commands. Callers run escalation
// and notification checks beforehand.
type ViewService struct {
	store      *store.Store
	milestones *MilestoneService
}

// NewViewService creates the service.
func NewViewService(deps Dependencies, milestones *MilestoneService) *ViewService {
	return &ViewService{store: deps.Store, milestones: milestones}
}

// Tickets lists the tickets visible to username: managers see all,
// reporters their own, developers the OPEN tickets of their milestones.
func (s *ViewService) Tickets(username string) ([]*domain.Ticket, error) {
	user, err := lookupUser(s.store, username)
	if err != nil {
		return nil, err
	}
	out := []*domain.Ticket{}
	for _, t := range s.store.Tickets() {
		switch user.Role {
		case domain.RoleManager:
			out = append(out, t)
		case domain.RoleReporter:
			if t.ReportedBy == username {
				out = append(out, t)
			}
		case domain.RoleDeveloper:
			if t.Status != domain.TicketStatusOpen {
				continue
			}
			if m := s.store.MilestoneForTicket(t.ID); m != nil && m.HasDeveloper(username) {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

// Milestones lists snapshots of the milestones visible to username.
func (s *ViewService) Milestones(username string, now domain.Moment) ([]MilestoneSnapshot, error) {
	user, err := lookupUser(s.store, username)
	if err != nil {
		return nil, err
	}
	visible := s.milestones.Visible(user)
	out := make([]MilestoneSnapshot, 0, len(visible))
	for _, m := range visible {
		out = append(out, s.milestones.Snapshot(m, now))
	}
	return out, nil
}

// AssignedTickets lists tickets assigned to username, highest priority
// first, then by id.
func (s *ViewService) AssignedTickets(username string) ([]*domain.Ticket, error) {
	if _, err := lookupUser(s.store, username); err != nil {
		return nil, err
	}
	out := []*domain.Ticket{}
	for _, t := range s.store.Tickets() {
		if t.AssignedTo == username {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].BusinessPriority.Ordinal(), out[j].BusinessPriority.Ordinal()
		if pi != pj {
			return pi > pj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// TicketHistory lists tickets the user owns or has acted on.
func (s *ViewService) TicketHistory(username string) ([]*domain.Ticket, error) {
	if _, err := lookupUser(s.store, username); err != nil {
		return nil, err
	}
	out := []*domain.Ticket{}
	for _, t := range s.store.Tickets() {
		if t.AssignedTo == username || actedOn(t, username) {
			out = append(out, t)
		}
	}
	return out, nil
}

func actedOn(t *domain.Ticket, username string) bool {
	for _, action := range t.History {
		if action.By == username {
			return true
		}
	}
	return false
}

// Notifications drains the user's inbox.
func (s *ViewService) Notifications(username string) ([]string, error) {
	user, err := lookupUser(s.store, username)
	if err != nil {
		return nil, err
	}
	return user.DrainInbox(), nil
}
