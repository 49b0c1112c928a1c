package dto

import (
	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/service"
)

// TicketView is a ticket as listed by viewTickets.
type TicketView struct {
	ID               int                   `json:"id"`
	Type             domain.TicketType     `json:"type"`
	Title            string                `json:"title"`
	BusinessPriority domain.TicketPriority `json:"businessPriority"`
	Status           domain.TicketStatus   `json:"status"`
	CreatedAt        string                `json:"createdAt"`
	SolvedAt         string                `json:"solvedAt"`
	ReportedBy       string                `json:"reportedBy"`
	AssignedTo       string                `json:"assignedTo"`
	AssignedAt       string                `json:"assignedAt"`
	Comments         []domain.Comment      `json:"comments"`
}

// AssignedTicketView omits the assignee and solve date, both implied by
// viewAssignedTickets.
type AssignedTicketView struct {
	ID               int                   `json:"id"`
	Type             domain.TicketType     `json:"type"`
	Title            string                `json:"title"`
	BusinessPriority domain.TicketPriority `json:"businessPriority"`
	Status           domain.TicketStatus   `json:"status"`
	CreatedAt        string                `json:"createdAt"`
	AssignedAt       string                `json:"assignedAt"`
	ReportedBy       string                `json:"reportedBy"`
	Comments         []domain.Comment      `json:"comments"`
}

// SearchTicketView is a TICKET search hit.
type SearchTicketView struct {
	ID               int                   `json:"id"`
	Type             domain.TicketType     `json:"type"`
	Title            string                `json:"title"`
	BusinessPriority domain.TicketPriority `json:"businessPriority"`
	Status           domain.TicketStatus   `json:"status"`
	CreatedAt        string                `json:"createdAt"`
	SolvedAt         string                `json:"solvedAt"`
	ReportedBy       string                `json:"reportedBy"`
	MatchingWords    []string              `json:"matchingWords,omitempty"`
}

// TicketHistoryView is one entry of viewTicketHistory.
type TicketHistoryView struct {
	ID       int                   `json:"id"`
	Title    string                `json:"title"`
	Status   domain.TicketStatus   `json:"status"`
	Actions  []domain.TicketAction `json:"actions"`
	Comments []domain.Comment      `json:"comments"`
}

func comments(t *domain.Ticket) []domain.Comment {
	out := make([]domain.Comment, len(t.Comments))
	copy(out, t.Comments)
	return out
}

// NewTicketView maps a ticket for viewTickets.
func NewTicketView(t *domain.Ticket) TicketView {
	return TicketView{
		ID:               t.ID,
		Type:             t.Type,
		Title:            t.Title,
		BusinessPriority: t.BusinessPriority,
		Status:           t.Status,
		CreatedAt:        t.CreatedAt,
		SolvedAt:         t.SolvedAt,
		ReportedBy:       t.ReportedBy,
		AssignedTo:       t.AssignedTo,
		AssignedAt:       t.AssignedAt,
		Comments:         comments(t),
	}
}

// NewAssignedTicketView maps a ticket for viewAssignedTickets.
func NewAssignedTicketView(t *domain.Ticket) AssignedTicketView {
	return AssignedTicketView{
		ID:               t.ID,
		Type:             t.Type,
		Title:            t.Title,
		BusinessPriority: t.BusinessPriority,
		Status:           t.Status,
		CreatedAt:        t.CreatedAt,
		AssignedAt:       t.AssignedAt,
		ReportedBy:       t.ReportedBy,
		Comments:         comments(t),
	}
}

// NewSearchTicketView maps a search hit.
func NewSearchTicketView(m service.TicketMatch) SearchTicketView {
	t := m.Ticket
	return SearchTicketView{
		ID:               t.ID,
		Type:             t.Type,
		Title:            t.Title,
		BusinessPriority: t.BusinessPriority,
		Status:           t.Status,
		CreatedAt:        t.CreatedAt,
		SolvedAt:         t.SolvedAt,
		ReportedBy:       t.ReportedBy,
		MatchingWords:    m.MatchingWords,
	}
}

// NewTicketHistoryView maps a ticket for viewTicketHistory.
func NewTicketHistoryView(t *domain.Ticket) TicketHistoryView {
	actions := make([]domain.TicketAction, len(t.History))
	copy(actions, t.History)
	return TicketHistoryView{
		ID:       t.ID,
		Title:    t.Title,
		Status:   t.Status,
		Actions:  actions,
		Comments: comments(t),
	}
}

// TicketViews maps a list with fn, never returning nil.
func TicketViews[T any](tickets []*domain.Ticket, fn func(*domain.Ticket) T) []T {
	out := make([]T, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, fn(t))
	}
	return out
}
