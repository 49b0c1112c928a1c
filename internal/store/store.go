// Package store holds the in-memory object graph a single replay mutates.
// A Store is created per replay and is not safe for concurrent use.
package store

import (
	"time"

	"github.com/spec-kit/milestone-tracker/internal/domain"
)

// Phase is the project phase gating which commands are allowed.
type Phase string

const (
	PhaseTesting     Phase = "TESTING"
	PhaseDevelopment Phase = "DEVELOPMENT"
)

// Store owns users, tickets and milestones for one replay.
type Store struct {
	users      []*domain.User
	usersByKey map[string]*domain.User
	tickets    []*domain.Ticket
	milestones []*domain.Milestone
	byName     map[string]*domain.Milestone

	nextTicketID int
	phase        Phase
	phaseStart   *time.Time
}

// New returns an empty store in the testing phase.
func New(users []*domain.User) *Store {
	s := &Store{
		usersByKey: make(map[string]*domain.User, len(users)),
		byName:     make(map[string]*domain.Milestone),
		phase:      PhaseTesting,
	}
	for _, u := range users {
		if u == nil || u.Username == "" {
			continue
		}
		if _, dup := s.usersByKey[u.Username]; dup {
			continue
		}
		s.users = append(s.users, u)
		s.usersByKey[u.Username] = u
	}
	return s
}

// User returns the user or nil.
func (s *Store) User(username string) *domain.User {
	return s.usersByKey[username]
}

// Users returns users in load order.
func (s *Store) Users() []*domain.User {
	return s.users
}

// AddTicket assigns the next sequential id and stores the ticket.
func (s *Store) AddTicket(t *domain.Ticket) int {
	t.ID = s.nextTicketID
	s.nextTicketID++
	s.tickets = append(s.tickets, t)
	return t.ID
}

// Ticket returns the ticket or nil.
func (s *Store) Ticket(id int) *domain.Ticket {
	if id < 0 || id >= len(s.tickets) {
		return nil
	}
	return s.tickets[id]
}

// Tickets returns tickets ordered by id.
func (s *Store) Tickets() []*domain.Ticket {
	return s.tickets
}

// AddMilestone stores m. It returns false when the name is taken.
func (s *Store) AddMilestone(m *domain.Milestone) bool {
	if _, exists := s.byName[m.Name]; exists {
		return false
	}
	s.milestones = append(s.milestones, m)
	s.byName[m.Name] = m
	return true
}

// Milestone returns the milestone or nil.
func (s *Store) Milestone(name string) *domain.Milestone {
	return s.byName[name]
}

// Milestones returns milestones in creation order.
func (s *Store) Milestones() []*domain.Milestone {
	return s.milestones
}

// MilestoneForTicket returns the milestone that owns ticket id, or nil.
func (s *Store) MilestoneForTicket(id int) *domain.Milestone {
	for _, m := range s.milestones {
		if m.HasTicket(id) {
			return m
		}
	}
	return nil
}

func (s *Store) Phase() Phase { return s.phase }

// PhaseStart returns the start date of the current testing phase, if any.
func (s *Store) PhaseStart() (time.Time, bool) {
	if s.phaseStart == nil {
		return time.Time{}, false
	}
	return *s.phaseStart, true
}

// StartTesting enters the testing phase starting at start.
func (s *Store) StartTesting(start time.Time) {
	s.phase = PhaseTesting
	s.phaseStart = &start
}

// MarkPhaseStart records the start date only if none is set yet.
func (s *Store) MarkPhaseStart(start time.Time) {
	if s.phaseStart == nil {
		s.phaseStart = &start
	}
}

// StartDevelopment leaves the testing phase.
func (s *Store) StartDevelopment() {
	s.phase = PhaseDevelopment
}
