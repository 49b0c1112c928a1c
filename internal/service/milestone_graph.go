package service

import (
	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/store"
)

// MilestoneGraph derives blocking relations from live store state on every
// call. Nothing it computes is cached.
type MilestoneGraph struct {
	store *store.Store
}

// NewMilestoneGraph creates the graph view over st.
func NewMilestoneGraph(st *store.Store) *MilestoneGraph {
	return &MilestoneGraph{store: st}
}

// IsBlocked reports whether another milestone that lists m in its
// blockingFor still holds a ticket that is not CLOSED. Evaluation is one hop.
func (g *MilestoneGraph) IsBlocked(m *domain.Milestone) bool {
	for _, other := range g.store.Milestones() {
		if other == m || !other.Blocks(m.Name) {
			continue
		}
		if g.hasUnclosedTicket(other) {
			return true
		}
	}
	return false
}

// HasDependencies reports whether any other milestone lists m as blocked.
func (g *MilestoneGraph) HasDependencies(m *domain.Milestone) bool {
	for _, other := range g.store.Milestones() {
		if other != m && other.Blocks(m.Name) {
			return true
		}
	}
	return false
}

// WouldCycle reports whether adding a milestone called name that blocks the
// given targets closes a loop. Unknown target names are allowed and end the
// walk.
func (g *MilestoneGraph) WouldCycle(name string, blockingFor []string) bool {
	visited := make(map[string]bool)
	var walk func(current string) bool
	walk = func(current string) bool {
		if current == name {
			return true
		}
		if visited[current] {
			return false
		}
		visited[current] = true
		next := g.store.Milestone(current)
		if next == nil {
			return false
		}
		for _, target := range next.BlockingFor {
			if walk(target) {
				return true
			}
		}
		return false
	}
	for _, target := range blockingFor {
		if walk(target) {
			return true
		}
	}
	return false
}

// RecomputeStatus marks the milestone owning ticketID COMPLETED when every
// one of its tickets is CLOSED, ACTIVE otherwise.
func (g *MilestoneGraph) RecomputeStatus(ticketID int) {
	m := g.store.MilestoneForTicket(ticketID)
	if m == nil {
		return
	}
	if len(m.Tickets) > 0 && !g.hasUnclosedTicket(m) {
		m.Status = domain.MilestoneStatusCompleted
		return
	}
	m.Status = domain.MilestoneStatusActive
}

func (g *MilestoneGraph) hasUnclosedTicket(m *domain.Milestone) bool {
	for _, id := range m.Tickets {
		t := g.store.Ticket(id)
		if t != nil && !t.IsClosed() {
			return true
		}
	}
	return false
}
