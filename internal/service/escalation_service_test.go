package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/milestone-tracker/internal/domain"
)

func TestEscalatedPriority(t *testing.T) {
	assert.Equal(t, domain.TicketPriorityLow, EscalatedPriority(domain.TicketPriorityLow, 0, false))
	assert.Equal(t, domain.TicketPriorityHigh, EscalatedPriority(domain.TicketPriorityLow, 2, false))
	assert.Equal(t, domain.TicketPriorityCritical, EscalatedPriority(domain.TicketPriorityMedium, 9, false))
	assert.Equal(t, domain.TicketPriorityMedium, EscalatedPriority(domain.TicketPriorityMedium, -4, false))
	assert.Equal(t, domain.TicketPriorityCritical, EscalatedPriority(domain.TicketPriorityLow, 0, true))
}

func TestEscalateByMilestoneAge(t *testing.T) {
	f := newFixture(t)
	ticket := f.bug(t, "Login fails", "LOW", "2025-01-01")
	f.develop(t)
	f.milestone(t, "m1", "2025-03-01", "2025-01-13", []int{ticket.ID}, []string{"dave"}, nil)

	assert.Equal(t, 0, f.escalation.Escalate(f.ctx, at(t, "2025-01-14")))
	assert.Equal(t, domain.TicketPriorityLow, ticket.BusinessPriority)

	assert.Equal(t, 1, f.escalation.Escalate(f.ctx, at(t, "2025-01-15")))
	assert.Equal(t, domain.TicketPriorityMedium, ticket.BusinessPriority)

	// Same date again changes nothing.
	assert.Equal(t, 0, f.escalation.Escalate(f.ctx, at(t, "2025-01-15")))
	assert.Equal(t, domain.TicketPriorityMedium, ticket.BusinessPriority)

	f.escalation.Escalate(f.ctx, at(t, "2025-01-21"))
	assert.Equal(t, domain.TicketPriorityCritical, ticket.BusinessPriority)
	assert.Equal(t, domain.TicketPriorityLow, ticket.InitialPriority())
}

func TestEscalateNearDeadline(t *testing.T) {
	f := newFixture(t)
	ticket := f.bug(t, "Login fails", "LOW", "2025-01-01")
	f.develop(t)
	f.milestone(t, "m1", "2025-01-20", "2025-01-13", []int{ticket.ID}, []string{"dave"}, nil)

	f.escalation.Escalate(f.ctx, at(t, "2025-01-14"))
	assert.Equal(t, domain.TicketPriorityLow, ticket.BusinessPriority)

	f.escalation.Escalate(f.ctx, at(t, "2025-01-19"))
	assert.Equal(t, domain.TicketPriorityCritical, ticket.BusinessPriority)
}

func TestEscalateSkipsBlockedAndClosed(t *testing.T) {
	f := newFixture(t)
	blocker := f.bug(t, "Blocker", "LOW", "2025-01-01")
	waiting := f.bug(t, "Waiting", "LOW", "2025-01-01")
	done := f.bug(t, "Done", "LOW", "2025-01-01")
	f.develop(t)
	f.milestone(t, "a", "2025-03-01", "2025-01-13", []int{blocker.ID, done.ID}, []string{"dave"}, []string{"b"})
	f.milestone(t, "b", "2025-03-01", "2025-01-13", []int{waiting.ID}, []string{"dave"}, nil)
	f.closeTicket(t, "dave", done.ID, "2025-01-13", "2025-01-13", "2025-01-13")

	changed := f.escalation.Escalate(f.ctx, at(t, "2025-01-18"))
	require.Equal(t, 1, changed)
	assert.Equal(t, domain.TicketPriorityHigh, blocker.BusinessPriority)
	assert.Equal(t, domain.TicketPriorityLow, waiting.BusinessPriority)
	assert.Equal(t, domain.TicketPriorityLow, done.BusinessPriority)
}
