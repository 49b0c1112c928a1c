package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

func TestMilestoneCreateValidation(t *testing.T) {
	f := newFixture(t)
	first := f.bug(t, "Login fails", "LOW", "2025-01-01")
	f.develop(t)
	f.milestone(t, "m1", "2025-02-01", "2025-01-13", []int{first.ID}, []string{"dave"}, nil)

	tests := []struct {
		name    string
		user    string
		input   MilestoneCreateInput
		code    string
		message string
	}{
		{
			name:  "reporter",
			user:  "rita",
			input: MilestoneCreateInput{Name: "m2", DueDate: "2025-02-01"},
			code:  apperrors.CodePermissionDenied,
			message: "The user does not have permission to execute this command: " +
				"required role MANAGER; user role REPORTER.",
		},
		{
			name:    "unknown user",
			user:    "ghost",
			input:   MilestoneCreateInput{Name: "m2", DueDate: "2025-02-01"},
			code:    apperrors.CodeNotFound,
			message: "The user ghost does not exist.",
		},
		{
			name:  "blank name",
			user:  "mona",
			input: MilestoneCreateInput{Name: "  ", DueDate: "2025-02-01"},
			code:  apperrors.CodeValidation,
		},
		{
			name:  "bad due date",
			user:  "mona",
			input: MilestoneCreateInput{Name: "m2", DueDate: "soon"},
			code:  apperrors.CodeValidation,
		},
		{
			name:    "duplicate name",
			user:    "mona",
			input:   MilestoneCreateInput{Name: "m1", DueDate: "2025-02-01"},
			code:    apperrors.CodeRuleViolation,
			message: "Milestone m1 already exists.",
		},
		{
			name:    "ticket already taken",
			user:    "mona",
			input:   MilestoneCreateInput{Name: "m2", DueDate: "2025-02-01", Tickets: []int{first.ID}},
			code:    apperrors.CodeRuleViolation,
			message: "Tickets 0 already assigned to milestone m1.",
		},
		{
			name:    "missing ticket",
			user:    "mona",
			input:   MilestoneCreateInput{Name: "m2", DueDate: "2025-02-01", Tickets: []int{7}},
			code:    apperrors.CodeNotFound,
			message: "Ticket 7 does not exist.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.milestones.Create(f.ctx, tt.user, at(t, "2025-01-14"), tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tt.code), err.Error())
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}
	assert.Len(t, f.store.Milestones(), 1)
}

func TestMilestoneCycleDetection(t *testing.T) {
	f := newFixture(t)
	f.bug(t, "Login fails", "LOW", "2025-01-01")
	f.develop(t)

	_, err := f.milestones.Create(f.ctx, "mona", at(t, "2025-01-13"), MilestoneCreateInput{
		Name: "self", DueDate: "2025-02-01", BlockingFor: []string{"self"},
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRuleViolation))

	// Dangling targets are accepted.
	f.milestone(t, "a", "2025-02-01", "2025-01-13", nil, nil, []string{"b"})
	f.milestone(t, "b", "2025-02-01", "2025-01-13", nil, nil, []string{"c"})

	assert.True(t, f.graph.WouldCycle("b", []string{"a"}))
	assert.False(t, f.graph.WouldCycle("d", []string{"a"}))

	_, err = f.milestones.Create(f.ctx, "mona", at(t, "2025-01-13"), MilestoneCreateInput{
		Name: "c", DueDate: "2025-02-01", BlockingFor: []string{"a"},
	})
	require.Error(t, err)
	assert.Equal(t, "Milestone c cannot block a: blocking dependencies would form a cycle.", err.Error())
	assert.Nil(t, f.store.Milestone("c"))
}

func TestMilestoneBlockingIsOneHop(t *testing.T) {
	f := newFixture(t)
	t0 := f.bug(t, "First", "LOW", "2025-01-01")
	t1 := f.bug(t, "Second", "LOW", "2025-01-01")
	f.develop(t)

	a := f.milestone(t, "a", "2025-02-01", "2025-01-13", []int{t0.ID}, []string{"dave"}, []string{"b"})
	b := f.milestone(t, "b", "2025-02-01", "2025-01-13", []int{t1.ID}, []string{"dave"}, []string{"c"})
	c := f.milestone(t, "c", "2025-02-01", "2025-01-13", nil, []string{"dave"}, nil)

	assert.False(t, f.graph.IsBlocked(a))
	assert.True(t, f.graph.IsBlocked(b))
	assert.True(t, f.graph.IsBlocked(c))
	assert.True(t, f.graph.HasDependencies(b))
	assert.False(t, f.graph.HasDependencies(a))

	_, err := f.assignments.Assign(f.ctx, "dave", t1.ID, at(t, "2025-01-14"))
	require.Error(t, err)
	assert.Equal(t, "Cannot assign ticket 1 from blocked milestone b.", err.Error())

	f.closeTicket(t, "dave", t0.ID, "2025-01-14", "2025-01-15", "2025-01-16")
	assert.False(t, f.graph.IsBlocked(b))
	assert.Equal(t, domain.MilestoneStatusCompleted, a.Status)
	// c only waits on b, not on a.
	assert.True(t, f.graph.IsBlocked(c))
}

func TestMilestoneSnapshot(t *testing.T) {
	f := newFixture(t)
	t0 := f.bug(t, "First", "LOW", "2025-01-01")
	t1 := f.bug(t, "Second", "LOW", "2025-01-01")
	f.develop(t)
	m := f.milestone(t, "m1", "2025-01-20", "2025-01-13", []int{t0.ID, t1.ID}, []string{"dave", "sam"}, nil)
	f.closeTicket(t, "dave", t0.ID, "2025-01-14", "2025-01-15", "2025-01-16")

	snap := f.milestones.Snapshot(m, at(t, "2025-01-15"))
	assert.Equal(t, 6, snap.DaysUntilDue)
	assert.Equal(t, 0, snap.OverdueBy)
	assert.Equal(t, []int{t1.ID}, snap.OpenTickets)
	assert.Equal(t, []int{t0.ID}, snap.ClosedTickets)
	assert.Equal(t, 0.5, snap.CompletionPercentage)
	assert.Equal(t, []Repartition{
		{Developer: "dave", AssignedTickets: []int{t0.ID}},
		{Developer: "sam", AssignedTickets: []int{}},
	}, snap.Repartition)

	late := f.milestones.Snapshot(m, at(t, "2025-01-22"))
	assert.Equal(t, 0, late.DaysUntilDue)
	assert.Equal(t, 3, late.OverdueBy)
}

func TestMilestoneSnapshotCompletedUsesLatestSolve(t *testing.T) {
	f := newFixture(t)
	t0 := f.bug(t, "First", "LOW", "2025-01-01")
	f.develop(t)
	m := f.milestone(t, "m1", "2025-01-20", "2025-01-13", []int{t0.ID}, []string{"dave"}, nil)
	f.closeTicket(t, "dave", t0.ID, "2025-01-14", "2025-01-15", "2025-01-18")

	snap := f.milestones.Snapshot(m, at(t, "2025-03-01"))
	assert.Equal(t, domain.MilestoneStatusCompleted, m.Status)
	assert.Equal(t, 3, snap.DaysUntilDue)
	assert.Equal(t, 0, snap.OverdueBy)
	assert.Equal(t, 1.0, snap.CompletionPercentage)
}
