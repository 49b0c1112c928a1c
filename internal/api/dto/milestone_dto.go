package dto

import (
	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/service"
)

// RepartitionView lists the milestone tickets one developer holds.
type RepartitionView struct {
	Developer       string `json:"developer"`
	AssignedTickets []int  `json:"assignedTickets"`
}

// MilestoneView is a milestone with its derived fields.
type MilestoneView struct {
	Name                 string                 `json:"name"`
	BlockingFor          []string               `json:"blockingFor"`
	DueDate              string                 `json:"dueDate"`
	CreatedAt            string                 `json:"createdAt"`
	Tickets              []int                  `json:"tickets"`
	AssignedDevs         []string               `json:"assignedDevs"`
	CreatedBy            string                 `json:"createdBy"`
	Status               domain.MilestoneStatus `json:"status"`
	IsBlocked            bool                   `json:"isBlocked"`
	DaysUntilDue         int                    `json:"daysUntilDue"`
	OverdueBy            int                    `json:"overdueBy"`
	OpenTickets          []int                  `json:"openTickets"`
	ClosedTickets        []int                  `json:"closedTickets"`
	CompletionPercentage float64                `json:"completionPercentage"`
	Repartition          []RepartitionView      `json:"repartition"`
}

// NewMilestoneView maps a snapshot.
func NewMilestoneView(s service.MilestoneSnapshot) MilestoneView {
	m := s.Milestone
	repartition := make([]RepartitionView, 0, len(s.Repartition))
	for _, r := range s.Repartition {
		repartition = append(repartition, RepartitionView{Developer: r.Developer, AssignedTickets: r.AssignedTickets})
	}
	return MilestoneView{
		Name:                 m.Name,
		BlockingFor:          m.BlockingFor,
		DueDate:              m.DueDate,
		CreatedAt:            m.CreatedAt,
		Tickets:              m.Tickets,
		AssignedDevs:         m.AssignedDevs,
		CreatedBy:            m.CreatedBy,
		Status:               m.Status,
		IsBlocked:            s.IsBlocked,
		DaysUntilDue:         s.DaysUntilDue,
		OverdueBy:            s.OverdueBy,
		OpenTickets:          s.OpenTickets,
		ClosedTickets:        s.ClosedTickets,
		CompletionPercentage: s.CompletionPercentage,
		Repartition:          repartition,
	}
}
