package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/events"
	"github.com/spec-kit/milestone-tracker/internal/store"
)

const daysPerBoost = 3

// EscalationService recomputes current ticket priorities from milestone age
// and deadline pressure.
type EscalationService struct {
	store      *store.Store
	graph      *MilestoneGraph
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewEscalationService creates the service.
func NewEscalationService(deps Dependencies, graph *MilestoneGraph) *EscalationService {
	return &EscalationService{
		store:      deps.Store,
		graph:      graph,
		dispatcher: deps.Dispatcher,
		logger:     deps.logger(),
	}
}

// Escalate updates the current priority of every non-CLOSED ticket in every
// unblocked milestone. The result depends only on store state and now, so
// repeated calls with the same date are idempotent. It returns how many
// tickets changed.
func (s *EscalationService) Escalate(ctx context.Context, now domain.Moment) int {
	if now.IsZero() {
		return 0
	}
	changed := 0
	for _, m := range s.store.Milestones() {
		if s.graph.IsBlocked(m) {
			continue
		}
		created, err := domain.ParseDate(m.CreatedAt)
		if err != nil {
			continue
		}
		due, err := domain.ParseDate(m.DueDate)
		if err != nil {
			continue
		}
		daysActive := domain.DaysBetween(created, now.Date) + 1
		boost := daysActive / daysPerBoost
		daysToDue := domain.DaysBetween(now.Date, due)
		critical := daysToDue == 1 || daysToDue < 0

		for _, id := range m.Tickets {
			t := s.store.Ticket(id)
			if t == nil || t.IsClosed() {
				continue
			}
			next := EscalatedPriority(t.EscalationBase(), boost, critical)
			if next == t.BusinessPriority {
				continue
			}
			previous := t.BusinessPriority
			t.BusinessPriority = next
			changed++
			publish(ctx, s.dispatcher, s.logger, events.Event{
				Type:      events.EventTicketPriorityChanged,
				TicketID:  ticketRef(t.ID),
				Milestone: m.Name,
				Timestamp: now.Date,
				Payload: events.TicketPriorityChangedPayload{
					OldPriority: previous,
					NewPriority: next,
					Reason:      "escalation",
				},
			})
		}
	}
	if changed > 0 {
		s.logger.Debug("priorities escalated", zap.Int("tickets", changed), zap.String("at", now.Raw))
	}
	return changed
}

// EscalatedPriority adds boost to base, clamping at CRITICAL. critical forces
// the result to CRITICAL.
func EscalatedPriority(base domain.TicketPriority, boost int, critical bool) domain.TicketPriority {
	if critical {
		return domain.TicketPriorityCritical
	}
	if boost < 0 {
		boost = 0
	}
	return domain.PriorityFromOrdinal(base.Ordinal() + boost)
}
