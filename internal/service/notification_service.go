package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/config"
	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/events"
	"github.com/spec-kit/milestone-tracker/internal/store"
)

// NotificationService fires the one-shot milestone notifications and
// delivers them to user inboxes through the dispatcher.
type NotificationService struct {
	store      *store.Store
	graph      *MilestoneGraph
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps Dependencies, graph *MilestoneGraph, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		store:      deps.Store,
		graph:      graph,
		dispatcher: deps.Dispatcher,
		logger:     deps.logger(),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes inbox delivery and, when enabled, audit logging.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventMilestoneDue, n.deliverToInboxes)
	n.dispatcher.Subscribe(events.EventMilestoneUnblocked, n.deliverToInboxes)
	if !n.cfg.AuditEvents {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketReported,
		events.EventTicketStatusChanged,
		events.EventTicketPriorityChanged,
		events.EventTicketAssigned,
		events.EventTicketUnassigned,
		events.EventCommentAdded,
		events.EventMilestoneCreated,
		events.EventMilestoneDue,
		events.EventMilestoneUnblocked,
	} {
		n.dispatcher.Subscribe(eventType, n.audit)
	}
}

// Run performs the deadline check and then the unblock check.
func (n *NotificationService) Run(ctx context.Context, now domain.Moment) {
	n.CheckDeadlines(ctx, now)
	n.CheckUnblocking(ctx, now)
}

// CheckDeadlines notifies developers of unblocked milestones that are due
// tomorrow, or already overdue without ever having been flagged. Overdue
// milestones still waiting on an unblock notification are left to
// CheckUnblocking.
func (n *NotificationService) CheckDeadlines(ctx context.Context, now domain.Moment) {
	if now.IsZero() {
		return
	}
	for _, m := range n.store.Milestones() {
		if m.Notifications().DueTomorrowNotified() || n.graph.IsBlocked(m) {
			continue
		}
		due, err := domain.ParseDate(m.DueDate)
		if err != nil {
			continue
		}
		reminder := due.AddDate(0, 0, -1)

		var message string
		switch {
		case !now.Date.Before(reminder) && now.Date.Before(due):
			message = fmt.Sprintf("Milestone %s is due tomorrow. All unresolved tickets are now CRITICAL.", m.Name)
		case now.Date.After(due):
			if n.graph.HasDependencies(m) && !m.Notifications().UnblockedNotified() {
				continue
			}
			message = fmt.Sprintf("Milestone %s is overdue. All unresolved tickets are now CRITICAL.", m.Name)
		default:
			continue
		}
		if !m.MarkDueTomorrowNotified() {
			continue
		}
		n.forceCritical(ctx, m, now, "deadline")
		n.publishMilestone(ctx, events.EventMilestoneDue, m, now, message)
	}
}

// CheckUnblocking records the first time a blocked-target milestone is seen
// unblocked. When that happens after its due date, developers are notified
// and tickets forced to CRITICAL.
func (n *NotificationService) CheckUnblocking(ctx context.Context, now domain.Moment) {
	if now.IsZero() {
		return
	}
	for _, m := range n.store.Milestones() {
		if !n.graph.HasDependencies(m) || m.Notifications().UnblockedNotified() {
			continue
		}
		if n.graph.IsBlocked(m) {
			continue
		}
		if !m.MarkUnblockedNotified() {
			continue
		}
		due, err := domain.ParseDate(m.DueDate)
		if err != nil || !now.Date.After(due) {
			continue
		}
		// Covers the overdue case too; CheckDeadlines must not repeat it.
		m.MarkDueTomorrowNotified()
		message := fmt.Sprintf("Milestone %s was unblocked after due date. All active tickets are now CRITICAL.", m.Name)
		n.forceCritical(ctx, m, now, "unblocked after due date")
		n.publishMilestone(ctx, events.EventMilestoneUnblocked, m, now, message)
	}
}

func (n *NotificationService) forceCritical(ctx context.Context, m *domain.Milestone, now domain.Moment, reason string) {
	for _, id := range m.Tickets {
		t := n.store.Ticket(id)
		if t == nil || t.IsClosed() || t.BusinessPriority == domain.TicketPriorityCritical {
			continue
		}
		previous := t.BusinessPriority
		t.BusinessPriority = domain.TicketPriorityCritical
		publish(ctx, n.dispatcher, n.logger, events.Event{
			Type:      events.EventTicketPriorityChanged,
			TicketID:  ticketRef(t.ID),
			Milestone: m.Name,
			Timestamp: now.Date,
			Payload: events.TicketPriorityChangedPayload{
				OldPriority: previous,
				NewPriority: domain.TicketPriorityCritical,
				Reason:      reason,
			},
		})
	}
}

func (n *NotificationService) publishMilestone(ctx context.Context, eventType events.EventType, m *domain.Milestone, now domain.Moment, message string) {
	n.logger.Info("milestone notification",
		zap.String("milestone", m.Name),
		zap.String("event_type", string(eventType)),
		zap.String("at", now.Raw))
	publish(ctx, n.dispatcher, n.logger, events.Event{
		Type:      eventType,
		Milestone: m.Name,
		Timestamp: now.Date,
		Payload: events.MilestoneNotificationPayload{
			Message:    message,
			Recipients: append([]string(nil), m.AssignedDevs...),
		},
	})
}

func (n *NotificationService) deliverToInboxes(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MilestoneNotificationPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	for _, username := range payload.Recipients {
		if user := n.store.User(username); user != nil {
			user.Notify(payload.Message)
		}
	}
	return nil
}

func (n *NotificationService) audit(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Any("payload", event.Payload),
	}
	if event.TicketID != nil {
		fields = append(fields, zap.Int("ticket_id", *event.TicketID))
	}
	if event.Milestone != "" {
		fields = append(fields, zap.String("milestone", event.Milestone))
	}
	if event.Actor.Username != "" {
		fields = append(fields, zap.String("actor", event.Actor.Username))
	}
	n.logger.Info("domain event", fields...)
	return nil
}
