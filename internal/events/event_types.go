package events

import (
	"time"

	"github.com/spec-kit/milestone-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketReported        EventType = "ticket_reported"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketUnassigned      EventType = "ticket_unassigned"
	EventCommentAdded          EventType = "comment_added"
	EventMilestoneCreated      EventType = "milestone_created"
	EventMilestoneDue          EventType = "milestone_due"
	EventMilestoneUnblocked    EventType = "milestone_unblocked"
)

// Actor encapsulates actor metadata for an event. Scheduler events have no
// username.
type Actor struct {
	Username string      `json:"username,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services. Timestamp is the
// command date, never wall-clock time.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  *int        `json:"ticket_id,omitempty"`
	Milestone string      `json:"milestone,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketReportedPayload payload.
type TicketReportedPayload struct {
	Type      domain.TicketType     `json:"type"`
	Priority  domain.TicketPriority `json:"priority"`
	Title     string                `json:"title"`
	Anonymous bool                  `json:"anonymous"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Undo      bool                `json:"undo,omitempty"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
	Reason      string                `json:"reason"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Assignee  string `json:"assignee"`
	Milestone string `json:"milestone"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	Author      string `json:"author"`
	BodyPreview string `json:"body_preview"`
}

// MilestoneCreatedPayload payload.
type MilestoneCreatedPayload struct {
	DueDate     string   `json:"due_date"`
	Tickets     []int    `json:"tickets"`
	BlockingFor []string `json:"blocking_for"`
}

// MilestoneNotificationPayload carries the message delivered to every
// recipient inbox.
type MilestoneNotificationPayload struct {
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}
