package domain

// TicketActionType captures what changed in a history entry.
type TicketActionType string

const (
	ActionAssigned      TicketActionType = "ASSIGNED"
	ActionDeassigned    TicketActionType = "DE-ASSIGNED"
	ActionStatusChanged TicketActionType = "STATUS_CHANGED"
)

// TicketAction is an audit trail entry. From/To are set for status changes.
type TicketAction struct {
	Milestone string           `json:"milestone,omitempty"`
	From      TicketStatus     `json:"from,omitempty"`
	To        TicketStatus     `json:"to,omitempty"`
	By        string           `json:"by"`
	Timestamp string           `json:"timestamp"`
	Action    TicketActionType `json:"action"`
}
