package domain

import "strings"

// TicketPriority enumerates business urgency, ordered LOW < CRITICAL.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// MaxPriorityOrdinal is the ordinal of CRITICAL.
const MaxPriorityOrdinal = 3

var priorityOrder = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

// Ordinal maps LOW..CRITICAL to 0..3. Unknown or empty values map to 0.
func (p TicketPriority) Ordinal() int {
	for i, candidate := range priorityOrder {
		if candidate == p {
			return i
		}
	}
	return 0
}

// Valid reports whether p is one of the four known priorities.
func (p TicketPriority) Valid() bool {
	for _, candidate := range priorityOrder {
		if candidate == p {
			return true
		}
	}
	return false
}

// PriorityFromOrdinal clamps v into [0, 3] and returns the matching priority.
func PriorityFromOrdinal(v int) TicketPriority {
	if v <= 0 {
		return TicketPriorityLow
	}
	if v >= MaxPriorityOrdinal {
		return TicketPriorityCritical
	}
	return priorityOrder[v]
}

// ParsePriority normalizes user input; unknown values yield "".
func ParsePriority(raw string) TicketPriority {
	p := TicketPriority(strings.ToUpper(strings.TrimSpace(raw)))
	if p.Valid() {
		return p
	}
	return ""
}

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketType is the immutable variant tag of a ticket.
type TicketType string

const (
	TicketTypeBug            TicketType = "BUG"
	TicketTypeFeatureRequest TicketType = "FEATURE_REQUEST"
	TicketTypeUIFeedback     TicketType = "UI_FEEDBACK"
)

// TicketTypes lists the variants in report order.
var TicketTypes = []TicketType{TicketTypeBug, TicketTypeFeatureRequest, TicketTypeUIFeedback}

// Priorities lists priorities in report order.
var Priorities = priorityOrder

// Valid reports whether t is a known ticket type.
func (t TicketType) Valid() bool {
	switch t {
	case TicketTypeBug, TicketTypeFeatureRequest, TicketTypeUIFeedback:
		return true
	default:
		return false
	}
}
