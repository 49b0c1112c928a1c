package domain

// BugDetails holds attributes only BUG tickets carry.
type BugDetails struct {
	Severity         string
	Frequency        string
	ExpectedBehavior string
	ActualBehavior   string
	Environment      string
	ErrorCode        *int
}

// FeatureDetails holds attributes only FEATURE_REQUEST tickets carry.
type FeatureDetails struct {
	BusinessValue  string
	CustomerDemand string
}

// UIFeedbackDetails holds attributes only UI_FEEDBACK tickets carry.
type UIFeedbackDetails struct {
	BusinessValue  string
	UIElementID    string
	UsabilityScore *int
	SuggestedFix   string
}

// Ticket is the aggregate tracked by the engine. Exactly one of Bug,
// Feature or UIFeedback is set, matching Type.
type Ticket struct {
	ID               int
	Type             TicketType
	Title            string
	Description      string
	ExpertiseArea    string
	BusinessPriority TicketPriority
	Status           TicketStatus
	ReportedBy       string
	AssignedTo       string
	AssignedAt       string
	SolvedAt         string
	CreatedAt        string
	Comments         []Comment
	History          []TicketAction

	Bug        *BugDetails
	Feature    *FeatureDetails
	UIFeedback *UIFeedbackDetails

	initialPriority TicketPriority
}

// NewTicket builds an OPEN ticket. The initial priority is fixed here and
// has no setter.
func NewTicket(ticketType TicketType, priority TicketPriority) *Ticket {
	return &Ticket{
		Type:             ticketType,
		Status:           TicketStatusOpen,
		BusinessPriority: priority,
		initialPriority:  priority,
	}
}

// InitialPriority returns the priority the ticket was reported with.
func (t *Ticket) InitialPriority() TicketPriority {
	return t.initialPriority
}

// EscalationBase is the priority escalation starts from: the initial
// priority, or the current one when no initial priority was reported.
func (t *Ticket) EscalationBase() TicketPriority {
	if t.initialPriority != "" {
		return t.initialPriority
	}
	return t.BusinessPriority
}

// IsAnonymous reports whether the ticket has no reporter.
func (t *Ticket) IsAnonymous() bool {
	return t.ReportedBy == ""
}

// IsClosed reports whether the ticket reached its terminal state.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}

// IsAssigned reports whether a developer owns the ticket.
func (t *Ticket) IsAssigned() bool {
	return t.AssignedTo != ""
}

// AddHistory appends an audit entry.
func (t *Ticket) AddHistory(action TicketAction) {
	t.History = append(t.History, action)
}

// LastStatusChange returns the most recent STATUS_CHANGED entry.
func (t *Ticket) LastStatusChange() (TicketAction, bool) {
	for i := len(t.History) - 1; i >= 0; i-- {
		if t.History[i].Action == ActionStatusChanged {
			return t.History[i], true
		}
	}
	return TicketAction{}, false
}

// BusinessValue returns the value attribute for the variants that have one.
func (t *Ticket) BusinessValue() string {
	switch t.Type {
	case TicketTypeFeatureRequest:
		if t.Feature != nil {
			return t.Feature.BusinessValue
		}
	case TicketTypeUIFeedback:
		if t.UIFeedback != nil {
			return t.UIFeedback.BusinessValue
		}
	}
	return ""
}

// Comment is a note left on a ticket.
type Comment struct {
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// RemoveLastCommentBy deletes the most recent comment written by author.
func (t *Ticket) RemoveLastCommentBy(author string) bool {
	for i := len(t.Comments) - 1; i >= 0; i-- {
		if t.Comments[i].Author == author {
			t.Comments = append(t.Comments[:i], t.Comments[i+1:]...)
			return true
		}
	}
	return false
}
