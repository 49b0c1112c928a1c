package domain

// MilestoneStatus is ACTIVE until every ticket is CLOSED.
type MilestoneStatus string

const (
	MilestoneStatusActive    MilestoneStatus = "ACTIVE"
	MilestoneStatusCompleted MilestoneStatus = "COMPLETED"
)

// NotificationState tracks the one-shot milestone notifications. Flags only
// move from false to true.
type NotificationState struct {
	dueTomorrow bool
	unblocked   bool
}

// DueTomorrowNotified reports whether the deadline notification fired.
func (n NotificationState) DueTomorrowNotified() bool { return n.dueTomorrow }

// UnblockedNotified reports whether the unblock transition was recorded.
func (n NotificationState) UnblockedNotified() bool { return n.unblocked }

// Milestone groups tickets under a deadline. Derived values such as blocking
// state are computed by the service layer from the store, never cached here.
type Milestone struct {
	Name         string
	DueDate      string
	CreatedAt    string
	CreatedBy    string
	Tickets      []int
	AssignedDevs []string
	BlockingFor  []string
	Status       MilestoneStatus

	notifications NotificationState
}

// NewMilestone builds an ACTIVE milestone with empty slices normalized.
func NewMilestone(name, dueDate, createdAt, createdBy string, tickets []int, devs, blockingFor []string) *Milestone {
	if tickets == nil {
		tickets = []int{}
	}
	if devs == nil {
		devs = []string{}
	}
	if blockingFor == nil {
		blockingFor = []string{}
	}
	return &Milestone{
		Name:         name,
		DueDate:      dueDate,
		CreatedAt:    createdAt,
		CreatedBy:    createdBy,
		Tickets:      tickets,
		AssignedDevs: devs,
		BlockingFor:  blockingFor,
		Status:       MilestoneStatusActive,
	}
}

// Notifications returns a read-only copy of the notification flags.
func (m *Milestone) Notifications() NotificationState {
	return m.notifications
}

// MarkDueTomorrowNotified sets the deadline flag. It returns false when the
// flag was already set.
func (m *Milestone) MarkDueTomorrowNotified() bool {
	if m.notifications.dueTomorrow {
		return false
	}
	m.notifications.dueTomorrow = true
	return true
}

// MarkUnblockedNotified sets the unblock flag. It returns false when the flag
// was already set.
func (m *Milestone) MarkUnblockedNotified() bool {
	if m.notifications.unblocked {
		return false
	}
	m.notifications.unblocked = true
	return true
}

func (m *Milestone) HasTicket(id int) bool {
	for _, tid := range m.Tickets {
		if tid == id {
			return true
		}
	}
	return false
}

func (m *Milestone) HasDeveloper(username string) bool {
	for _, dev := range m.AssignedDevs {
		if dev == username {
			return true
		}
	}
	return false
}

func (m *Milestone) Blocks(name string) bool {
	for _, target := range m.BlockingFor {
		if target == name {
			return true
		}
	}
	return false
}
