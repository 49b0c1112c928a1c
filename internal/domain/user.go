package domain

// Role tags which profile a user carries.
type Role string

const (
	RoleReporter  Role = "REPORTER"
	RoleDeveloper Role = "DEVELOPER"
	RoleManager   Role = "MANAGER"
)

// Seniority grades developers.
type Seniority string

const (
	SeniorityJunior Seniority = "JUNIOR"
	SeniorityMid    Seniority = "MID"
	SenioritySenior Seniority = "SENIOR"
)

// DeveloperProfile is set only for DEVELOPER users.
type DeveloperProfile struct {
	HireDate      string
	ExpertiseArea string
	Seniority     Seniority
}

// ManagerProfile is set only for MANAGER users.
type ManagerProfile struct {
	HireDate     string
	Subordinates []string
}

// User is the domain model for everyone who issues commands. Exactly one of
// Developer or Manager is set for those roles; reporters carry neither.
type User struct {
	Username  string
	Email     string
	Role      Role
	Developer *DeveloperProfile
	Manager   *ManagerProfile

	inbox []string
}

func (u *User) IsDeveloper() bool { return u.Role == RoleDeveloper && u.Developer != nil }

func (u *User) IsManager() bool { return u.Role == RoleManager }

func (u *User) IsReporter() bool { return u.Role == RoleReporter }

// Notify appends a message to the user's inbox.
func (u *User) Notify(message string) {
	u.inbox = append(u.inbox, message)
}

// Inbox returns a copy of pending notifications.
func (u *User) Inbox() []string {
	out := make([]string, len(u.inbox))
	copy(out, u.inbox)
	return out
}

// DrainInbox returns pending notifications and clears the inbox.
func (u *User) DrainInbox() []string {
	out := u.inbox
	u.inbox = nil
	if out == nil {
		out = []string{}
	}
	return out
}
