package dto

import (
	"fmt"
	"strings"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

// UserRecord is one entry of a users fixture, in JSON or YAML.
type UserRecord struct {
	Username      string   `json:"username" yaml:"username"`
	Email         string   `json:"email" yaml:"email"`
	Role          string   `json:"role" yaml:"role"`
	HireDate      string   `json:"hireDate,omitempty" yaml:"hireDate,omitempty"`
	ExpertiseArea string   `json:"expertiseArea,omitempty" yaml:"expertiseArea,omitempty"`
	Seniority     string   `json:"seniority,omitempty" yaml:"seniority,omitempty"`
	Subordinates  []string `json:"subordinates,omitempty" yaml:"subordinates,omitempty"`
}

// ToDomain builds the user with the profile its role requires.
func (r UserRecord) ToDomain() (*domain.User, error) {
	username := strings.TrimSpace(r.Username)
	if username == "" {
		return nil, apperrors.NewValidationError("username is required", nil)
	}
	user := &domain.User{Username: username, Email: r.Email, Role: domain.Role(strings.ToUpper(r.Role))}
	switch user.Role {
	case domain.RoleReporter:
	case domain.RoleDeveloper:
		user.Developer = &domain.DeveloperProfile{
			HireDate:      r.HireDate,
			ExpertiseArea: r.ExpertiseArea,
			Seniority:     domain.Seniority(strings.ToUpper(r.Seniority)),
		}
	case domain.RoleManager:
		user.Manager = &domain.ManagerProfile{
			HireDate:     r.HireDate,
			Subordinates: append([]string(nil), r.Subordinates...),
		}
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown role %q for user %s", r.Role, username),
			map[string]any{"username": username, "role": r.Role})
	}
	return user, nil
}

// UsersToDomain converts a fixture, failing on the first invalid record.
func UsersToDomain(records []UserRecord) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(records))
	for _, r := range records {
		user, err := r.ToDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// DeveloperRow is a DEVELOPER search hit.
type DeveloperRow struct {
	Username      string           `json:"username"`
	HireDate      string           `json:"hireDate"`
	ExpertiseArea string           `json:"expertiseArea"`
	Seniority     domain.Seniority `json:"seniority"`
}

// NewDeveloperRow maps a developer; callers pass developers only.
func NewDeveloperRow(u *domain.User) DeveloperRow {
	row := DeveloperRow{Username: u.Username}
	if u.Developer != nil {
		row.HireDate = u.Developer.HireDate
		row.ExpertiseArea = u.Developer.ExpertiseArea
		row.Seniority = u.Developer.Seniority
	}
	return row
}
