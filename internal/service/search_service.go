package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/store"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

// SearchType selects what a search returns.
type SearchType string

const (
	SearchDevelopers SearchType = "DEVELOPER"
	SearchTickets    SearchType = "TICKET"
)

// SearchFilters are the optional filters of a search command. Unset fields
// do not filter.
type SearchFilters struct {
	SearchType             string   `json:"searchType"`
	ExpertiseArea          string   `json:"expertiseArea"`
	Seniority              string   `json:"seniority"`
	Type                   string   `json:"type"`
	BusinessPriority       string   `json:"businessPriority"`
	CreatedAfter           string   `json:"createdAfter"`
	Keywords               []string `json:"keywords"`
	AvailableForAssignment bool     `json:"availableForAssignment"`
}

// TicketMatch is a search hit with the keywords it matched.
type TicketMatch struct {
	Ticket        *domain.Ticket
	MatchingWords []string
}

// SearchResult holds the hits of one search; only the slice matching Type
// is populated.
type SearchResult struct {
	Type       SearchType
	Developers []*domain.User
	Tickets    []TicketMatch
}

// SearchService filters developers and open tickets.
type SearchService struct {
	store       *store.Store
	assignments *AssignmentService
}

// NewSearchService creates the service.
func NewSearchService(deps Dependencies, assignments *AssignmentService) *SearchService {
	return &SearchService{store: deps.Store, assignments: assignments}
}

// Search runs a DEVELOPER or TICKET search for username.
func (s *SearchService) Search(username string, searchType string, filters SearchFilters) (SearchResult, error) {
	user, err := lookupUser(s.store, username)
	if err != nil {
		return SearchResult{}, err
	}
	if searchType == "" {
		searchType = filters.SearchType
	}
	switch SearchType(searchType) {
	case SearchDevelopers:
		return SearchResult{Type: SearchDevelopers, Developers: s.developers(filters)}, nil
	case SearchTickets:
		matches, err := s.tickets(user, filters)
		if err != nil {
			return SearchResult{}, err
		}
		return SearchResult{Type: SearchTickets, Tickets: matches}, nil
	default:
		return SearchResult{}, apperrors.NewValidationError(fmt.Sprintf("Unknown search type %s.", searchType), map[string]any{"searchType": searchType})
	}
}

func (s *SearchService) developers(filters SearchFilters) []*domain.User {
	out := []*domain.User{}
	for _, u := range s.store.Users() {
		if !u.IsDeveloper() {
			continue
		}
		if filters.ExpertiseArea != "" && filters.ExpertiseArea != u.Developer.ExpertiseArea {
			continue
		}
		if filters.Seniority != "" && filters.Seniority != string(u.Developer.Seniority) {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Developer.HireDate < out[j].Developer.HireDate
	})
	return out
}

func (s *SearchService) tickets(user *domain.User, filters SearchFilters) ([]TicketMatch, error) {
	var createdAfter domain.Moment
	if filters.CreatedAfter != "" {
		parsed, err := domain.NewMoment(filters.CreatedAfter)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid createdAfter date %s.", filters.CreatedAfter), nil)
		}
		createdAfter = parsed
	}

	out := []TicketMatch{}
	for _, t := range s.store.Tickets() {
		if t.Status != domain.TicketStatusOpen {
			continue
		}
		if filters.Type != "" && filters.Type != string(t.Type) {
			continue
		}
		if filters.BusinessPriority != "" && filters.BusinessPriority != string(t.BusinessPriority) {
			continue
		}
		if !createdAfter.IsZero() {
			created, err := domain.ParseDate(t.CreatedAt)
			if err != nil || !created.After(createdAfter.Date) {
				continue
			}
		}
		if filters.AvailableForAssignment && !s.assignments.AvailableFor(user, t) {
			continue
		}
		var matched []string
		if len(filters.Keywords) > 0 {
			matched = matchKeywords(t, filters.Keywords)
			if len(matched) == 0 {
				continue
			}
		}
		out = append(out, TicketMatch{Ticket: t, MatchingWords: matched})
	}
	return out, nil
}

func matchKeywords(t *domain.Ticket, keywords []string) []string {
	content := strings.ToLower(t.Title + " " + t.Description)
	var matched []string
	for _, kw := range keywords {
		if kw != "" && strings.Contains(content, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}
