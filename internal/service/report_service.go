package service

import (
	"sort"
	"time"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/scoring"
	"github.com/spec-kit/milestone-tracker/internal/store"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

// ReportService builds the manager reports on top of the scoring library.
type ReportService struct {
	store *store.Store
}

// NewReportService creates the service.
func NewReportService(deps Dependencies) *ReportService {
	return &ReportService{store: deps.Store}
}

func (s *ReportService) manager(username string) (*domain.User, error) {
	user, err := lookupUser(s.store, username)
	if err != nil {
		return nil, err
	}
	if err := requireRole(user, domain.RoleManager); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *ReportService) openTickets() []*domain.Ticket {
	out := []*domain.Ticket{}
	for _, t := range s.store.Tickets() {
		if t.Status == domain.TicketStatusOpen {
			out = append(out, t)
		}
	}
	return out
}

// Risk averages risk scores of OPEN tickets per type and labels them.
func (s *ReportService) Risk(username string) (*RiskReport, error) {
	if _, err := s.manager(username); err != nil {
		return nil, err
	}
	report := &RiskReport{}
	var scores TypeBreakdown[[]float64]
	for _, t := range s.openTickets() {
		slot := report.TicketsByType.At(t.Type)
		if slot == nil {
			continue
		}
		report.TotalTickets++
		*slot++
		report.TicketsByPriority.Add(t.BusinessPriority)
		*scores.At(t.Type) = append(*scores.At(t.Type), scoring.Risk(t))
	}
	for _, ticketType := range domain.TicketTypes {
		*report.RiskByType.At(ticketType) = labelFor(*scores.At(ticketType), scoring.RiskLabel)
	}
	return report, nil
}

// CustomerImpact sums impact scores of OPEN tickets per type.
func (s *ReportService) CustomerImpact(username string, now domain.Moment) (*CustomerImpactReport, error) {
	if _, err := s.manager(username); err != nil {
		return nil, err
	}
	report := &CustomerImpactReport{}
	for _, t := range s.openTickets() {
		slot := report.TicketsByType.At(t.Type)
		if slot == nil {
			continue
		}
		report.TotalTickets++
		*slot++
		report.TicketsByPriority.Add(t.BusinessPriority)
		*report.CustomerImpactByType.At(t.Type) += scoring.Impact(t, scoring.CustomerImpact, now.Date)
	}
	roundBreakdown(&report.CustomerImpactByType)
	return report, nil
}

// ResolutionEfficiency averages efficiency of every assigned ticket per type.
// Tickets with a negative efficiency are left out of the average.
func (s *ReportService) ResolutionEfficiency(username string) (*EfficiencyReport, error) {
	if _, err := s.manager(username); err != nil {
		return nil, err
	}
	report := &EfficiencyReport{}
	var values TypeBreakdown[[]float64]
	for _, t := range s.store.Tickets() {
		if !t.IsAssigned() {
			continue
		}
		slot := report.TicketsByType.At(t.Type)
		if slot == nil {
			continue
		}
		report.TotalTickets++
		*slot++
		report.TicketsByPriority.Add(t.BusinessPriority)

		daysOpen, ok := daysOpen(t)
		if !ok {
			continue
		}
		if efficiency := scoring.Efficiency(t, daysOpen); efficiency >= 0 {
			*values.At(t.Type) = append(*values.At(t.Type), efficiency)
		}
	}
	for _, ticketType := range domain.TicketTypes {
		*report.EfficiencyByType.At(ticketType) = scoring.Round2(scoring.Average(*values.At(ticketType)))
	}
	return report, nil
}

func daysOpen(t *domain.Ticket) (int, bool) {
	created, err := domain.ParseDate(t.CreatedAt)
	if err != nil {
		return 0, false
	}
	last := created
	if n := len(t.History); n > 0 {
		last, err = domain.ParseDate(t.History[n-1].Timestamp)
		if err != nil {
			return 0, false
		}
	}
	return domain.DaysBetween(created, last), true
}

// AppStability combines risk labels and stability impact of OPEN tickets.
// Any SIGNIFICANT or CRITICAL risk label marks the app UNSTABLE.
func (s *ReportService) AppStability(username string, now domain.Moment) (*StabilityReport, error) {
	if _, err := s.manager(username); err != nil {
		return nil, err
	}
	report := &StabilityReport{}
	var risks TypeBreakdown[[]float64]
	for _, t := range s.openTickets() {
		slot := report.OpenTicketsByType.At(t.Type)
		if slot == nil {
			continue
		}
		report.TotalOpenTickets++
		*slot++
		report.OpenTicketsByPriority.Add(t.BusinessPriority)
		*risks.At(t.Type) = append(*risks.At(t.Type), scoring.Risk(t))
		*report.ImpactByType.At(t.Type) += scoring.Impact(t, scoring.StabilityImpact, now.Date)
	}
	unstable := false
	for _, ticketType := range domain.TicketTypes {
		label := labelFor(*risks.At(ticketType), scoring.StabilityLabel)
		*report.RiskByType.At(ticketType) = label
		unstable = unstable || label.Unstable()
	}
	roundBreakdown(&report.ImpactByType)
	report.AppStability = "STABLE"
	if unstable {
		report.AppStability = "UNSTABLE"
	}
	return report, nil
}

// Performance scores developers on tickets they resolved during the month
// before now. The report covers the manager's subordinates, or every
// developer when the manager lists none.
func (s *ReportService) Performance(username string, now domain.Moment) ([]PerformanceEntry, error) {
	manager, err := s.manager(username)
	if err != nil {
		return nil, err
	}
	if now.IsZero() {
		return nil, apperrors.NewValidationError("A timestamp is required to generate a performance report.", nil)
	}
	targetYear, targetMonth := previousMonth(now.Date)

	developers := s.reportedDevelopers(manager)
	out := make([]PerformanceEntry, 0, len(developers))
	for _, dev := range developers {
		in := scoring.PerformanceInput{Seniority: dev.Developer.Seniority}
		totalDays := 0
		for _, t := range s.store.Tickets() {
			if t.AssignedTo != dev.Username {
				continue
			}
			if t.Status != domain.TicketStatusClosed && t.Status != domain.TicketStatusResolved {
				continue
			}
			solved, ok := solvedDate(t)
			if !ok || solved.Year() != targetYear || solved.Month() != targetMonth {
				continue
			}
			in.Closed++
			totalDays += resolutionDays(t, solved)
			switch t.Type {
			case domain.TicketTypeBug:
				in.Bugs++
			case domain.TicketTypeFeatureRequest:
				in.Features++
			case domain.TicketTypeUIFeedback:
				in.UIFeedback++
			}
			if t.BusinessPriority != "" && t.BusinessPriority != domain.TicketPriorityLow {
				in.HighPriority++
			}
		}
		if in.Closed > 0 {
			in.AverageResolutionDays = float64(totalDays) / float64(in.Closed)
		}
		out = append(out, PerformanceEntry{
			Username:              dev.Username,
			ClosedTickets:         in.Closed,
			AverageResolutionTime: scoring.Round2(in.AverageResolutionDays),
			PerformanceScore:      scoring.Round2(scoring.Performance(in)),
			Seniority:             dev.Developer.Seniority,
		})
	}
	return out, nil
}

func (s *ReportService) reportedDevelopers(manager *domain.User) []*domain.User {
	var scope map[string]bool
	if manager.Manager != nil && len(manager.Manager.Subordinates) > 0 {
		scope = make(map[string]bool, len(manager.Manager.Subordinates))
		for _, name := range manager.Manager.Subordinates {
			scope[name] = true
		}
	}
	out := []*domain.User{}
	for _, u := range s.store.Users() {
		if !u.IsDeveloper() {
			continue
		}
		if scope != nil && !scope[u.Username] {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func previousMonth(t time.Time) (int, time.Month) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	return prev.Year(), prev.Month()
}

// solvedDate is the first move to RESOLVED or CLOSED, falling back to
// solvedAt.
func solvedDate(t *domain.Ticket) (time.Time, bool) {
	for _, action := range t.History {
		if action.Action != domain.ActionStatusChanged {
			continue
		}
		if action.To == domain.TicketStatusClosed || action.To == domain.TicketStatusResolved {
			date, err := domain.ParseDate(action.Timestamp)
			return date, err == nil
		}
	}
	if t.SolvedAt == "" {
		return time.Time{}, false
	}
	date, err := domain.ParseDate(t.SolvedAt)
	return date, err == nil
}

func resolutionDays(t *domain.Ticket, solved time.Time) int {
	assigned, err := domain.ParseDate(t.AssignedAt)
	if err != nil {
		return 1
	}
	days := domain.DaysBetween(assigned, solved) + 1
	if days < 1 {
		return 1
	}
	return days
}

func labelFor(scores []float64, label func(float64) scoring.Label) scoring.Label {
	if len(scores) == 0 {
		return scoring.LabelLow
	}
	return label(scoring.Average(scores))
}

func roundBreakdown(b *TypeBreakdown[float64]) {
	b.Bug = scoring.Round2(b.Bug)
	b.FeatureRequest = scoring.Round2(b.FeatureRequest)
	b.UIFeedback = scoring.Round2(b.UIFeedback)
}
