// Package scoring maps categorical ticket attributes to the numeric scores
// reports aggregate. Every function is pure; rounding happens only in Round2
// and callers apply it once per aggregate.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/spec-kit/milestone-tracker/internal/domain"
)

const (
	maxUsability     = 10
	bugAgeFactor     = 0.1
	efficiencyGrace  = 10
	featureAddon     = 0.2
	uiFeedbackAddon  = 0.25
	efficiencyFactor = 100.0
)

// RiskWeight maps any categorical value to 1..4; unknown values weigh 0.
func RiskWeight(value string) int {
	switch strings.ToUpper(value) {
	case "LOW", "RARE", "S":
		return 1
	case "MEDIUM", "OCCASIONAL", "M", "MODERATE":
		return 2
	case "HIGH", "FREQUENT", "L", "SEVERE":
		return 3
	case "CRITICAL", "ALWAYS", "XL":
		return 4
	default:
		return 0
	}
}

// ImpactTable holds decimal weights per attribute for impact scoring.
type ImpactTable struct {
	Priority  map[string]float64
	Severity  map[string]float64
	Frequency map[string]float64
	Value     map[string]float64
	Demand    map[string]float64
}

func (t ImpactTable) lookup(table map[string]float64, value string) float64 {
	return table[strings.ToUpper(value)]
}

// CustomerImpact is the table used by the customer impact report.
var CustomerImpact = ImpactTable{
	Priority:  map[string]float64{"LOW": 1.0, "MEDIUM": 1.5, "HIGH": 2.25, "CRITICAL": 3.375},
	Severity:  map[string]float64{"LOW": 1, "MODERATE": 2, "SEVERE": 4, "CRITICAL": 8},
	Frequency: map[string]float64{"RARE": 1, "OCCASIONAL": 2, "FREQUENT": 3, "ALWAYS": 4},
	Value:     map[string]float64{"S": 1, "M": 2, "L": 3, "XL": 4},
	Demand:    map[string]float64{"LOW": 1, "MEDIUM": 2, "HIGH": 3, "CRITICAL": 4},
}

// StabilityImpact is the table used by the app stability report.
var StabilityImpact = ImpactTable{
	Priority:  CustomerImpact.Priority,
	Severity:  CustomerImpact.Severity,
	Frequency: map[string]float64{"RARE": 1, "OCCASIONAL": 2, "FREQUENT": 3, "ALWAYS": 4.498},
	Value:     map[string]float64{"S": 1, "M": 2, "L": 3, "XL": 2.9},
	Demand:    CustomerImpact.Demand,
}

func usability(t *domain.Ticket) int {
	if t.UIFeedback == nil || t.UIFeedback.UsabilityScore == nil {
		return maxUsability
	}
	return *t.UIFeedback.UsabilityScore
}

func usabilityGap(t *domain.Ticket) int {
	gap := maxUsability - usability(t)
	if gap < 0 {
		return 0
	}
	return gap
}

// Risk returns the risk score of a ticket at its current priority.
func Risk(t *domain.Ticket) float64 {
	p := RiskWeight(string(t.BusinessPriority))
	switch t.Type {
	case domain.TicketTypeBug:
		if t.Bug == nil {
			return 0
		}
		return float64(p * RiskWeight(t.Bug.Severity) * RiskWeight(t.Bug.Frequency))
	case domain.TicketTypeFeatureRequest:
		if t.Feature == nil {
			return 0
		}
		return float64(p * RiskWeight(t.Feature.BusinessValue) * RiskWeight(t.Feature.CustomerDemand))
	case domain.TicketTypeUIFeedback:
		if t.UIFeedback == nil {
			return 0
		}
		return float64(p * RiskWeight(t.UIFeedback.BusinessValue) * usabilityGap(t))
	default:
		return 0
	}
}

// Impact returns the impact score of a ticket. now is the command date; a
// zero now disables the BUG age bonus.
func Impact(t *domain.Ticket, table ImpactTable, now time.Time) float64 {
	p := table.lookup(table.Priority, string(t.BusinessPriority))
	switch t.Type {
	case domain.TicketTypeBug:
		if t.Bug == nil {
			return 0
		}
		score := p * table.lookup(table.Severity, t.Bug.Severity) * table.lookup(table.Frequency, t.Bug.Frequency)
		return score + ageBonus(t.CreatedAt, now)
	case domain.TicketTypeFeatureRequest:
		if t.Feature == nil {
			return 0
		}
		return p * table.lookup(table.Value, t.Feature.BusinessValue) * table.lookup(table.Demand, t.Feature.CustomerDemand)
	case domain.TicketTypeUIFeedback:
		if t.UIFeedback == nil {
			return 0
		}
		return p * table.lookup(table.Value, t.UIFeedback.BusinessValue) * float64(usabilityGap(t))
	default:
		return 0
	}
}

func ageBonus(createdAt string, now time.Time) float64 {
	if createdAt == "" || now.IsZero() {
		return 0
	}
	created, err := domain.ParseDate(createdAt)
	if err != nil {
		return 0
	}
	days := domain.DaysBetween(created, now) + 1
	if days <= 0 {
		return 0
	}
	return float64(days) * bugAgeFactor
}

// EfficiencyBase is the per-type numerator of the efficiency formula.
func EfficiencyBase(t *domain.Ticket) float64 {
	switch t.Type {
	case domain.TicketTypeBug:
		if t.Bug == nil {
			return 1
		}
		return float64(RiskWeight(t.Bug.Severity)) + 1
	case domain.TicketTypeFeatureRequest:
		if t.Feature == nil {
			return featureAddon
		}
		return float64(RiskWeight(t.Feature.CustomerDemand)) + featureAddon
	case domain.TicketTypeUIFeedback:
		return float64(maxUsability-usability(t)) - uiFeedbackAddon
	default:
		return 0
	}
}

// Efficiency scores how quickly a ticket moved. daysOpen is the span from
// creation to the last history entry. Negative results are discarded by
// callers.
func Efficiency(t *domain.Ticket, daysOpen int) float64 {
	denominator := daysOpen - efficiencyGrace
	if denominator < 1 {
		denominator = 1
	}
	return EfficiencyBase(t) / float64(denominator) * efficiencyFactor
}

// PerformanceInput aggregates a developer's resolved tickets for one month.
type PerformanceInput struct {
	Seniority             domain.Seniority
	Closed                int
	HighPriority          int
	AverageResolutionDays float64
	Bugs                  int
	Features              int
	UIFeedback            int
}

// Performance returns the developer score; zero when nothing was closed.
func Performance(in PerformanceInput) float64 {
	if in.Closed == 0 {
		return 0
	}
	closed := float64(in.Closed)
	high := float64(in.HighPriority)
	switch in.Seniority {
	case domain.SeniorityJunior:
		return math.Max(0, 0.5*closed-DiversityFactor(in.Bugs, in.Features, in.UIFeedback)) + 5
	case domain.SeniorityMid:
		return math.Max(0, 0.5*closed+0.7*high-0.3*in.AverageResolutionDays) + 15
	case domain.SenioritySenior:
		return math.Max(0, 0.5*closed+1.0*high-0.5*in.AverageResolutionDays) + 30
	default:
		return 0
	}
}

// DiversityFactor is the coefficient of variation of the three type counts.
func DiversityFactor(bugs, features, ui int) float64 {
	mean := float64(bugs+features+ui) / 3
	if mean == 0 {
		return 0
	}
	sq := func(v int) float64 {
		d := float64(v) - mean
		return d * d
	}
	std := math.Sqrt((sq(bugs) + sq(features) + sq(ui)) / 3)
	return std / mean
}

// Round2 rounds half-up to two decimals.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Average returns the arithmetic mean or 0 for an empty slice.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
