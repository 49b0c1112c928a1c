package service

import (
	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/scoring"
)

// TypeBreakdown holds one value per ticket type in report order.
type TypeBreakdown[T any] struct {
	Bug            T `json:"BUG"`
	FeatureRequest T `json:"FEATURE_REQUEST"`
	UIFeedback     T `json:"UI_FEEDBACK"`
}

// At returns a pointer to the slot for ticketType, or nil for unknown types.
func (b *TypeBreakdown[T]) At(ticketType domain.TicketType) *T {
	switch ticketType {
	case domain.TicketTypeBug:
		return &b.Bug
	case domain.TicketTypeFeatureRequest:
		return &b.FeatureRequest
	case domain.TicketTypeUIFeedback:
		return &b.UIFeedback
	default:
		return nil
	}
}

// PriorityBreakdown counts tickets per current priority in report order.
type PriorityBreakdown struct {
	Low      int `json:"LOW"`
	Medium   int `json:"MEDIUM"`
	High     int `json:"HIGH"`
	Critical int `json:"CRITICAL"`
}

// Add counts one ticket at priority p. Unset priorities are not counted.
func (b *PriorityBreakdown) Add(p domain.TicketPriority) {
	switch p {
	case domain.TicketPriorityLow:
		b.Low++
	case domain.TicketPriorityMedium:
		b.Medium++
	case domain.TicketPriorityHigh:
		b.High++
	case domain.TicketPriorityCritical:
		b.Critical++
	}
}

// RiskReport is the body of generateTicketRiskReport.
type RiskReport struct {
	TotalTickets      int                          `json:"totalTickets"`
	TicketsByType     TypeBreakdown[int]           `json:"ticketsByType"`
	TicketsByPriority PriorityBreakdown            `json:"ticketsByPriority"`
	RiskByType        TypeBreakdown[scoring.Label] `json:"riskByType"`
}

// CustomerImpactReport is the body of generateCustomerImpactReport.
type CustomerImpactReport struct {
	TotalTickets         int                    `json:"totalTickets"`
	TicketsByType        TypeBreakdown[int]     `json:"ticketsByType"`
	TicketsByPriority    PriorityBreakdown      `json:"ticketsByPriority"`
	CustomerImpactByType TypeBreakdown[float64] `json:"customerImpactByType"`
}

// EfficiencyReport is the body of generateResolutionEfficiencyReport.
type EfficiencyReport struct {
	TotalTickets      int                    `json:"totalTickets"`
	TicketsByType     TypeBreakdown[int]     `json:"ticketsByType"`
	TicketsByPriority PriorityBreakdown      `json:"ticketsByPriority"`
	EfficiencyByType  TypeBreakdown[float64] `json:"efficiencyByType"`
}

// StabilityReport is the body of appStabilityReport.
type StabilityReport struct {
	TotalOpenTickets      int                          `json:"totalOpenTickets"`
	OpenTicketsByType     TypeBreakdown[int]           `json:"openTicketsByType"`
	OpenTicketsByPriority PriorityBreakdown            `json:"openTicketsByPriority"`
	RiskByType            TypeBreakdown[scoring.Label] `json:"riskByType"`
	ImpactByType          TypeBreakdown[float64]       `json:"impactByType"`
	AppStability          string                       `json:"appStability"`
}

// PerformanceEntry is one developer row of generatePerformanceReport.
type PerformanceEntry struct {
	Username              string           `json:"username"`
	ClosedTickets         int              `json:"closedTickets"`
	AverageResolutionTime float64          `json:"averageResolutionTime"`
	PerformanceScore      float64          `json:"performanceScore"`
	Seniority             domain.Seniority `json:"seniority"`
}
