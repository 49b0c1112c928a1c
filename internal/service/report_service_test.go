package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/scoring"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

func TestRiskReport(t *testing.T) {
	f := newFixture(t)
	f.bug(t, "Login fails", "MEDIUM", "2025-01-01")
	_, err := f.tickets.Report(f.ctx, "rita", at(t, "2025-01-01"), TicketReportInput{
		Type: "BUG", Title: "Data loss", BusinessPriority: "CRITICAL", Severity: "SEVERE", Frequency: "ALWAYS",
	})
	require.NoError(t, err)

	_, err = f.reports.Risk("dave")
	assert.True(t, apperrors.IsCode(err, apperrors.CodePermissionDenied))

	report, err := f.reports.Risk("mona")
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalTickets)
	assert.Equal(t, TypeBreakdown[int]{Bug: 2}, report.TicketsByType)
	assert.Equal(t, PriorityBreakdown{Medium: 1, Critical: 1}, report.TicketsByPriority)
	// (8 + 48) / 2
	assert.Equal(t, scoring.LabelMajor, report.RiskByType.Bug)
	assert.Equal(t, scoring.LabelLow, report.RiskByType.FeatureRequest)
}

func TestCustomerImpactReport(t *testing.T) {
	f := newFixture(t)
	_, err := f.tickets.Report(f.ctx, "rita", at(t, "2025-01-01"), TicketReportInput{
		Type: "FEATURE_REQUEST", Title: "Export", BusinessPriority: "CRITICAL", BusinessValue: "XL", CustomerDemand: "HIGH",
	})
	require.NoError(t, err)

	report, err := f.reports.CustomerImpact("mona", at(t, "2025-01-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalTickets)
	assert.Equal(t, 40.5, report.CustomerImpactByType.FeatureRequest)
	assert.Equal(t, 0.0, report.CustomerImpactByType.Bug)
}

func TestEfficiencyAndPerformanceReports(t *testing.T) {
	f := newFixture(t)
	ticket := f.bug(t, "Login fails", "MEDIUM", "2025-01-01")
	f.bug(t, "Untouched", "LOW", "2025-01-01")
	f.develop(t)
	f.milestone(t, "m1", "2025-03-01", "2025-01-13", []int{ticket.ID}, []string{"dave"}, nil)
	f.closeTicket(t, "dave", ticket.ID, "2025-01-14", "2025-01-15", "2025-01-16")

	efficiency, err := f.reports.ResolutionEfficiency("mona")
	require.NoError(t, err)
	assert.Equal(t, 1, efficiency.TotalTickets)
	// (severity 2 + 1) / (15 - 10) * 100
	assert.Equal(t, 60.0, efficiency.EfficiencyByType.Bug)

	entries, err := f.reports.Performance("mona", at(t, "2025-02-05"))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, PerformanceEntry{
		Username:              "dave",
		ClosedTickets:         1,
		AverageResolutionTime: 2,
		PerformanceScore:      15.6,
		Seniority:             domain.SeniorityMid,
	}, entries[0])
	assert.Equal(t, "jane", entries[1].Username)
	assert.Equal(t, 0.0, entries[1].PerformanceScore)
	assert.Equal(t, "sam", entries[2].Username)

	// January work does not count for a March report.
	entries, err = f.reports.Performance("mona", at(t, "2025-03-05"))
	require.NoError(t, err)
	assert.Equal(t, 0, entries[0].ClosedTickets)

	_, err = f.reports.Performance("mona", domain.Moment{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestPerformanceReportScopedToSubordinates(t *testing.T) {
	f := newFixture(t)
	f.store.User("mona").Manager.Subordinates = []string{"sam", "jane"}

	entries, err := f.reports.Performance("mona", at(t, "2025-02-05"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "jane", entries[0].Username)
	assert.Equal(t, "sam", entries[1].Username)
}

func TestAppStabilityReport(t *testing.T) {
	f := newFixture(t)

	report, err := f.reports.AppStability("mona", at(t, "2025-01-02"))
	require.NoError(t, err)
	assert.Equal(t, "STABLE", report.AppStability)
	assert.Equal(t, scoring.LabelLow, report.RiskByType.Bug)

	_, err = f.tickets.Report(f.ctx, "rita", at(t, "2025-01-01"), TicketReportInput{
		Type: "BUG", Title: "Data loss", BusinessPriority: "CRITICAL", Severity: "SEVERE", Frequency: "ALWAYS",
	})
	require.NoError(t, err)

	report, err = f.reports.AppStability("mona", at(t, "2025-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalOpenTickets)
	assert.Equal(t, scoring.LabelSignificant, report.RiskByType.Bug)
	assert.Equal(t, "UNSTABLE", report.AppStability)
	// 3.375 * 4 * 4.498
	assert.Equal(t, 60.72, report.ImpactByType.Bug)
}
