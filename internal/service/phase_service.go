package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/store"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

const defaultTestingPhaseDays = 12

// PhaseService moves the project between testing and development.
type PhaseService struct {
	store       *store.Store
	logger      *zap.Logger
	testingDays int
}

// NewPhaseService creates the service.
func NewPhaseService(deps Dependencies) *PhaseService {
	days := deps.Engine.TestingPhaseDays
	if days <= 0 {
		days = defaultTestingPhaseDays
	}
	return &PhaseService{
		store:       deps.Store,
		logger:      deps.logger(),
		testingDays: days,
	}
}

// ElapsedDays counts the testing phase days up to now, inclusive of both
// ends. It returns 0 when no phase start is recorded.
func (s *PhaseService) ElapsedDays(now domain.Moment) int {
	start, ok := s.store.PhaseStart()
	if !ok || now.IsZero() {
		return 0
	}
	return domain.DaysBetween(start, now.Date) + 1
}

// Sync ends an expired testing phase. Commands call it before checking the
// phase so the switch happens lazily at the first command past the window.
func (s *PhaseService) Sync(now domain.Moment) {
	if s.store.Phase() != store.PhaseTesting {
		return
	}
	if s.ElapsedDays(now) > s.testingDays {
		s.store.StartDevelopment()
		s.logger.Info("testing phase ended", zap.String("at", now.Raw))
	}
}

// StartTesting opens a new testing phase at now. No milestone may hold a
// ticket that is still OPEN or IN_PROGRESS.
func (s *PhaseService) StartTesting(ctx context.Context, username string, now domain.Moment) error {
	actor, err := lookupUser(s.store, username)
	if err != nil {
		return err
	}
	if err := requireRole(actor, domain.RoleManager); err != nil {
		return err
	}
	for _, m := range s.store.Milestones() {
		for _, id := range m.Tickets {
			t := s.store.Ticket(id)
			if t == nil {
				continue
			}
			if t.Status != domain.TicketStatusResolved && t.Status != domain.TicketStatusClosed {
				return apperrors.NewPhaseViolation("Cannot start a new testing phase while milestones have unresolved tickets.")
			}
		}
	}
	if now.IsZero() {
		return apperrors.NewValidationError("A timestamp is required to start a testing phase.", nil)
	}
	s.store.StartTesting(now.Date)
	s.logger.Info("testing phase started", zap.String("by", username), zap.String("at", now.Raw))
	return nil
}
