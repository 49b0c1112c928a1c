package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/config"
	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/events"
	"github.com/spec-kit/milestone-tracker/internal/observability"
	"github.com/spec-kit/milestone-tracker/internal/service"
	"github.com/spec-kit/milestone-tracker/internal/store"
	"github.com/spec-kit/milestone-tracker/internal/worker"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

const defaultMaxCommands = 10000

// Processor replays command scripts. It holds no replay state, so one
// instance may serve concurrent replays.
type Processor struct {
	engine       config.EngineConfig
	notification config.NotificationConfig
	logger       *zap.Logger
	metrics      *observability.Metrics
}

// NewProcessor creates a processor. logger and metrics may be nil.
func NewProcessor(engine config.EngineConfig, notification config.NotificationConfig, logger *zap.Logger, metrics *observability.Metrics) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine.MaxCommands <= 0 {
		engine.MaxCommands = defaultMaxCommands
	}
	return &Processor{engine: engine, notification: notification, logger: logger, metrics: metrics}
}

// session is the per-replay wiring: one store and one dispatcher shared by
// every service.
type session struct {
	store         *store.Store
	phases        *service.PhaseService
	tickets       *service.TicketService
	milestones    *service.MilestoneService
	assignments   *service.AssignmentService
	escalation    *service.EscalationService
	notifications *service.NotificationService
	views         *service.ViewService
	search        *service.SearchService
	reports       *service.ReportService
}

func (p *Processor) newSession(users []*domain.User) *session {
	st := store.New(users)
	deps := service.Dependencies{
		Store:      st,
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     p.logger,
		Engine:     p.engine,
	}
	graph := service.NewMilestoneGraph(st)
	phases := service.NewPhaseService(deps)
	milestones := service.NewMilestoneService(deps, graph, phases)
	assignments := service.NewAssignmentService(deps, graph, phases)
	notifications := service.NewNotificationService(deps, graph, p.notification)
	worker.StartNotificationWorker(notifications, p.logger)

	return &session{
		store:         st,
		phases:        phases,
		tickets:       service.NewTicketService(deps, graph, phases),
		milestones:    milestones,
		assignments:   assignments,
		escalation:    service.NewEscalationService(deps, graph),
		notifications: notifications,
		views:         service.NewViewService(deps, milestones),
		search:        service.NewSearchService(deps, assignments),
		reports:       service.NewReportService(deps),
	}
}

// Replay runs commands in order against a fresh store seeded with users and
// returns the results that are written out. Processing stops at
// lostInvestors or when ctx is done.
func (p *Processor) Replay(ctx context.Context, users []*domain.User, commands []Command) ([]Result, error) {
	if len(commands) > p.engine.MaxCommands {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("too many commands: %d exceeds the limit of %d", len(commands), p.engine.MaxCommands),
			map[string]any{"limit": p.engine.MaxCommands})
	}
	s := p.newSession(users)
	results := []Result{}
	for i, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay interrupted at command %d: %w", i, err)
		}
		if cmd.Command == LostInvestors {
			p.logger.Info("replay stopped", zap.Int("index", i))
			break
		}
		handler, ok := handlers[cmd.Command]
		if !ok {
			p.logger.Warn("unknown command skipped", zap.Int("index", i), zap.String("command", cmd.Command))
			continue
		}

		res := p.execute(ctx, s, handler, cmd)
		p.metrics.RecordCommand(cmd.Command, res.Failed())
		if res.Failed() || alwaysEmitted(cmd.Command) {
			results = append(results, res)
		}
	}
	return results, nil
}

func (p *Processor) execute(ctx context.Context, s *session, handler handlerFunc, cmd Command) Result {
	res := Result{Command: cmd.Command, Username: cmd.Username, Timestamp: cmd.Timestamp}

	now, err := domain.NewMoment(cmd.Timestamp)
	if err != nil {
		res.Error = fmt.Sprintf("Invalid timestamp %s.", cmd.Timestamp)
		return res
	}
	if timeSensitive(cmd.Command) && !now.IsZero() {
		s.notifications.Run(ctx, now)
		s.escalation.Escalate(ctx, now)
	}

	payload, err := handler(ctx, s, cmd, now)
	if err != nil {
		res.Error = apperrors.ToDomainError(err).Message
		p.logger.Debug("command failed",
			zap.String("command", cmd.Command),
			zap.String("username", cmd.Username),
			zap.String("timestamp", cmd.Timestamp),
			zap.Error(err))
		return res
	}
	res.Payload = payload
	p.logger.Debug("command succeeded", zap.String("command", cmd.Command), zap.String("username", cmd.Username))
	return res
}
