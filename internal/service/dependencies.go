package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/config"
	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/events"
	"github.com/spec-kit/milestone-tracker/internal/store"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

// Dependencies bundles the per-replay collaborators every service shares.
type Dependencies struct {
	Store      *store.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Engine     config.EngineConfig
}

func (d Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func lookupUser(st *store.Store, username string) (*domain.User, error) {
	user := st.User(username)
	if user == nil {
		return nil, apperrors.NewNotFound(fmt.Sprintf("The user %s does not exist.", username), map[string]any{"username": username})
	}
	return user, nil
}

func lookupTicket(st *store.Store, id int) (*domain.Ticket, error) {
	ticket := st.Ticket(id)
	if ticket == nil {
		return nil, apperrors.NewNotFound(fmt.Sprintf("Ticket %d does not exist.", id), map[string]any{"ticket_id": id})
	}
	return ticket, nil
}

func requireRole(user *domain.User, role domain.Role) error {
	if user.Role != role {
		return apperrors.NewPermissionDenied(fmt.Sprintf(
			"The user does not have permission to execute this command: required role %s; user role %s.",
			role, user.Role))
	}
	return nil
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func ticketRef(id int) *int {
	return &id
}

func actorOf(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{Username: user.Username, Role: user.Role}
}
