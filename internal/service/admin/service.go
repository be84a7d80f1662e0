// Package admin holds moderation actions: provider approval, account
// blocking and system-wide alerts.
package admin

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
	"github.com/jwalitptl/appointment-api/pkg/errors"
)

type Publisher interface {
	PublishUser(ctx context.Context, eventType model.EventType, user *model.User, actorID uuid.UUID)
	PublishAdmin(ctx context.Context, eventType model.EventType, payload interface{}, adminID uuid.UUID)
}

// FlagCache drops cached account flags so a block takes effect on the next request.
type FlagCache interface {
	Invalidate(userID uuid.UUID)
}

type Service struct {
	users  repository.UserRepository
	events Publisher
	cache  FlagCache
	logger zerolog.Logger
}

func NewService(users repository.UserRepository, events Publisher, cache FlagCache, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		events: events,
		cache:  cache,
		logger: logger.With().Str("component", "admin").Logger(),
	}
}

func (s *Service) ApproveProvider(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.User, error) {
	return s.setApproval(ctx, caller, id, true)
}

func (s *Service) RejectProvider(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.User, error) {
	return s.setApproval(ctx, caller, id, false)
}

func (s *Service) BlockUser(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.User, error) {
	return s.setBlocked(ctx, caller, id, true)
}

func (s *Service) UnblockUser(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.User, error) {
	return s.setBlocked(ctx, caller, id, false)
}

// Alert broadcasts an urgent system alert to every admin.
func (s *Service) Alert(ctx context.Context, caller *model.UserContext, req *model.AlertRequest) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	title, message := strings.TrimSpace(req.Title), strings.TrimSpace(req.Message)
	if title == "" || message == "" {
		return errors.NewValidation("title and message are required")
	}

	s.logger.Warn().Str("admin_id", caller.UserID.String()).Str("title", title).Msg("system alert raised")
	s.events.PublishAdmin(ctx, model.EventSystemAlert, &model.AlertPayload{Title: title, Message: message}, caller.UserID)
	return nil
}

func (s *Service) setApproval(ctx context.Context, caller *model.UserContext, id uuid.UUID, approved bool) (*model.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleProvider {
		return nil, errors.NewBadRequest("user is not a provider", nil)
	}
	if err := s.users.SetApproved(ctx, id, approved); err != nil {
		return nil, err
	}
	user.IsApproved = approved
	s.invalidate(id)

	event, action := model.EventProviderApproved, "approve_provider"
	if !approved {
		event, action = model.EventProviderRejected, "reject_provider"
	}
	s.finish(ctx, caller, user, event, action)
	return user, nil
}

func (s *Service) setBlocked(ctx context.Context, caller *model.UserContext, id uuid.UUID, blocked bool) (*model.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if blocked && id == caller.UserID {
		return nil, errors.NewBadRequest("admins cannot block themselves", nil)
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetBlocked(ctx, id, blocked); err != nil {
		return nil, err
	}
	user.IsBlocked = blocked
	s.invalidate(id)

	event, action := model.EventUserBlocked, "block_user"
	if !blocked {
		event, action = model.EventUserUnblocked, "unblock_user"
	}
	s.finish(ctx, caller, user, event, action)
	return user, nil
}

func (s *Service) finish(ctx context.Context, caller *model.UserContext, user *model.User, event model.EventType, action string) {
	s.logger.Info().
		Str("admin_id", caller.UserID.String()).
		Str("target_id", user.ID.String()).
		Str("action", action).
		Msg("moderation action applied")

	s.events.PublishUser(ctx, event, user, caller.UserID)
	s.events.PublishAdmin(ctx, model.EventAdminAction, &model.AdminActionPayload{Action: action, TargetID: user.ID}, caller.UserID)
}

func (s *Service) invalidate(id uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(id)
	}
}

func requireAdmin(caller *model.UserContext) error {
	if caller == nil {
		return errors.Unauthorized(nil)
	}
	if caller.Blocked {
		return errors.NewForbidden("account is blocked", nil)
	}
	if !caller.IsAdmin() {
		return errors.NewForbidden("admin role required", nil)
	}
	return nil
}
