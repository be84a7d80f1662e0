package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
	"github.com/jwalitptl/appointment-api/pkg/errors"
)

// Inbox serves the caller's own in-app notifications.
type Inbox struct {
	repo repository.NotificationRepository
}

func NewInbox(repo repository.NotificationRepository) *Inbox {
	return &Inbox{repo: repo}
}

func (i *Inbox) List(ctx context.Context, caller *model.UserContext, page model.Pagination) ([]*model.Notification, int, error) {
	if caller == nil {
		return nil, 0, errors.Unauthorized(nil)
	}
	return i.repo.ListByUser(ctx, caller.UserID, page.Normalize())
}

// MarkRead fails with not found for records owned by someone else.
func (i *Inbox) MarkRead(ctx context.Context, caller *model.UserContext, id uuid.UUID) error {
	if caller == nil {
		return errors.Unauthorized(nil)
	}
	return i.repo.MarkRead(ctx, id, caller.UserID)
}
