package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, recipient_role, type, title, message, priority,
			appointment_id, is_read, created_at, updated_at
		) VALUES (
			:id, :user_id, :recipient_role, :type, :title, :message, :priority,
			:appointment_id, :is_read, :created_at, :updated_at
		)
	`
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, page model.Pagination) ([]*model.Notification, int, error) {
	page = page.Normalize()
	ds := dialect.From("notifications").Where(goqu.Ex{"user_id": userID})

	countSQL, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query, args, err := ds.Select(
		"id", "user_id", "recipient_role", "type", "title", "message", "priority",
		"appointment_id", "is_read", "read_at", "created_at", "updated_at",
	).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(page.PageSize)).
		Offset(uint(page.Offset())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	items := []*model.Notification{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE notifications SET is_read = true, read_at = COALESCE(read_at, $1), updated_at = $1
		WHERE id = $2 AND user_id = $3
	`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return mustAffect(result, "notification")
}

func (r *notificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE is_read = true AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return result.RowsAffected()
}
