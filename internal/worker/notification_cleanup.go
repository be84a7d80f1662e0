package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/appointment-api/internal/repository"
)

// NotificationCleanupWorker deletes read in-app notifications once they are
// older than the retention window. Unread records are never removed.
type NotificationCleanupWorker struct {
	repo            repository.NotificationRepository
	retentionDays   int
	cleanupInterval time.Duration
	now             func() time.Time
	logger          zerolog.Logger
}

func NewNotificationCleanupWorker(repo repository.NotificationRepository, retentionDays int, cleanupInterval time.Duration, logger zerolog.Logger) *NotificationCleanupWorker {
	return &NotificationCleanupWorker{
		repo:            repo,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
		now:             time.Now,
		logger:          logger.With().Str("component", "notification_cleanup").Logger(),
	}
}

// Start runs one pass immediately, then one per interval until ctx is done.
func (w *NotificationCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	w.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *NotificationCleanupWorker) run(ctx context.Context) {
	if _, err := w.Cleanup(ctx); err != nil {
		w.logger.Error().Err(err).Msg("notification cleanup failed")
	}
}

func (w *NotificationCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().AddDate(0, 0, -w.retentionDays)

	rows, err := w.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup notifications: %w", err)
	}

	w.logger.Info().Int64("deleted", rows).Time("cutoff", cutoff).Msg("cleaned up read notifications")
	return rows, nil
}
