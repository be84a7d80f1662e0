package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/appointment-api/internal/repository/mocks"
)

func TestCleanup_UsesRetentionCutoff(t *testing.T) {
	repo := &mocks.NotificationRepository{}
	w := NewNotificationCleanupWorker(repo, 30, time.Hour, zerolog.Nop())
	w.now = func() time.Time { return time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC) }

	repo.On("DeleteReadBefore", mock.Anything, time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)).
		Return(int64(7), nil)

	n, err := w.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	repo.AssertExpectations(t)
}

func TestCleanup_WrapsError(t *testing.T) {
	repo := &mocks.NotificationRepository{}
	w := NewNotificationCleanupWorker(repo, 30, time.Hour, zerolog.Nop())
	boom := errors.New("connection reset")
	repo.On("DeleteReadBefore", mock.Anything, mock.Anything).Return(int64(0), boom)

	_, err := w.Cleanup(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestStart_RunsUntilCancelled(t *testing.T) {
	repo := &mocks.NotificationRepository{}
	w := NewNotificationCleanupWorker(repo, 1, 10*time.Millisecond, zerolog.Nop())

	ran := make(chan struct{}, 10)
	repo.On("DeleteReadBefore", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}).
		Return(int64(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(time.Second):
			t.Fatal("cleanup did not run")
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
