package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/pkg/errors"
)

func TestNotificationRepository_MarkReadOtherUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = true")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), uuid.New(), uuid.New())
	assert.Equal(t, errors.ErrNotFound, errors.CodeOf(err))
}

func TestNotificationRepository_DeleteReadBefore(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)
	cutoff := time.Now().Add(-90 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE is_read = true")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteReadBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}

func TestNotificationRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).WillReturnResult(sqlmock.NewResult(0, 1))

	n := &model.Notification{UserID: uuid.New(), RecipientRole: model.RoleClient, Type: model.EventAppointmentApproved}
	require.NoError(t, repo.Create(context.Background(), n))
	assert.NotEqual(t, uuid.Nil, n.ID)
}

func TestUserRepository_UpdateIgnoresUnknownColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	id := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "address", "role", "password_hash", "refresh_token",
		"is_blocked", "is_approved", "created_at", "updated_at", "deleted_at",
	}).AddRow(id.String(), "New Name", "a@b.c", "", "", "client", "", "", false, false, now, now, nil)

	mock.ExpectQuery(`UPDATE "users" SET .* RETURNING`).WillReturnRows(rows)

	u, err := repo.Update(context.Background(), id, model.JSONMap{"name": "New Name", "role": "admin"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", u.Name)
	assert.Equal(t, model.RoleClient, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
