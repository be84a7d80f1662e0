package admin

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository/mocks"
	"github.com/jwalitptl/appointment-api/pkg/errors"
)

type event struct {
	Type    model.EventType
	Payload interface{}
}

type recorder struct {
	events []event
}

func (r *recorder) PublishUser(_ context.Context, t model.EventType, u *model.User, _ uuid.UUID) {
	r.events = append(r.events, event{t, u})
}

func (r *recorder) PublishAdmin(_ context.Context, t model.EventType, p interface{}, _ uuid.UUID) {
	r.events = append(r.events, event{t, p})
}

type cacheSpy struct {
	invalidated []uuid.UUID
}

func (c *cacheSpy) Invalidate(id uuid.UUID) { c.invalidated = append(c.invalidated, id) }

func setup() (*Service, *mocks.UserRepository, *recorder, *cacheSpy) {
	users := &mocks.UserRepository{}
	rec := &recorder{}
	cache := &cacheSpy{}
	return NewService(users, rec, cache, zerolog.Nop()), users, rec, cache
}

var adminCaller = &model.UserContext{UserID: uuid.New(), Role: model.RoleAdmin}

func TestApproveProvider(t *testing.T) {
	svc, users, rec, cache := setup()
	provider := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleProvider}
	users.On("Get", mock.Anything, provider.ID).Return(provider, nil)
	users.On("SetApproved", mock.Anything, provider.ID, true).Return(nil)

	got, err := svc.ApproveProvider(context.Background(), adminCaller, provider.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)

	require.Len(t, rec.events, 2)
	assert.Equal(t, model.EventProviderApproved, rec.events[0].Type)
	assert.Equal(t, model.EventAdminAction, rec.events[1].Type)
	assert.Equal(t, []uuid.UUID{provider.ID}, cache.invalidated)
}

func TestApproveProvider_NotAProvider(t *testing.T) {
	svc, users, rec, _ := setup()
	user := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleClient}
	users.On("Get", mock.Anything, user.ID).Return(user, nil)

	_, err := svc.ApproveProvider(context.Background(), adminCaller, user.ID)
	assert.Equal(t, errors.ErrBadRequest, errors.CodeOf(err))
	assert.Empty(t, rec.events)
	users.AssertNotCalled(t, "SetApproved", mock.Anything, mock.Anything, mock.Anything)
}

func TestRejectProvider(t *testing.T) {
	svc, users, rec, _ := setup()
	provider := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleProvider, IsApproved: true}
	users.On("Get", mock.Anything, provider.ID).Return(provider, nil)
	users.On("SetApproved", mock.Anything, provider.ID, false).Return(nil)

	got, err := svc.RejectProvider(context.Background(), adminCaller, provider.ID)
	require.NoError(t, err)
	assert.False(t, got.IsApproved)
	assert.Equal(t, model.EventProviderRejected, rec.events[0].Type)
}

func TestBlockAndUnblock(t *testing.T) {
	svc, users, rec, _ := setup()
	user := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleClient}
	users.On("Get", mock.Anything, user.ID).Return(user, nil)
	users.On("SetBlocked", mock.Anything, user.ID, true).Return(nil).Once()
	users.On("SetBlocked", mock.Anything, user.ID, false).Return(nil).Once()

	got, err := svc.BlockUser(context.Background(), adminCaller, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBlocked)

	got, err = svc.UnblockUser(context.Background(), adminCaller, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBlocked)

	assert.Equal(t, model.EventUserBlocked, rec.events[0].Type)
	assert.Equal(t, model.EventUserUnblocked, rec.events[2].Type)
}

func TestBlockSelf(t *testing.T) {
	svc, _, _, _ := setup()
	_, err := svc.BlockUser(context.Background(), adminCaller, adminCaller.UserID)
	assert.Equal(t, errors.ErrBadRequest, errors.CodeOf(err))
}

func TestRequiresAdmin(t *testing.T) {
	svc, users, _, _ := setup()
	clientCaller := &model.UserContext{UserID: uuid.New(), Role: model.RoleClient}

	_, err := svc.BlockUser(context.Background(), clientCaller, uuid.New())
	assert.Equal(t, errors.ErrForbidden, errors.CodeOf(err))

	err = svc.Alert(context.Background(), nil, &model.AlertRequest{Title: "t", Message: "m"})
	assert.Equal(t, errors.ErrUnauthorized, errors.CodeOf(err))

	users.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAlert(t *testing.T) {
	svc, _, rec, _ := setup()

	require.NoError(t, svc.Alert(context.Background(), adminCaller, &model.AlertRequest{Title: "DB failover", Message: "Primary switched"}))
	require.Len(t, rec.events, 1)
	assert.Equal(t, model.EventSystemAlert, rec.events[0].Type)
	assert.Equal(t, &model.AlertPayload{Title: "DB failover", Message: "Primary switched"}, rec.events[0].Payload)

	err := svc.Alert(context.Background(), adminCaller, &model.AlertRequest{Title: " ", Message: "m"})
	assert.Equal(t, errors.ErrBadRequest, errors.CodeOf(err))
}
