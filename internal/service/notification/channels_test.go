package notification

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository/mocks"
	"github.com/jwalitptl/appointment-api/pkg/messaging"
	redisbroker "github.com/jwalitptl/appointment-api/pkg/messaging/redis"
)

type sentMail struct {
	To, Subject, Body string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type published struct {
	Channel string
	Message messaging.Message
}

type fakeBroker struct {
	mu   sync.Mutex
	sent []published
}

func (b *fakeBroker) Publish(_ context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, published{channel, message.(messaging.Message)})
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }
func (b *fakeBroker) Close() error                                           { return nil }

func appointmentEvent(t model.EventType) (model.NotificationEvent, *model.Appointment) {
	fee := decimal.NewFromInt(80)
	appt := &model.Appointment{
		Base:       model.Base{ID: uuid.New()},
		ClientID:   uuid.New(),
		ProviderID: uuid.New(),
		Date:       model.NewDate(2024, 6, 1),
		Time:       "10:00",
		Reason:     "checkup",
		Fee:        &fee,
	}
	return model.NotificationEvent{
		Type:          t,
		Priority:      model.PriorityOf(t),
		Payload:       appt,
		AppointmentID: appt.ID,
		UserID:        appt.ClientID,
		ProviderID:    appt.ProviderID,
	}, appt
}

func TestEmailChannel_Approved(t *testing.T) {
	sender := &fakeSender{}
	users := &mocks.UserRepository{}
	ch := NewEmailChannel(sender, users)

	evt, appt := appointmentEvent(model.EventAppointmentApproved)
	users.On("Get", mock.Anything, appt.ClientID).Return(&model.User{Name: "Ana", Email: "ana@example.com"}, nil)

	action := ch.Handle(evt)
	require.NotNil(t, action)
	require.NoError(t, action(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ana@example.com", sender.sent[0].To)
	assert.Equal(t, "Your appointment has been approved", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "Hello Ana")
	assert.Contains(t, sender.sent[0].Body, "2024-06-01 at 10:00")
	assert.Contains(t, sender.sent[0].Body, "80.00")
	users.AssertExpectations(t)
}

func TestEmailChannel_CancelledMailsBothParties(t *testing.T) {
	sender := &fakeSender{}
	users := &mocks.UserRepository{}
	ch := NewEmailChannel(sender, users)

	evt, appt := appointmentEvent(model.EventAppointmentCancelled)
	users.On("Get", mock.Anything, appt.ClientID).Return(&model.User{Name: "Ana", Email: "ana@example.com"}, nil)
	users.On("Get", mock.Anything, appt.ProviderID).Return(&model.User{Name: "Dr. Lee", Email: "lee@example.com"}, nil)

	require.NoError(t, ch.Handle(evt)(context.Background()))
	assert.Len(t, sender.sent, 2)
}

func TestEmailChannel_IgnoresOtherTypes(t *testing.T) {
	ch := NewEmailChannel(&fakeSender{}, &mocks.UserRepository{})

	for _, typ := range []model.EventType{
		model.EventAppointmentRejected,
		model.EventAppointmentRated,
		model.EventSystemAlert,
		model.EventType("unknown"),
	} {
		evt, _ := appointmentEvent(typ)
		assert.Nil(t, ch.Handle(evt), typ)
	}
}

func TestEmailChannel_SenderFailure(t *testing.T) {
	sender := &fakeSender{err: stderrors.New("smtp down")}
	users := &mocks.UserRepository{}
	ch := NewEmailChannel(sender, users)

	evt, appt := appointmentEvent(model.EventAppointmentCompleted)
	users.On("Get", mock.Anything, appt.ClientID).Return(&model.User{Name: "Ana", Email: "ana@example.com"}, nil)

	assert.Error(t, ch.Handle(evt)(context.Background()))
}

func TestRecordChannel_ApprovedCreatesRecordPerParty(t *testing.T) {
	repo := &mocks.NotificationRepository{}
	ch := NewRecordChannel(repo, &mocks.UserRepository{})

	evt, appt := appointmentEvent(model.EventAppointmentApproved)
	var stored []*model.Notification
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = append(stored, args.Get(1).(*model.Notification))
	}).Return(nil)

	require.NoError(t, ch.Handle(evt)(context.Background()))
	require.Len(t, stored, 2)

	assert.Equal(t, appt.ClientID, stored[0].UserID)
	assert.Equal(t, model.RoleClient, stored[0].RecipientRole)
	assert.Equal(t, "Appointment approved", stored[0].Title)
	assert.Equal(t, model.PriorityHigh, stored[0].Priority)
	require.NotNil(t, stored[0].AppointmentID)
	assert.Equal(t, appt.ID, *stored[0].AppointmentID)

	assert.Equal(t, appt.ProviderID, stored[1].UserID)
	assert.Equal(t, model.RoleProvider, stored[1].RecipientRole)
}

func TestRecordChannel_Audiences(t *testing.T) {
	tests := []struct {
		typ   model.EventType
		roles []model.Role
	}{
		{model.EventAppointmentCreated, []model.Role{model.RoleClient, model.RoleProvider}},
		{model.EventAppointmentRejected, []model.Role{model.RoleClient}},
		{model.EventAppointmentConfirmed, []model.Role{model.RoleProvider}},
		{model.EventAppointmentCompleted, []model.Role{model.RoleClient}},
		{model.EventAppointmentRated, []model.Role{model.RoleProvider}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			repo := &mocks.NotificationRepository{}
			var roles []model.Role
			repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				roles = append(roles, args.Get(1).(*model.Notification).RecipientRole)
			}).Return(nil)

			evt, _ := appointmentEvent(tt.typ)
			require.NoError(t, NewRecordChannel(repo, &mocks.UserRepository{}).Handle(evt)(context.Background()))
			assert.Equal(t, tt.roles, roles)
		})
	}
}

func TestRecordChannel_SystemAlertGoesToAdmins(t *testing.T) {
	repo := &mocks.NotificationRepository{}
	users := &mocks.UserRepository{}
	admins := []uuid.UUID{uuid.New(), uuid.New()}
	users.On("ListIDsByRole", mock.Anything, model.RoleAdmin).Return(admins, nil)

	var got []*model.Notification
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = append(got, args.Get(1).(*model.Notification))
	}).Return(nil)

	evt := model.NotificationEvent{
		Type:     model.EventSystemAlert,
		Priority: model.PriorityUrgent,
		Payload:  &model.AlertPayload{Title: "DB failover", Message: "Primary switched"},
	}
	require.NoError(t, NewRecordChannel(repo, users).Handle(evt)(context.Background()))

	require.Len(t, got, 2)
	for i, n := range got {
		assert.Equal(t, admins[i], n.UserID)
		assert.Equal(t, "DB failover", n.Title)
		assert.Equal(t, "Primary switched", n.Message)
		assert.Nil(t, n.AppointmentID)
	}
}

func TestRecordChannel_SubjectRole(t *testing.T) {
	repo := &mocks.NotificationRepository{}
	var got *model.Notification
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(*model.Notification)
	}).Return(nil)

	provider := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleProvider}
	evt := model.NotificationEvent{Type: model.EventProviderApproved, Priority: model.PriorityHigh, Payload: provider, UserID: provider.ID}
	require.NoError(t, NewRecordChannel(repo, &mocks.UserRepository{}).Handle(evt)(context.Background()))

	require.NotNil(t, got)
	assert.Equal(t, provider.ID, got.UserID)
	assert.Equal(t, model.RoleProvider, got.RecipientRole)
}

func TestRecordChannel_UnlistedType(t *testing.T) {
	ch := NewRecordChannel(&mocks.NotificationRepository{}, &mocks.UserRepository{})
	assert.Nil(t, ch.Handle(model.NotificationEvent{Type: model.EventUserUpdated}))
}

func TestPushChannel_Filters(t *testing.T) {
	broker := &fakeBroker{}
	ch := NewPushChannel(broker)

	approved, _ := appointmentEvent(model.EventAppointmentApproved)
	rejected, _ := appointmentEvent(model.EventAppointmentRejected)
	created, _ := appointmentEvent(model.EventAppointmentCreated)
	lowCancel, _ := appointmentEvent(model.EventAppointmentCancelled)
	lowCancel.Priority = model.PriorityLow

	assert.NotNil(t, ch.Handle(approved))
	assert.Nil(t, ch.Handle(rejected), "high priority but not a push type")
	assert.Nil(t, ch.Handle(created), "medium priority")
	assert.Nil(t, ch.Handle(lowCancel), "push type below high priority")
}

func TestPushChannel_Cancelled(t *testing.T) {
	broker := &fakeBroker{}
	ch := NewPushChannel(broker)

	evt, appt := appointmentEvent(model.EventAppointmentCancelled)
	require.NoError(t, ch.Handle(evt)(context.Background()))

	require.Len(t, broker.sent, 2)
	assert.Equal(t, messaging.UserChannel(appt.ClientID.String()), broker.sent[0].Channel)
	assert.Equal(t, messaging.UserChannel(appt.ProviderID.String()), broker.sent[1].Channel)
	assert.Equal(t, "appointment_cancelled", broker.sent[0].Message.Type)
	assert.Equal(t, "high", broker.sent[0].Message.Priority)
}

func TestPushChannel_OverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	broker := redisbroker.NewRedisBroker(client, zerolog.Nop())

	evt, appt := appointmentEvent(model.EventAppointmentApproved)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, err := broker.Subscribe(ctx, messaging.UserChannel(appt.ClientID.String()))
	require.NoError(t, err)

	require.NoError(t, NewPushChannel(broker).Handle(evt)(context.Background()))

	select {
	case raw := <-msgs:
		var msg messaging.Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "appointment_approved", msg.Type)
		assert.Equal(t, appt.ClientID.String(), msg.RecipientID)
	case <-time.After(2 * time.Second):
		t.Fatal("push message not received")
	}
}

func TestCenter_WithAllChannels(t *testing.T) {
	sender := &fakeSender{}
	users := &mocks.UserRepository{}
	repo := &mocks.NotificationRepository{}
	broker := &fakeBroker{}

	evt, appt := appointmentEvent(model.EventAppointmentApproved)
	users.On("Get", mock.Anything, appt.ClientID).Return(&model.User{Name: "Ana", Email: "ana@example.com"}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(stderrors.New("db down"))

	c := NewCenter(zerolog.Nop())
	c.Subscribe(ChannelEmail, NewEmailChannel(sender, users).Handle)
	c.Subscribe(ChannelRecord, NewRecordChannel(repo, users).Handle)
	c.Subscribe(ChannelPush, NewPushChannel(broker).Handle)

	c.PublishAppointment(context.Background(), evt.Type, appt, appt.ProviderID)

	// the record failure does not stop the other channels
	assert.Len(t, sender.sent, 1)
	assert.Len(t, broker.sent, 1)
	repo.AssertNumberOfCalls(t, "Create", 2)
}
