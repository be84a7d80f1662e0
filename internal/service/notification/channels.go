package notification

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/jwalitptl/appointment-api/internal/email"
	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
	"github.com/jwalitptl/appointment-api/pkg/messaging"
)

const (
	ChannelEmail  = "email"
	ChannelRecord = "record"
	ChannelPush   = "push"
)

// EmailChannel mails the parties of a small set of events.
type EmailChannel struct {
	sender email.Sender
	users  repository.UserRepository
	cb     *gobreaker.CircuitBreaker
}

func NewEmailChannel(sender email.Sender, users repository.UserRepository) *EmailChannel {
	return &EmailChannel{
		sender: sender,
		users:  users,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "email",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (c *EmailChannel) Handle(evt model.NotificationEvent) Action {
	tpl, ok := mailTemplates[evt.Type]
	if !ok {
		return nil
	}
	recipients := tpl.recipients(evt)
	if len(recipients) == 0 {
		return nil
	}

	return func(ctx context.Context) error {
		var errs []error
		for _, id := range recipients {
			if err := c.send(ctx, id, tpl, evt); err != nil {
				errs = append(errs, err)
			}
		}
		return stderrors.Join(errs...)
	}
}

func (c *EmailChannel) send(ctx context.Context, userID uuid.UUID, tpl mailTemplate, evt model.NotificationEvent) error {
	user, err := c.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup recipient %s: %w", userID, err)
	}
	if user.Email == "" {
		return nil
	}

	body, err := render(tpl.body, dataFor(evt, user.Name))
	if err != nil {
		return err
	}

	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.sender.Send(ctx, user.Email, tpl.subject, body)
	})
	return err
}

type audience uint8

const (
	audienceClient audience = 1 << iota
	audienceProvider
	audienceSubject
	audienceAdmins
)

var recordAudiences = map[model.EventType]audience{
	model.EventAppointmentCreated:     audienceClient | audienceProvider,
	model.EventAppointmentApproved:    audienceClient | audienceProvider,
	model.EventAppointmentRejected:    audienceClient,
	model.EventAppointmentConfirmed:   audienceProvider,
	model.EventAppointmentCancelled:   audienceClient | audienceProvider,
	model.EventAppointmentCompleted:   audienceClient,
	model.EventAppointmentRescheduled: audienceClient | audienceProvider,
	model.EventAppointmentRated:       audienceProvider,
	model.EventAppointmentReminder:    audienceClient | audienceProvider,
	model.EventUserBlocked:            audienceSubject,
	model.EventUserUnblocked:          audienceSubject,
	model.EventProviderApproved:       audienceSubject,
	model.EventProviderRejected:       audienceSubject,
	model.EventSystemAlert:            audienceAdmins,
}

// RecordChannel persists one in-app notification per eligible recipient.
type RecordChannel struct {
	repo  repository.NotificationRepository
	users repository.UserRepository
}

func NewRecordChannel(repo repository.NotificationRepository, users repository.UserRepository) *RecordChannel {
	return &RecordChannel{repo: repo, users: users}
}

type recipient struct {
	id   uuid.UUID
	role model.Role
}

func (c *RecordChannel) Handle(evt model.NotificationEvent) Action {
	aud, ok := recordAudiences[evt.Type]
	if !ok {
		return nil
	}

	return func(ctx context.Context) error {
		recipients, err := c.resolve(ctx, evt, aud)
		if err != nil {
			return err
		}

		var apptID *uuid.UUID
		if evt.AppointmentID != uuid.Nil {
			id := evt.AppointmentID
			apptID = &id
		}

		var errs []error
		for _, r := range recipients {
			title, message := recordText(evt, r.role)
			n := &model.Notification{
				UserID:        r.id,
				RecipientRole: r.role,
				Type:          evt.Type,
				Title:         title,
				Message:       message,
				Priority:      evt.Priority,
				AppointmentID: apptID,
			}
			if err := c.repo.Create(ctx, n); err != nil {
				errs = append(errs, fmt.Errorf("store notification for %s: %w", r.id, err))
			}
		}
		return stderrors.Join(errs...)
	}
}

func (c *RecordChannel) resolve(ctx context.Context, evt model.NotificationEvent, aud audience) ([]recipient, error) {
	var out []recipient
	if aud&audienceClient != 0 && evt.UserID != uuid.Nil {
		out = append(out, recipient{evt.UserID, model.RoleClient})
	}
	if aud&audienceProvider != 0 && evt.ProviderID != uuid.Nil {
		out = append(out, recipient{evt.ProviderID, model.RoleProvider})
	}
	if aud&audienceSubject != 0 && evt.UserID != uuid.Nil {
		role := model.RoleClient
		if u, ok := evt.Payload.(*model.User); ok {
			role = u.Role
		}
		out = append(out, recipient{evt.UserID, role})
	}
	if aud&audienceAdmins != 0 {
		admins, err := c.users.ListIDsByRole(ctx, model.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("list admins: %w", err)
		}
		for _, id := range admins {
			out = append(out, recipient{id, model.RoleAdmin})
		}
	}
	return out, nil
}

var pushTypes = map[model.EventType]func(evt model.NotificationEvent) []uuid.UUID{
	model.EventAppointmentApproved:  toClient,
	model.EventAppointmentCancelled: toParties,
}

// PushChannel relays urgent appointment news to connected devices through the broker.
type PushChannel struct {
	broker messaging.Broker
	now    func() time.Time
}

func NewPushChannel(broker messaging.Broker) *PushChannel {
	return &PushChannel{broker: broker, now: time.Now}
}

func (c *PushChannel) Handle(evt model.NotificationEvent) Action {
	if evt.Priority != model.PriorityHigh && evt.Priority != model.PriorityUrgent {
		return nil
	}
	targets, ok := pushTypes[evt.Type]
	if !ok {
		return nil
	}
	recipients := targets(evt)
	if len(recipients) == 0 {
		return nil
	}

	return func(ctx context.Context) error {
		var errs []error
		for _, id := range recipients {
			role := model.RoleClient
			if id == evt.ProviderID {
				role = model.RoleProvider
			}
			title, body := recordText(evt, role)
			msg := messaging.Message{
				Type:        string(evt.Type),
				Priority:    string(evt.Priority),
				RecipientID: id.String(),
				Title:       title,
				Body:        body,
				Payload:     map[string]string{"appointment_id": evt.AppointmentID.String()},
				SentAt:      c.now().UTC(),
			}
			if err := c.broker.Publish(ctx, messaging.UserChannel(id.String()), msg); err != nil {
				errs = append(errs, err)
			}
		}
		return stderrors.Join(errs...)
	}
}
