// Package notification fans lifecycle, user and admin events out to the
// delivery channels. A channel failure is logged and never reaches the caller.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/pkg/metrics"
)

// Action is the side effect a channel wants to run for one event.
type Action func(ctx context.Context) error

// Handler decides what a channel does with an event. A nil Action means the
// channel has nothing to deliver.
type Handler func(evt model.NotificationEvent) Action

type subscription struct {
	name    string
	handler Handler
}

type Center struct {
	mu            sync.RWMutex
	subscriptions []subscription

	async    bool
	timeout  time.Duration
	inFlight sync.WaitGroup

	now     func() time.Time
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

type Option func(*Center)

// WithAsync makes Notify return immediately. Call Wait before exiting.
func WithAsync(async bool) Option {
	return func(c *Center) { c.async = async }
}

// WithChannelTimeout sets a deadline on the context passed to each channel.
// Only channels that honour ctx stop at the deadline; deliver still waits for
// the action to return.
func WithChannelTimeout(d time.Duration) Option {
	return func(c *Center) { c.timeout = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Center) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Center) { c.now = now }
}

func NewCenter(logger zerolog.Logger, opts ...Option) *Center {
	c := &Center{
		now:    time.Now,
		logger: logger.With().Str("component", "notification").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers a channel under name, replacing any channel with the same name.
func (c *Center) Subscribe(name string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subscriptions {
		if s.name == name {
			c.subscriptions[i].handler = h
			return
		}
	}
	c.subscriptions = append(c.subscriptions, subscription{name: name, handler: h})
}

// Unsubscribe removes the named channel and reports whether it was registered.
func (c *Center) Unsubscribe(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subscriptions {
		if s.name == name {
			c.subscriptions = append(c.subscriptions[:i:i], c.subscriptions[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Center) Channels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.subscriptions))
	for i, s := range c.subscriptions {
		names[i] = s.name
	}
	return names
}

// Notify delivers evt to every channel concurrently and waits for all of them,
// unless the center is async. It never fails.
func (c *Center) Notify(ctx context.Context, evt model.NotificationEvent) {
	if evt.Priority == "" {
		evt.Priority = model.PriorityOf(evt.Type)
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = c.now().UTC()
	}

	if !c.async {
		c.dispatch(ctx, evt)
		return
	}

	c.inFlight.Add(1)
	go func() {
		defer c.inFlight.Done()
		c.dispatch(context.WithoutCancel(ctx), evt)
	}()
}

// Wait blocks until every async dispatch has finished.
func (c *Center) Wait() {
	c.inFlight.Wait()
}

func (c *Center) dispatch(ctx context.Context, evt model.NotificationEvent) {
	start := time.Now()

	c.mu.RLock()
	subs := make([]subscription, len(c.subscriptions))
	copy(subs, c.subscriptions)
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for _, s := range subs {
		wg.Add(1)
		go func(s subscription) {
			defer wg.Done()
			c.deliver(ctx, s, evt)
		}(s)
	}
	wg.Wait()

	if c.metrics != nil {
		c.metrics.NotificationLatency.Observe(time.Since(start).Seconds())
	}
}

func (c *Center) deliver(ctx context.Context, s subscription, evt model.NotificationEvent) {
	result := "ok"
	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			c.logger.Error().
				Str("channel", s.name).
				Str("event", string(evt.Type)).
				Interface("panic", r).
				Msg("notification channel panicked")
		}
		c.count(s.name, result)
	}()

	action := s.handler(evt)
	if action == nil {
		result = "skipped"
		return
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := action(ctx); err != nil {
		result = "failed"
		c.logger.Warn().
			Err(err).
			Str("channel", s.name).
			Str("event", string(evt.Type)).
			Str("appointment_id", evt.AppointmentID.String()).
			Msg("notification delivery failed")
	}
}

func (c *Center) count(channel, result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.NotificationDeliveries.WithLabelValues(channel, result).Inc()
}

// PublishAppointment notifies about a lifecycle change. The payload is a copy
// of the post-transition appointment.
func (c *Center) PublishAppointment(ctx context.Context, eventType model.EventType, appt *model.Appointment, actorID uuid.UUID) {
	snapshot := *appt
	c.Notify(ctx, model.NotificationEvent{
		Type:          eventType,
		Priority:      model.PriorityOf(eventType),
		Payload:       &snapshot,
		AppointmentID: appt.ID,
		UserID:        appt.ClientID,
		ProviderID:    appt.ProviderID,
		ActorID:       actorID,
	})
}

// PublishUser notifies about an account change. The user is the subject.
func (c *Center) PublishUser(ctx context.Context, eventType model.EventType, user *model.User, actorID uuid.UUID) {
	snapshot := *user
	snapshot.PasswordHash = ""
	snapshot.RefreshToken = ""
	evt := model.NotificationEvent{
		Type:     eventType,
		Priority: model.PriorityOf(eventType),
		Payload:  &snapshot,
		UserID:   user.ID,
		ActorID:  actorID,
	}
	if user.Role == model.RoleProvider {
		evt.ProviderID = user.ID
	}
	c.Notify(ctx, evt)
}

// PublishAdmin notifies about an administrative action or broadcast.
func (c *Center) PublishAdmin(ctx context.Context, eventType model.EventType, payload interface{}, adminID uuid.UUID) {
	c.Notify(ctx, model.NotificationEvent{
		Type:     eventType,
		Priority: model.PriorityOf(eventType),
		Payload:  payload,
		AdminID:  adminID,
		ActorID:  adminID,
	})
}
