package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAppointmentCreated     EventType = "appointment_created"
	EventAppointmentApproved    EventType = "appointment_approved"
	EventAppointmentRejected    EventType = "appointment_rejected"
	EventAppointmentConfirmed   EventType = "appointment_confirmed"
	EventAppointmentUpdated     EventType = "appointment_updated"
	EventAppointmentCancelled   EventType = "appointment_cancelled"
	EventAppointmentCompleted   EventType = "appointment_completed"
	EventAppointmentRescheduled EventType = "appointment_rescheduled"
	EventAppointmentRated       EventType = "appointment_rated"
	EventAppointmentReminder    EventType = "appointment_reminder"
	EventUserRegistered         EventType = "user_registered"
	EventUserUpdated            EventType = "user_updated"
	EventUserBlocked            EventType = "user_blocked"
	EventUserUnblocked          EventType = "user_unblocked"
	EventProviderRegistered     EventType = "provider_registered"
	EventProviderApproved       EventType = "provider_approved"
	EventProviderRejected       EventType = "provider_rejected"
	EventMedicalRecordUpdated   EventType = "medical_record_updated"
	EventAdminAction            EventType = "admin_action"
	EventSystemAlert            EventType = "system_alert"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var eventPriorities = map[EventType]Priority{
	EventAppointmentCreated:     PriorityMedium,
	EventAppointmentApproved:    PriorityHigh,
	EventAppointmentRejected:    PriorityHigh,
	EventAppointmentConfirmed:   PriorityMedium,
	EventAppointmentUpdated:     PriorityMedium,
	EventAppointmentCancelled:   PriorityHigh,
	EventAppointmentCompleted:   PriorityLow,
	EventAppointmentRescheduled: PriorityHigh,
	EventAppointmentRated:       PriorityLow,
	EventAppointmentReminder:    PriorityMedium,
	EventUserRegistered:         PriorityLow,
	EventUserUpdated:            PriorityLow,
	EventUserBlocked:            PriorityHigh,
	EventUserUnblocked:          PriorityMedium,
	EventProviderRegistered:     PriorityMedium,
	EventProviderApproved:       PriorityHigh,
	EventProviderRejected:       PriorityHigh,
	EventMedicalRecordUpdated:   PriorityMedium,
	EventAdminAction:            PriorityMedium,
	EventSystemAlert:            PriorityUrgent,
}

// PriorityOf returns the fixed priority of an event type. Unknown types are medium.
func PriorityOf(t EventType) Priority {
	if p, ok := eventPriorities[t]; ok {
		return p
	}
	return PriorityMedium
}

// NotificationEvent is built per state change and handed to every channel.
// Related identifiers are uuid.Nil when not applicable.
type NotificationEvent struct {
	Type          EventType   `json:"type"`
	Priority      Priority    `json:"priority"`
	Payload       interface{} `json:"payload"`
	Timestamp     time.Time   `json:"timestamp"`
	AppointmentID uuid.UUID   `json:"appointment_id,omitempty"`
	UserID        uuid.UUID   `json:"user_id,omitempty"`
	ProviderID    uuid.UUID   `json:"provider_id,omitempty"`
	AdminID       uuid.UUID   `json:"admin_id,omitempty"`
	ActorID       uuid.UUID   `json:"actor_id,omitempty"`
}

// Appointment returns the payload when the event carries one.
func (e NotificationEvent) Appointment() (*Appointment, bool) {
	a, ok := e.Payload.(*Appointment)
	return a, ok && a != nil
}

// Notification is the persisted in-app record, one per recipient.
type Notification struct {
	Base
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	RecipientRole Role       `db:"recipient_role" json:"recipient_role"`
	Type          EventType  `db:"type" json:"type"`
	Title         string     `db:"title" json:"title"`
	Message       string     `db:"message" json:"message"`
	Priority      Priority   `db:"priority" json:"priority"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	IsRead        bool       `db:"is_read" json:"is_read"`
	ReadAt        *time.Time `db:"read_at" json:"read_at,omitempty"`
}

// AlertPayload is the body of admin broadcast events.
type AlertPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// AdminActionPayload describes a moderation step for the admin_action event.
type AdminActionPayload struct {
	Action   string    `json:"action"`
	TargetID uuid.UUID `json:"target_id"`
}

type AlertRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=2000"`
}
