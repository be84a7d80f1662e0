package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusApproved  AppointmentStatus = "approved"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusRejected  AppointmentStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusApproved, AppointmentStatusConfirmed,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusRejected:
		return true
	}
	return false
}

// HoldsSlot reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) HoldsSlot() bool {
	return s != AppointmentStatusCancelled && s != AppointmentStatusRejected
}

type Appointment struct {
	Base
	ClientID    uuid.UUID         `db:"client_id" json:"client_id"`
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	ProviderID  uuid.UUID         `db:"provider_id" json:"provider_id"`
	Date        Date              `db:"date" json:"date"`
	Time        string            `db:"time" json:"time"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Reason      string            `db:"reason" json:"reason"`
	Fee         *decimal.Decimal  `db:"fee" json:"fee,omitempty"`
	Notes       string            `db:"notes" json:"notes,omitempty"`
	Diagnosis   string            `db:"diagnosis" json:"diagnosis,omitempty"`
	Treatment   string            `db:"treatment" json:"treatment,omitempty"`
	FollowUp    bool              `db:"follow_up" json:"follow_up"`
	Rating      *int              `db:"rating" json:"rating,omitempty"`
	Review      string            `db:"review" json:"review,omitempty"`
	CompletedAt *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
}

// SlotKey identifies the (provider, date, time) triple.
func (a *Appointment) SlotKey() string {
	return SlotKey(a.ProviderID, a.Date, a.Time)
}

func SlotKey(providerID uuid.UUID, date Date, slot string) string {
	return providerID.String() + ":" + date.String() + ":" + slot
}

// CreateAppointmentRequest is checked field by field by the booking chain.
type CreateAppointmentRequest struct {
	PatientID  string `json:"patient_id"`
	ProviderID string `json:"provider_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Reason     string `json:"reason"`
}

type ApproveAppointmentRequest struct {
	Fee   *decimal.Decimal `json:"fee"`
	Notes string           `json:"notes" binding:"max=2000"`
}

type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type CompleteAppointmentRequest struct {
	Diagnosis string `json:"diagnosis"`
	Treatment string `json:"treatment"`
	FollowUp  bool   `json:"follow_up"`
	Notes     string `json:"notes" binding:"max=2000"`
}

type RescheduleAppointmentRequest struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Notes string `json:"notes" binding:"max=1000"`
}

type RateAppointmentRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review" binding:"max=2000"`
}

type AppointmentFilters struct {
	ClientID   uuid.UUID
	ProviderID uuid.UUID
	Status     AppointmentStatus
	From       *Date
	To         *Date
	Pagination
}
