package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/model"
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// Update persists the appointment only if its stored status is still from.
		Update(ctx context.Context, appointment *model.Appointment, from model.AppointmentStatus) error
		// SetRating writes rating and review once, only on a completed appointment of clientID.
		SetRating(ctx context.Context, id, clientID uuid.UUID, rating int, review string) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error)
		// FindActiveBySlot returns nil, nil when the slot is free.
		FindActiveBySlot(ctx context.Context, providerID uuid.UUID, date model.Date, slot string, excludeID uuid.UUID) (*model.Appointment, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		Update(ctx context.Context, id uuid.UUID, fields model.JSONMap) (*model.User, error)
		Delete(ctx context.Context, id uuid.UUID) error
		SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
		SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
		ListIDsByRole(ctx context.Context, role model.Role) ([]uuid.UUID, error)
	}

	ProviderRepository interface {
		Create(ctx context.Context, provider *model.Provider) error
		Get(ctx context.Context, id uuid.UUID) (*model.Provider, error)
		Update(ctx context.Context, id uuid.UUID, fields model.JSONMap) (*model.Provider, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		Update(ctx context.Context, id uuid.UUID, fields model.JSONMap) (*model.MedicalRecord, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		ListByUser(ctx context.Context, userID uuid.UUID, page model.Pagination) ([]*model.Notification, int, error)
		MarkRead(ctx context.Context, id, userID uuid.UUID) error
		DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
