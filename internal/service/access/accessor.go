package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
)

// Accessor is the unguarded data access the proxy delegates to.
type Accessor interface {
	// Owners returns the user ids that own the resource.
	Owners(ctx context.Context, r Resource, id uuid.UUID) ([]uuid.UUID, error)
	Read(ctx context.Context, r Resource, id uuid.UUID) (model.JSONMap, error)
	Update(ctx context.Context, r Resource, id uuid.UUID, fields model.JSONMap) (model.JSONMap, error)
	Delete(ctx context.Context, r Resource, id uuid.UUID) error
}

type RepositoryAccessor struct {
	users        repository.UserRepository
	providers    repository.ProviderRepository
	appointments repository.AppointmentRepository
	records      repository.MedicalRecordRepository
}

func NewRepositoryAccessor(
	users repository.UserRepository,
	providers repository.ProviderRepository,
	appointments repository.AppointmentRepository,
	records repository.MedicalRecordRepository,
) *RepositoryAccessor {
	return &RepositoryAccessor{
		users:        users,
		providers:    providers,
		appointments: appointments,
		records:      records,
	}
}

func (a *RepositoryAccessor) Owners(ctx context.Context, r Resource, id uuid.UUID) ([]uuid.UUID, error) {
	switch r {
	case ResourceUser, ResourceProvider:
		// existence is checked by the delegated call
		return []uuid.UUID{id}, nil
	case ResourceAppointment:
		appt, err := a.appointments.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return []uuid.UUID{appt.ClientID, appt.ProviderID}, nil
	case ResourceMedicalRecord:
		rec, err := a.records.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return []uuid.UUID{rec.ClientID}, nil
	}
	return nil, unsupported(r, VerbRead)
}

func (a *RepositoryAccessor) Read(ctx context.Context, r Resource, id uuid.UUID) (model.JSONMap, error) {
	var (
		v   interface{}
		err error
	)
	switch r {
	case ResourceUser:
		v, err = a.users.Get(ctx, id)
	case ResourceProvider:
		v, err = a.providers.Get(ctx, id)
	case ResourceAppointment:
		v, err = a.appointments.Get(ctx, id)
	case ResourceMedicalRecord:
		v, err = a.records.Get(ctx, id)
	default:
		return nil, unsupported(r, VerbRead)
	}
	if err != nil {
		return nil, err
	}
	return model.ToJSONMap(v)
}

func (a *RepositoryAccessor) Update(ctx context.Context, r Resource, id uuid.UUID, fields model.JSONMap) (model.JSONMap, error) {
	var (
		v   interface{}
		err error
	)
	switch r {
	case ResourceUser:
		v, err = a.users.Update(ctx, id, fields)
	case ResourceProvider:
		v, err = a.providers.Update(ctx, id, fields)
	case ResourceMedicalRecord:
		v, err = a.records.Update(ctx, id, fields)
	default:
		return nil, unsupported(r, VerbUpdate)
	}
	if err != nil {
		return nil, err
	}
	return model.ToJSONMap(v)
}

func (a *RepositoryAccessor) Delete(ctx context.Context, r Resource, id uuid.UUID) error {
	switch r {
	case ResourceUser:
		return a.users.Delete(ctx, id)
	case ResourceMedicalRecord:
		return a.records.Delete(ctx, id)
	}
	return unsupported(r, VerbDelete)
}

func unsupported(r Resource, v Verb) error {
	return fmt.Errorf("%s is not supported on %s", v, r)
}
