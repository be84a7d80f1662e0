package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
	"github.com/jwalitptl/appointment-api/pkg/errors"
)

// ConflictGuard answers whether a slot is already held by a live appointment.
type ConflictGuard struct {
	repo repository.AppointmentRepository
}

func NewConflictGuard(repo repository.AppointmentRepository) *ConflictGuard {
	return &ConflictGuard{repo: repo}
}

// FindConflict returns the appointment holding the slot, or nil. excludeID may be uuid.Nil.
func (g *ConflictGuard) FindConflict(ctx context.Context, providerID uuid.UUID, date model.Date, slot string, excludeID uuid.UUID) (*model.Appointment, error) {
	return g.repo.FindActiveBySlot(ctx, providerID, date, slot, excludeID)
}

// Ensure fails with a conflict error when the slot is held.
func (g *ConflictGuard) Ensure(ctx context.Context, providerID uuid.UUID, date model.Date, slot string, excludeID uuid.UUID) error {
	existing, err := g.FindConflict(ctx, providerID, date, slot, excludeID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.NewConflict("time slot is already booked", nil)
	}
	return nil
}
