package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
	"github.com/jwalitptl/appointment-api/pkg/errors"
)

var appointmentColumns = []interface{}{
	"id", "client_id", "patient_id", "provider_id", "date", "time", "status", "reason",
	"fee", "notes", "diagnosis", "treatment", "follow_up", "rating", "review",
	"completed_at", "created_at", "updated_at",
}

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, client_id, patient_id, provider_id, date, time, status, reason,
			notes, created_at, updated_at
		) VALUES (
			:id, :client_id, :patient_id, :provider_id, :date, :time, :status, :reason,
			:notes, :created_at, :updated_at
		)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	now := time.Now().UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, query, appointment); err != nil {
		if isUniqueViolation(err) {
			return errors.NewConflict("time slot is already booked", err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query, args, err := dialect.From("appointments").
		Select(appointmentColumns...).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, args...); err != nil {
		return nil, notFoundOr(err, "appointment", "get")
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment, from model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET date = $1, time = $2, status = $3, fee = $4, notes = $5, diagnosis = $6,
			treatment = $7, follow_up = $8, rating = $9, review = $10, completed_at = $11,
			updated_at = $12
		WHERE id = $13 AND status = $14
	`
	updatedAt := time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Fee,
		appointment.Notes,
		appointment.Diagnosis,
		appointment.Treatment,
		appointment.FollowUp,
		appointment.Rating,
		appointment.Review,
		appointment.CompletedAt,
		updatedAt,
		appointment.ID,
		from,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewConflict("time slot is already booked", err)
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// someone else moved it first
		return errors.NewNotEligible("appointment", nil)
	}

	appointment.UpdatedAt = updatedAt
	return nil
}

func (r *appointmentRepository) SetRating(ctx context.Context, id, clientID uuid.UUID, rating int, review string) error {
	query := `
		UPDATE appointments SET rating = $1, review = $2, updated_at = $3
		WHERE id = $4 AND client_id = $5 AND status = $6 AND rating IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, rating, review, time.Now().UTC(), id, clientID, model.AppointmentStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to rate appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewBadRequest("appointment has already been rated", nil)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	where := goqu.Ex{}
	if filters.ClientID != uuid.Nil {
		where["client_id"] = filters.ClientID
	}
	if filters.ProviderID != uuid.Nil {
		where["provider_id"] = filters.ProviderID
	}
	if filters.Status != "" {
		where["status"] = string(filters.Status)
	}

	ds := dialect.From("appointments").Where(where)
	if filters.From != nil {
		ds = ds.Where(goqu.C("date").Gte(filters.From.String()))
	}
	if filters.To != nil {
		ds = ds.Where(goqu.C("date").Lte(filters.To.String()))
	}

	countSQL, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	page := filters.Pagination.Normalize()
	query, args, err := ds.Select(appointmentColumns...).
		Order(goqu.C("date").Desc(), goqu.C("time").Desc()).
		Limit(uint(page.PageSize)).
		Offset(uint(page.Offset())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, total, nil
}

func (r *appointmentRepository) FindActiveBySlot(ctx context.Context, providerID uuid.UUID, date model.Date, slot string, excludeID uuid.UUID) (*model.Appointment, error) {
	ds := dialect.From("appointments").
		Select(appointmentColumns...).
		Where(
			goqu.Ex{
				"provider_id": providerID,
				"date":        date.String(),
				"time":        slot,
			},
			goqu.C("status").NotIn(string(model.AppointmentStatusCancelled), string(model.AppointmentStatusRejected)),
		).
		Limit(1)
	if excludeID != uuid.Nil {
		ds = ds.Where(goqu.C("id").Neq(excludeID))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	return &appointment, nil
}
