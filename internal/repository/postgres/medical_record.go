package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
)

var medicalRecordColumns = []interface{}{
	"id", "patient_id", "client_id", "provider_id", "appointment_id", "diagnosis",
	"treatment", "prescription", "notes", "created_at", "updated_at", "deleted_at",
}

var medicalRecordUpdatable = map[string]bool{
	"diagnosis": true, "treatment": true, "prescription": true, "notes": true,
}

type medicalRecordRepository struct {
	db *sqlx.DB
}

func NewMedicalRecordRepository(db *sqlx.DB) repository.MedicalRecordRepository {
	return &medicalRecordRepository{db: db}
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (
			id, patient_id, client_id, provider_id, appointment_id, diagnosis,
			treatment, prescription, notes, created_at, updated_at
		) VALUES (
			:id, :patient_id, :client_id, :provider_id, :appointment_id, :diagnosis,
			:treatment, :prescription, :notes, :created_at, :updated_at
		)
	`
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to create medical record: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query, args, err := dialect.From("medical_records").
		Select(medicalRecordColumns...).
		Where(goqu.Ex{"id": id, "deleted_at": nil}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		return nil, notFoundOr(err, "medical record", "get")
	}
	return &record, nil
}

func (r *medicalRecordRepository) Update(ctx context.Context, id uuid.UUID, fields model.JSONMap) (*model.MedicalRecord, error) {
	rec := updateRecord(fields, medicalRecordUpdatable)
	if len(rec) == 0 {
		return r.Get(ctx, id)
	}
	rec["updated_at"] = time.Now().UTC()

	query, args, err := dialect.Update("medical_records").
		Set(rec).
		Where(goqu.Ex{"id": id, "deleted_at": nil}).
		Returning(medicalRecordColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		return nil, notFoundOr(err, "medical record", "update")
	}
	return &record, nil
}

func (r *medicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE medical_records SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete medical record: %w", err)
	}
	return mustAffect(result, "medical record")
}
