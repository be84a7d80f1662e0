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

var providerUpdatable = map[string]bool{
	"specialization": true, "license_number": true, "consultation_fee": true,
	"clinic_address": true, "bio": true,
}

type providerRepository struct {
	db *sqlx.DB
}

func NewProviderRepository(db *sqlx.DB) repository.ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) Create(ctx context.Context, provider *model.Provider) error {
	query := `
		INSERT INTO providers (
			id, specialization, license_number, consultation_fee, clinic_address, bio,
			created_at, updated_at
		) VALUES (
			:id, :specialization, :license_number, :consultation_fee, :clinic_address, :bio,
			:created_at, :updated_at
		)
	`
	now := time.Now().UTC()
	provider.CreatedAt = now
	provider.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, query, provider); err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

func (r *providerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	query, args, err := dialect.From(goqu.T("providers").As("p")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("p.id")))).
		Select(
			goqu.I("p.id"),
			goqu.I("u.name"),
			goqu.I("u.email"),
			goqu.I("u.phone"),
			goqu.I("p.specialization"),
			goqu.I("p.license_number"),
			goqu.I("p.consultation_fee"),
			goqu.I("p.clinic_address"),
			goqu.I("p.bio"),
			goqu.I("u.is_approved"),
			goqu.I("u.is_blocked"),
			goqu.I("p.created_at"),
			goqu.I("p.updated_at"),
			goqu.I("u.deleted_at"),
		).
		Where(goqu.I("p.id").Eq(id), goqu.I("u.role").Eq(string(model.RoleProvider))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var provider model.Provider
	if err := r.db.GetContext(ctx, &provider, query, args...); err != nil {
		return nil, notFoundOr(err, "provider", "get")
	}
	return &provider, nil
}

func (r *providerRepository) Update(ctx context.Context, id uuid.UUID, fields model.JSONMap) (*model.Provider, error) {
	rec := updateRecord(fields, providerUpdatable)
	if len(rec) > 0 {
		rec["updated_at"] = time.Now().UTC()
		query, args, err := dialect.Update("providers").
			Set(rec).
			Where(goqu.Ex{"id": id}).
			Prepared(true).
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("failed to build query: %w", err)
		}
		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update provider: %w", err)
		}
		if err := mustAffect(result, "provider"); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, id)
}
