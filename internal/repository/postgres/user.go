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
	"github.com/jwalitptl/appointment-api/pkg/errors"
)

var userColumns = []interface{}{
	"id", "name", "email", "phone", "address", "role", "password_hash", "refresh_token",
	"is_blocked", "is_approved", "created_at", "updated_at", "deleted_at",
}

var userUpdatable = map[string]bool{
	"name": true, "email": true, "phone": true, "address": true,
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, name, email, phone, address, role, password_hash,
			is_blocked, is_approved, created_at, updated_at
		) VALUES (
			:id, :name, :email, :phone, :address, :role, :password_hash,
			:is_blocked, :is_approved, :created_at, :updated_at
		)
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return errors.NewConflict("email already registered", err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query, args, err := dialect.From("users").
		Select(userColumns...).
		Where(goqu.Ex{"id": id, "deleted_at": nil}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		return nil, notFoundOr(err, "user", "get")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, fields model.JSONMap) (*model.User, error) {
	rec := updateRecord(fields, userUpdatable)
	if len(rec) == 0 {
		return r.Get(ctx, id)
	}
	rec["updated_at"] = time.Now().UTC()

	query, args, err := dialect.Update("users").
		Set(rec).
		Where(goqu.Ex{"id": id, "deleted_at": nil}).
		Returning(userColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, errors.NewConflict("email already registered", err)
		}
		return nil, notFoundOr(err, "user", "update")
	}
	return &user, nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return mustAffect(result, "user")
}

func (r *userRepository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	query := `UPDATE users SET is_blocked = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, blocked, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return mustAffect(result, "user")
}

func (r *userRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	query := `UPDATE users SET is_approved = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, approved, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return mustAffect(result, "user")
}

func (r *userRepository) ListIDsByRole(ctx context.Context, role model.Role) ([]uuid.UUID, error) {
	query := `SELECT id FROM users WHERE role = $1 AND deleted_at IS NULL AND is_blocked = false`
	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, query, role); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ids, nil
}
