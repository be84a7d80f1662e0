package postgres

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/appointment-api/internal/config"
	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/pkg/errors"
)

const uniqueViolation = "23505"

var dialect = goqu.Dialect("postgres")

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFoundOr maps sql.ErrNoRows to a 404 and wraps everything else.
func notFoundOr(err error, resource, op string) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFound(resource, err)
	}
	return fmt.Errorf("failed to %s %s: %w", op, resource, err)
}

func mustAffect(res sql.Result, resource string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound(resource, nil)
	}
	return nil
}

// updateRecord turns a sanitised field map into a goqu record, dropping unknown columns.
func updateRecord(fields model.JSONMap, allowed map[string]bool) goqu.Record {
	rec := goqu.Record{}
	for k, v := range fields {
		if allowed[k] {
			rec[k] = v
		}
	}
	return rec
}
