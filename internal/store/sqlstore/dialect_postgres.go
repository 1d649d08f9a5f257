package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// PostgresDialect targets PostgreSQL through lib/pq.
type PostgresDialect struct{}

func (PostgresDialect) DriverName() string { return "postgres" }

func (PostgresDialect) DSN(cfg Config) string { return cfg.URL }

func (PostgresDialect) Rebind(query string) string { return rebindNumbered(query) }

// SupportsLastInsertId is false: inserts use RETURNING id instead.
func (PostgresDialect) SupportsLastInsertId() bool { return false }

func (PostgresDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (PostgresDialect) MigrationsSubdir() string { return "postgres" }

func (PostgresDialect) ForUpdate() string { return " FOR UPDATE" }

// uniqueViolation is SQLSTATE 23505.
const uniqueViolation = pq.ErrorCode("23505")

func (PostgresDialect) IsUniqueViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == uniqueViolation
}
