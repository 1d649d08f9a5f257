package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

// SQLiteDialect is the default single-file backend.
type SQLiteDialect struct{}

func (SQLiteDialect) DriverName() string { return "sqlite3" }

// DSN adds busy timeout, WAL journaling and immediate write transactions so
// concurrent writers queue instead of failing with SQLITE_BUSY mid-transaction.
func (SQLiteDialect) DSN(cfg Config) string {
	return cfg.Path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate"
}

func (SQLiteDialect) Rebind(query string) string { return query }

func (SQLiteDialect) SupportsLastInsertId() bool { return true }

func (SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return fmt.Errorf("set pragmas: %w", err)
	}
	return nil
}

func (SQLiteDialect) MigrationsSubdir() string { return "sqlite" }

func (SQLiteDialect) ForUpdate() string { return "" }

func (SQLiteDialect) IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// ensureDir creates the parent directory for relative DSNs like ./data/app.db.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
