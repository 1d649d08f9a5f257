package sqlstore

import (
	"database/sql"
	"strconv"
	"strings"
)

// Dialect hides the differences between the supported SQL backends.
type Dialect interface {
	// DriverName returns the driver name for sql.Open.
	DriverName() string

	// DSN builds the data source name from the configured path or URL.
	DSN(cfg Config) string

	// Rebind converts ? placeholders if needed (e.g. $1 for postgres).
	Rebind(query string) string

	// SupportsLastInsertId reports whether sql.Result.LastInsertId works.
	SupportsLastInsertId() bool

	// ConfigureConnection applies backend specific pool settings and pragmas.
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the directory under migrations/ for this backend.
	MigrationsSubdir() string

	// ForUpdate is appended to row-locking selects inside transactions.
	ForUpdate() string

	// IsUniqueViolation reports whether err is a unique/primary key violation.
	IsUniqueViolation(err error) bool
}

// Config selects and locates the backing database.
type Config struct {
	Driver string // sqlite3 | postgres
	Path   string // sqlite file
	URL    string // postgres connection string
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql":
		return PostgresDialect{}, true
	case "sqlite", "sqlite3", "":
		return SQLiteDialect{}, true
	}
	return nil, false
}

// rebindNumbered converts ? placeholders to $1, $2, ... outside quotes.
func rebindNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
