package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects SQL flavor and driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Config holds database configuration
type Config struct {
	Driver Dialect
	// Path is the sqlite file (or ":memory:").
	Path string
	// URL is the postgres connection string.
	URL string
}

// DB is a connection pool plus the dialect its queries are written for.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open connects and applies connection settings. It does not migrate.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case "", SQLite:
		return openSQLite(ctx, cfg.Path, logger)
	case Postgres:
		return openPostgres(ctx, cfg.URL, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openSQLite(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if path == "" {
		path = ":memory:"
	}

	memory := path == ":memory:" || strings.Contains(path, "mode=memory")

	dsn := path
	if !memory {
		// pragmas in the DSN apply to every pooled connection
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if memory {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	logger.Info("database initialized", "driver", SQLite)
	return &DB{DB: db, dialect: SQLite}, nil
}

func openPostgres(ctx context.Context, url string, logger *slog.Logger) (*DB, error) {
	if url == "" {
		return nil, fmt.Errorf("postgres driver requires DATABASE_URL")
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("database initialized", "driver", Postgres)
	return &DB{DB: db, dialect: Postgres}, nil
}

// Dialect returns the SQL flavor of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Rebind rewrites '?' placeholders to '$n' for postgres. Queries must not
// contain literal question marks.
func (db *DB) Rebind(query string) string {
	if db.dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Transaction executes fn within a database transaction.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
