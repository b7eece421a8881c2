package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"edgealign/internal/domain"
)

// DB wraps a database/sql connection to the journal backend.
type DB struct {
	conn   *sql.DB
	driver domain.JournalDriver
}

// OpenSQLite opens (or creates) the SQLite journal at path.
func OpenSQLite(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer — limit to single connection to prevent SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, driver: domain.JournalDriverSQLite}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenSQL opens a MySQL or Postgres journal and verifies connectivity.
func OpenSQL(ctx context.Context, driver domain.JournalDriver, dsn string) (*DB, error) {
	var name string
	switch driver {
	case domain.JournalDriverMySQL:
		name = "mysql"
	case domain.JournalDriverPostgres:
		name = "postgres"
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}

	conn, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the backend the connection talks to.
func (db *DB) Driver() domain.JournalDriver {
	return db.driver
}

func (db *DB) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS optimize_runs (
			id VARCHAR(36) PRIMARY KEY,
			source VARCHAR(16) NOT NULL,
			path TEXT NOT NULL,
			status VARCHAR(16) NOT NULL,
			elements INTEGER NOT NULL DEFAULT 0,
			connectors INTEGER NOT NULL DEFAULT 0,
			rewritten INTEGER NOT NULL DEFAULT 0,
			width_fixed INTEGER NOT NULL DEFAULT 0,
			unbound INTEGER NOT NULL DEFAULT 0,
			changed INTEGER NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX idx_optimize_runs_created ON optimize_runs(created_at)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.ExecContext(ctx, m); err != nil {
			// Index creation has no portable IF NOT EXISTS — an existing index is fine
			if strings.HasPrefix(m, "CREATE INDEX") && isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

func isDuplicateIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}

// rebind rewrites '?' placeholders to the backend's syntax.
func (db *DB) rebind(query string) string {
	if db.driver != domain.JournalDriverPostgres {
		return query
	}
	var b strings.Builder
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
