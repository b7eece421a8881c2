package storage

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"edgealign/internal/domain"
)

// Open returns the run journal for conn. The password comes from the
// secret store and is only used by network backends.
func Open(ctx context.Context, conn domain.JournalConnection, password string, logger *log.Logger) (domain.RunStore, error) {
	switch conn.Driver {
	case "", domain.JournalDriverNone:
		return NopStore{}, nil

	case domain.JournalDriverSQLite:
		db, err := OpenSQLite(conn.Path)
		if err != nil {
			return nil, err
		}
		logger.Debug("journal: opened sqlite", "path", conn.Path)
		return NewRunStore(db), nil

	case domain.JournalDriverMySQL, domain.JournalDriverPostgres:
		dsn := buildMySQLDSN(conn, password)
		if conn.Driver == domain.JournalDriverPostgres {
			dsn = buildPostgresDSN(conn, password)
		}
		logger.Debug("journal: connecting", "driver", conn.Driver, "dsn", redact(dsn, password))
		db, err := OpenSQL(ctx, conn.Driver, dsn)
		if err != nil {
			return nil, err
		}
		return NewRunStore(db), nil

	case domain.JournalDriverMongoDB:
		uri, dbName := buildMongoURI(conn, password)
		logger.Debug("journal: connecting", "driver", conn.Driver, "uri", redact(uri, password), "database", dbName)
		return OpenMongo(ctx, uri, dbName)

	default:
		return nil, fmt.Errorf("unsupported journal driver: %s", conn.Driver)
	}
}
