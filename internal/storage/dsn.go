package storage

import (
	"fmt"
	"net/url"
	"strings"

	"edgealign/internal/domain"
)

// buildMySQLDSN constructs a MySQL DSN from a JournalConnection.
func buildMySQLDSN(conn domain.JournalConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 3306
	}
	// Format: user:password@tcp(host:port)/dbname?charset=utf8mb4
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4",
		conn.Username, password, conn.Host, port, conn.Database,
	)
	if conn.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}

// buildPostgresDSN constructs a Postgres connection string from a JournalConnection.
func buildPostgresDSN(conn domain.JournalConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		conn.Host, port, conn.Username, quotePQ(password), conn.Database, sslMode,
	)
}

// quotePQ quotes a keyword/value parameter when it contains spaces or quotes.
func quotePQ(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + v + "'"
}

// buildMongoURI returns the connection URI and database name. A host that is
// already a mongodb:// or mongodb+srv:// URI is used as-is, with <password>
// placeholders filled in.
func buildMongoURI(conn domain.JournalConnection, password string) (uri, dbName string) {
	dbName = conn.Database
	if strings.HasPrefix(conn.Host, "mongodb+srv://") || strings.HasPrefix(conn.Host, "mongodb://") {
		uri = conn.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", url.QueryEscape(password))
			uri = strings.ReplaceAll(uri, "<db_password>", url.QueryEscape(password))
		}
		if dbName == "" {
			dbName = databaseFromURI(uri)
		}
	} else {
		port := conn.Port
		if port == 0 {
			port = 27017
		}
		if conn.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d",
				url.QueryEscape(conn.Username), url.QueryEscape(password), conn.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", conn.Host, port)
		}
	}
	if dbName == "" {
		dbName = "edgealign"
	}
	return uri, dbName
}

// databaseFromURI extracts the path segment of user:pass@host/DB?params.
func databaseFromURI(uri string) string {
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(uri, prefix) {
			uri = uri[len(prefix):]
			break
		}
	}
	if atIdx := strings.LastIndex(uri, "@"); atIdx != -1 {
		uri = uri[atIdx+1:]
	}
	slashIdx := strings.Index(uri, "/")
	if slashIdx == -1 {
		return ""
	}
	path := uri[slashIdx+1:]
	if qIdx := strings.Index(path, "?"); qIdx != -1 {
		path = path[:qIdx]
	}
	return path
}

// redact hides password in s for logging.
func redact(s, password string) string {
	if password == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(password), "***")
	return strings.ReplaceAll(s, password, "***")
}
