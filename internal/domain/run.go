package domain

import (
	"context"
	"time"
)

// RunSource identifies which host triggered an optimization run.
type RunSource string

const (
	RunSourceCLI   RunSource = "cli"
	RunSourceWatch RunSource = "watch"
	RunSourceSweep RunSource = "sweep"
	RunSourceMCP   RunSource = "mcp"
)

// OptimizeRun is the journal record of one optimization pass. It describes
// the run only; the document itself is never stored.
type OptimizeRun struct {
	ID         string    `json:"id" bson:"_id"`
	Source     RunSource `json:"source" bson:"source"`
	Path       string    `json:"path,omitempty" bson:"path,omitempty"`
	Status     string    `json:"status" bson:"status"`
	Elements   int       `json:"elements" bson:"elements"`
	Connectors int       `json:"connectors" bson:"connectors"`
	Rewritten  int       `json:"rewritten" bson:"rewritten"`
	WidthFixed int       `json:"widthFixed" bson:"width_fixed"`
	Unbound    int       `json:"unbound" bson:"unbound"`
	Changed    bool      `json:"changed" bson:"changed"`
	DurationMs int64     `json:"durationMs" bson:"duration_ms"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}

// RunStore persists optimization run records.
type RunStore interface {
	RecordRun(ctx context.Context, r *OptimizeRun) error
	ListRuns(ctx context.Context, limit int) ([]OptimizeRun, error)
	PruneRuns(ctx context.Context, olderThan time.Time) (int64, error)
	Close() error
}

// JournalDriver selects the backend of the run journal.
type JournalDriver string

const (
	JournalDriverNone     JournalDriver = "none"
	JournalDriverSQLite   JournalDriver = "sqlite"
	JournalDriverMySQL    JournalDriver = "mysql"
	JournalDriverPostgres JournalDriver = "postgres"
	JournalDriverMongoDB  JournalDriver = "mongodb"
)

// JournalConnection holds what is needed to reach the journal backend.
// The password is resolved separately through a secret store.
type JournalConnection struct {
	Driver   JournalDriver `toml:"driver"`
	Path     string        `toml:"path"` // sqlite file
	Host     string        `toml:"host"` // hostname or full mongodb:// URI
	Port     int           `toml:"port"`
	Database string        `toml:"database"`
	Username string        `toml:"username"`
	SSLMode  string        `toml:"ssl_mode"`
}
