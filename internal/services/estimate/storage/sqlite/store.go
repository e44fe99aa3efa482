package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/estimate.space/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/estimate.space/internal/services/estimate/storage"
	"github.com/louisbranch/estimate.space/internal/services/estimate/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// pragmas are applied by the modernc driver to every new connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

// Store is the SQLite journal. Writes arrive from a single queue goroutine,
// so one connection is enough and keeps WAL checkpoints simple.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.JournalStore = (*Store)(nil)

// Open opens (or creates) the journal at path and brings its schema up to
// date.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal path is required")
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping journal %s: %w", path, err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func dsn(path string) string {
	query := url.Values{}
	for _, pragma := range pragmas {
		query.Add("_pragma", pragma)
	}
	return "file:" + filepath.ToSlash(filepath.Clean(path)) + "?" + query.Encode()
}

// DB exposes the handle for maintenance queries.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Timestamps are stored as UTC unix milliseconds.
func toMillis(value time.Time) int64 { return value.UTC().UnixMilli() }

func fromMillis(value int64) time.Time { return time.UnixMilli(value).UTC() }
