// Package sqlite implements the SQLite storage backend for the record store.
// All tables share one records relation keyed by (table_name, record_id);
// each record body is stored as JSON. The DDL is versioned with embedded
// migrations applied on Attach.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// dbFileName is the database file created inside DataDir.
const dbFileName = "records.db"

// Backend implements types.Store using SQLite.
type Backend struct {
	mu        sync.RWMutex
	attached  bool
	config    types.Config
	db        *sql.DB
	tables    map[string]*table
	sessionID string
	log       zerolog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Backend) {
		b.log = log.With().Str("backend", types.BackendSQLite).Logger()
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tables: make(map[string]*table),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetTable returns the Table for the given name.
// Returns ErrTableNotFound if the table name is not recognized.
// Returns ErrStoreDetached if the backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	t, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return t, nil
}

// Attach opens the database in DataDir, applies pending migrations, and
// records a new session. An empty DataDir selects a private in-memory
// database.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dsn := ":memory:"
	if config.DataDir != "" {
		if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		dsn = filepath.Join(config.DataDir, dbFileName) + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("pinging database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return err
	}

	sessionID, err := startSession(db)
	if err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.sessionID = sessionID
	b.attached = true
	for _, name := range types.StandardTableNames {
		b.tables[name] = &table{name: name, backend: b}
	}

	b.log.Info().Str("data_dir", config.DataDir).Str("session_id", sessionID).Msg("attached")
	return nil
}

// Detach closes the session and the database connection.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if _, err := b.db.Exec(
		"UPDATE sessions SET detached_at = ? WHERE session_id = ?",
		now(), b.sessionID,
	); err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	for _, t := range b.tables {
		t.dead = true
	}
	b.db = nil
	b.attached = false
	b.tables = make(map[string]*table)
	b.log.Info().Str("session_id", b.sessionID).Msg("detached")
	return nil
}

// SessionID returns the id of the current attach session, or "" when detached.
func (b *Backend) SessionID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return ""
	}
	return b.sessionID
}

// migrateUp applies the embedded migrations. The migrate instance is not
// closed because closing it would close db.
func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// startSession records a new attach session and returns its UUID v7.
func startSession(db *sql.DB) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	if _, err := db.Exec(
		"INSERT INTO sessions (session_id, attached_at) VALUES (?, ?)",
		id.String(), now(),
	); err != nil {
		return "", fmt.Errorf("recording session: %w", err)
	}
	return id.String(), nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
