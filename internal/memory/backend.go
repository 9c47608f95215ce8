// Package memory implements an in-memory record store backend. When the
// Config names a DataDir, each table is loaded from a JSONL snapshot on
// Attach and written back on Detach.
package memory

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/recordstore/internal/jsonl"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// Backend implements types.Store with map-backed tables.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	tables   map[string]*table
	log      zerolog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Backend) {
		b.log = log.With().Str("backend", types.BackendMemory).Logger()
	}
}

// NewBackend creates a new in-memory backend instance.
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

// Attach creates the standard tables and loads their snapshots from DataDir
// when one is configured.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.DataDir != "" {
		if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
	}

	tables := make(map[string]*table, len(types.StandardTableNames))
	for _, name := range types.StandardTableNames {
		t := newTable(b, name)
		if config.DataDir != "" {
			if err := t.load(jsonl.TableFile(config.DataDir, name)); err != nil {
				return fmt.Errorf("loading %s snapshot: %w", name, err)
			}
		}
		tables[name] = t
	}

	b.config = config
	b.tables = tables
	b.attached = true
	b.log.Info().Str("data_dir", config.DataDir).Msg("attached")
	return nil
}

// Detach writes table snapshots when a DataDir is configured and releases
// the tables. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.config.DataDir != "" {
		for name, t := range b.tables {
			if err := jsonl.Write(jsonl.TableFile(b.config.DataDir, name), t.snapshot()); err != nil {
				return fmt.Errorf("writing %s snapshot: %w", name, err)
			}
		}
	}

	for _, t := range b.tables {
		t.dead = true
	}
	b.attached = false
	b.tables = make(map[string]*table)
	b.log.Info().Msg("detached")
	return nil
}
