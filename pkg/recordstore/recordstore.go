package recordstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/recordstore/internal/memory"
	"github.com/mesh-intelligence/recordstore/internal/sqlite"
	"github.com/mesh-intelligence/recordstore/pkg/telemetry"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// Operation names used in logs and metrics.
const (
	opInsert          = "insert"
	opUpdate          = "update"
	opFindByID        = "find_by_id"
	opListActiveCalls = "list_active_calls"
	opDelete          = "delete"
)

// DB is the record store facade. It holds no table state of its own; all
// records live in the injected Store.
type DB struct {
	store   types.Store
	base    zerolog.Logger
	log     zerolog.Logger
	metrics *telemetry.Metrics
	id      string
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for per-operation debug events.
func WithLogger(log zerolog.Logger) Option {
	return func(db *DB) {
		db.base = log
	}
}

// WithMetrics sets the metrics that count operations by outcome.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(db *DB) {
		db.metrics = m
	}
}

// New wraps an attached store.
func New(store types.Store, opts ...Option) *DB {
	db := &DB{store: store, base: zerolog.Nop(), id: newInstanceID()}
	for _, opt := range opts {
		opt(db)
	}
	db.log = db.base.With().Str("component", "recordstore").Str("instance_id", db.id).Logger()
	return db
}

// NewStore creates a detached store for the backend named in cfg.
func NewStore(cfg types.Config, log zerolog.Logger) (types.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case types.BackendSQLite:
		return sqlite.NewBackend(sqlite.WithLogger(log)), nil
	default:
		return memory.NewBackend(memory.WithLogger(log)), nil
	}
}

// Open creates the backend named in cfg, attaches it, and wraps it in a DB.
// Close detaches the backend.
func Open(cfg types.Config, opts ...Option) (*DB, error) {
	db := New(nil, opts...)
	store, err := NewStore(cfg, db.base)
	if err != nil {
		return nil, err
	}
	if err := store.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach %s store: %w", cfg.Backend, err)
	}
	db.store = store
	return db, nil
}

// Close detaches the underlying store.
func (db *DB) Close() error {
	return db.store.Detach()
}

// Insert stores rec in table.
func (db *DB) Insert(rec types.Record, table string) (types.Result, error) {
	start := time.Now()
	res, err := db.write(table, func(t types.Table) error { return t.Insert(rec) })
	db.observe(opInsert, table, rec, res, err, start)
	return res, err
}

// Update overwrites the fields of the stored record that has rec's id.
// Fields absent from rec keep their stored values.
func (db *DB) Update(rec types.Record, table string) (types.Result, error) {
	start := time.Now()
	res, err := db.write(table, func(t types.Table) error { return t.Update(rec) })
	db.observe(opUpdate, table, rec, res, err, start)
	return res, err
}

// FindByID returns the record with the given id and true, or nil and false
// when no such record exists. An unknown table yields ErrTableNotFound.
func (db *DB) FindByID(id int64, table string) (types.Record, bool, error) {
	start := time.Now()
	rec, found, err := db.findByID(id, table)

	status := "found"
	switch {
	case err != nil:
		status = "error"
	case !found:
		status = "absent"
	}
	db.metrics.Observe(opFindByID, table, status, start)
	db.log.Debug().Str("op", opFindByID).Str("table", table).Int64("id", id).Str("status", status).Err(err).Msg("find")
	return rec, found, err
}

func (db *DB) findByID(id int64, table string) (types.Record, bool, error) {
	t, err := db.store.GetTable(table)
	if err != nil {
		return nil, false, err
	}
	rec, err := t.Get(id)
	if errors.Is(err, types.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// ListActiveCalls returns every record of table whose type is one of
// types.ActiveCallTypes(), ordered by id. The result is never nil.
func (db *DB) ListActiveCalls(table string) ([]types.Record, error) {
	start := time.Now()
	recs, err := db.listActiveCalls(table)

	status := "ok"
	if err != nil {
		status = "error"
	}
	db.metrics.Observe(opListActiveCalls, table, status, start)
	db.log.Debug().Str("op", opListActiveCalls).Str("table", table).Int("count", len(recs)).Err(err).Msg("list")
	return recs, err
}

func (db *DB) listActiveCalls(table string) ([]types.Record, error) {
	t, err := db.store.GetTable(table)
	if err != nil {
		return nil, err
	}
	recs, err := t.Fetch(types.Filter{types.FilterTypes: types.ActiveCallTypes()})
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []types.Record{}
	}
	return recs, nil
}

// All returns every record of table ordered by id.
func (db *DB) All(table string) ([]types.Record, error) {
	t, err := db.store.GetTable(table)
	if err != nil {
		return nil, err
	}
	return t.Fetch(nil)
}

// Delete removes the record with the given id from table. Deleting an absent
// record succeeds.
func (db *DB) Delete(id int64, table string) (types.Result, error) {
	start := time.Now()
	res, err := db.delete(id, table)

	status := res.Status.String()
	if err != nil {
		status = "error"
	}
	db.metrics.Observe(opDelete, table, status, start)
	db.log.Debug().Str("op", opDelete).Str("table", table).Int64("id", id).Str("status", status).Err(err).Msg("delete")
	return res, err
}

func (db *DB) delete(id int64, table string) (types.Result, error) {
	t, err := db.store.GetTable(table)
	if err != nil {
		return resultFor(err)
	}
	if err := t.Delete(id); err != nil && !errors.Is(err, types.ErrNotFound) {
		return resultFor(err)
	}
	return types.Result{Status: types.StatusOK}, nil
}

// write resolves the table, then runs op. The table check comes first so an
// unknown table wins over an invalid record.
func (db *DB) write(table string, op func(types.Table) error) (types.Result, error) {
	t, err := db.store.GetTable(table)
	if err != nil {
		return resultFor(err)
	}
	return resultFor(op(t))
}

func (db *DB) observe(op, table string, rec types.Record, res types.Result, err error, start time.Time) {
	status := res.Status.String()
	if err != nil {
		status = "error"
	}
	db.metrics.Observe(op, table, status, start)

	ev := db.log.Debug().Str("op", op).Str("table", table).Str("status", status)
	if id, ok := rec.ID(); ok {
		ev = ev.Int64("id", id)
	}
	ev.Err(err).Msg("write")
}

// resultFor maps a table error to its status code. Errors with no status
// code are returned as-is.
func resultFor(err error) (types.Result, error) {
	switch {
	case err == nil:
		return types.Result{Status: types.StatusOK}, nil
	case errors.Is(err, types.ErrTableNotFound):
		return types.Result{Status: types.StatusTableNotFound, Message: types.MsgTableNotFound}, nil
	case errors.Is(err, types.ErrInvalidRecord):
		return types.Result{Status: types.StatusInvalidRecord, Message: types.MsgInvalidRecord}, nil
	case errors.Is(err, types.ErrDuplicateID):
		return types.Result{Status: types.StatusDuplicateID, Message: types.MsgDuplicateID}, nil
	case errors.Is(err, types.ErrNotFound):
		return types.Result{Status: types.StatusNotFound, Message: types.MsgNotFound}, nil
	default:
		return types.Result{}, err
	}
}

// newInstanceID returns a UUID v7 identifying this DB in logs.
func newInstanceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
