package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recordstore/internal/storetest"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

func TestBackendConformance(t *testing.T) {
	storetest.Run(t, types.BackendSQLite, func(t *testing.T) types.Store {
		return NewBackend()
	})
}

func TestBackend_AttachCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(dir, dbFileName))
	assert.NoError(t, err, "records.db not created")
}

func TestBackend_InMemoryWithoutDataDir(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite}))
	defer b.Detach()

	tbl, err := b.GetTable(types.TableCalls)
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(types.Record{"id": 1, "type": types.CallNew, "typeRating": 1, "isFirstContact": true}))

	got, err := tbl.Get(1)
	require.NoError(t, err)
	assert.Equal(t, types.CallNew, got.Type())
}

func TestBackend_SessionsRecorded(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	first := b.SessionID()
	assert.NotEmpty(t, first)
	require.NoError(t, b.Detach())
	assert.Empty(t, b.SessionID())

	require.NoError(t, b.Attach(cfg))
	second := b.SessionID()
	require.NoError(t, b.Detach())
	assert.NotEqual(t, first, second)

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	require.NoError(t, err)
	defer db.Close()

	var total, closed int
	require.NoError(t, db.QueryRow("SELECT COUNT(*), COUNT(detached_at) FROM sessions").Scan(&total, &closed))
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, closed)
}

func TestBackend_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}
	for i := 0; i < 3; i++ {
		b := NewBackend()
		require.NoError(t, b.Attach(cfg), "attach %d", i)
		require.NoError(t, b.Detach())
	}
}

func TestTable_StoresTypeColumn(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))

	tbl, err := b.GetTable(types.TableCustomers)
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(types.Record{"id": 4, "type": types.CallNew, "typeRating": 1, "isFirstContact": true}))
	require.NoError(t, tbl.Update(types.Record{"id": 4, "type": types.CallFinished, "typeRating": 1, "isFirstContact": true}))
	require.NoError(t, b.Detach())

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	require.NoError(t, err)
	defer db.Close()

	var recordType string
	require.NoError(t, db.QueryRow(
		"SELECT record_type FROM records WHERE table_name = ? AND record_id = ?",
		types.TableCustomers, 4,
	).Scan(&recordType))
	assert.Equal(t, types.CallFinished, recordType)
}
