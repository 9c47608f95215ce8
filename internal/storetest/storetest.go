// Package storetest is a conformance suite that every types.Store backend
// runs from its own tests.
package storetest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// Factory returns a detached store for the suite to attach.
type Factory func(t *testing.T) types.Store

// call builds a well-formed call record.
func call(id int64, typ string, rating int64) types.Record {
	return types.Record{
		types.FieldID:             id,
		types.FieldType:           typ,
		types.FieldTypeRating:     rating,
		types.FieldIsFirstContact: true,
	}
}

// attach attaches a fresh store on the given backend with DataDir in a temp
// directory and registers Detach as cleanup.
func attach(t *testing.T, newStore Factory, backend string) (types.Store, types.Config) {
	t.Helper()
	s := newStore(t)
	cfg := types.Config{Backend: backend, DataDir: t.TempDir()}
	require.NoError(t, s.Attach(cfg))
	t.Cleanup(func() { _ = s.Detach() })
	return s, cfg
}

func table(t *testing.T, s types.Store, name string) types.Table {
	t.Helper()
	tbl, err := s.GetTable(name)
	require.NoError(t, err)
	return tbl
}

// Run exercises the Store and Table contracts against backend.
func Run(t *testing.T, backend string, newStore Factory) {
	t.Run("Lifecycle", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetTable(types.TableCustomers)
		assert.ErrorIs(t, err, types.ErrStoreDetached, "GetTable before Attach")

		assert.ErrorIs(t, s.Attach(types.Config{Backend: "postgres"}), types.ErrBackendUnknown)

		cfg := types.Config{Backend: backend, DataDir: t.TempDir()}
		require.NoError(t, s.Attach(cfg))
		assert.ErrorIs(t, s.Attach(cfg), types.ErrAlreadyAttached)

		for _, name := range types.StandardTableNames {
			tbl, err := s.GetTable(name)
			assert.NoError(t, err, name)
			assert.NotNil(t, tbl, name)
		}
		_, err = s.GetTable("TB_X")
		assert.ErrorIs(t, err, types.ErrTableNotFound)

		require.NoError(t, s.Detach())
		require.NoError(t, s.Detach(), "Detach is idempotent")
		_, err = s.GetTable(types.TableCustomers)
		assert.ErrorIs(t, err, types.ErrStoreDetached)
	})

	t.Run("InsertGetDelete", func(t *testing.T) {
		s, _ := attach(t, newStore, backend)
		tbl := table(t, s, types.TableCustomers)

		require.NoError(t, tbl.Insert(call(99999999, types.CallNew, 1)))
		assert.ErrorIs(t, tbl.Insert(call(99999999, types.CallNew, 1)), types.ErrDuplicateID)

		got, err := tbl.Get(99999999)
		require.NoError(t, err)
		assert.Equal(t, int64(99999999), got[types.FieldID])
		assert.Equal(t, types.CallNew, got.Type())
		assert.Equal(t, int64(1), got[types.FieldTypeRating])
		assert.Equal(t, true, got[types.FieldIsFirstContact])

		_, err = tbl.Get(11111111)
		assert.ErrorIs(t, err, types.ErrNotFound)

		require.NoError(t, tbl.Delete(99999999))
		assert.ErrorIs(t, tbl.Delete(99999999), types.ErrNotFound)
		_, err = tbl.Get(99999999)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("InsertRejectsInvalidRecord", func(t *testing.T) {
		s, _ := attach(t, newStore, backend)
		tbl := table(t, s, types.TableCustomers)

		assert.ErrorIs(t, tbl.Insert(types.Record{}), types.ErrInvalidRecord)
		assert.ErrorIs(t, tbl.Insert(types.Record{"id": 1}), types.ErrInvalidRecord)
		recs, err := tbl.Fetch(nil)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("UpdateMerges", func(t *testing.T) {
		s, _ := attach(t, newStore, backend)
		tbl := table(t, s, types.TableCustomers)

		rec := call(7, types.CallNew, 1)
		rec["agent"] = "a1"
		require.NoError(t, tbl.Insert(rec))

		update := call(7, types.CallStandby, 2)
		update[types.FieldIsFirstContact] = false
		require.NoError(t, tbl.Update(update))

		got, err := tbl.Get(7)
		require.NoError(t, err)
		assert.Equal(t, types.CallStandby, got.Type())
		assert.Equal(t, int64(2), got[types.FieldTypeRating])
		assert.Equal(t, false, got[types.FieldIsFirstContact])
		assert.Equal(t, "a1", got["agent"])

		assert.ErrorIs(t, tbl.Update(call(8, types.CallStandby, 2)), types.ErrNotFound)
		assert.ErrorIs(t, tbl.Update(types.Record{}), types.ErrInvalidRecord)
	})

	t.Run("TablesAreIsolated", func(t *testing.T) {
		s, _ := attach(t, newStore, backend)
		customers := table(t, s, types.TableCustomers)
		calls := table(t, s, types.TableCalls)

		require.NoError(t, customers.Insert(call(1, types.CallNew, 1)))
		require.NoError(t, calls.Insert(call(1, types.CallFinished, 5)))

		got, err := customers.Get(1)
		require.NoError(t, err)
		assert.Equal(t, types.CallNew, got.Type())
		got, err = calls.Get(1)
		require.NoError(t, err)
		assert.Equal(t, types.CallFinished, got.Type())
	})

	t.Run("ReturnedRecordsAreCopies", func(t *testing.T) {
		s, _ := attach(t, newStore, backend)
		tbl := table(t, s, types.TableCustomers)

		rec := call(3, types.CallNew, 1)
		require.NoError(t, tbl.Insert(rec))
		rec[types.FieldType] = types.CallFinished

		got, err := tbl.Get(3)
		require.NoError(t, err)
		assert.Equal(t, types.CallNew, got.Type())

		got[types.FieldType] = types.CallAbandoned
		again, err := tbl.Get(3)
		require.NoError(t, err)
		assert.Equal(t, types.CallNew, again.Type())
	})

	t.Run("NestedValuesAreCopies", func(t *testing.T) {
		s, _ := attach(t, newStore, backend)
		tbl := table(t, s, types.TableCustomers)

		tags := map[string]any{"agent": "a1"}
		queue := []any{"sales", "support"}
		rec := call(4, types.CallNew, 1)
		rec["tags"] = tags
		rec["queue"] = queue
		require.NoError(t, tbl.Insert(rec))
		tags["agent"] = "a2"
		queue[0] = "billing"

		got, err := tbl.Get(4)
		require.NoError(t, err)
		got["tags"].(map[string]any)["extra"] = true
		got["queue"].([]any)[1] = "billing"

		fetched, err := tbl.Fetch(nil)
		require.NoError(t, err)
		require.Len(t, fetched, 1)
		fetched[0]["tags"].(map[string]any)["agent"] = "a3"

		again, err := tbl.Get(4)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"agent": "a1"}, again["tags"])
		assert.Equal(t, []any{"sales", "support"}, again["queue"])
	})

	t.Run("RejectsUnencodableValues", func(t *testing.T) {
		s := newStore(t)
		cfg := types.Config{Backend: backend, DataDir: t.TempDir()}
		require.NoError(t, s.Attach(cfg))
		tbl := table(t, s, types.TableCustomers)

		require.NoError(t, tbl.Insert(call(1, types.CallNew, 1)))

		bad := call(2, types.CallNew, 1)
		bad["score"] = math.NaN()
		err := tbl.Insert(bad)
		require.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrDuplicateID)

		update := call(1, types.CallStandby, 2)
		update["score"] = math.Inf(1)
		require.Error(t, tbl.Update(update))

		require.NoError(t, s.Detach())

		reopened := newStore(t)
		require.NoError(t, reopened.Attach(cfg))
		defer reopened.Detach()
		customers := table(t, reopened, types.TableCustomers)

		got, err := customers.Get(1)
		require.NoError(t, err)
		assert.Equal(t, types.CallNew, got.Type(), "failed update leaves the row unchanged")
		_, err = customers.Get(2)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("StaleTableAfterReattach", func(t *testing.T) {
		s := newStore(t)
		cfg := types.Config{Backend: backend, DataDir: t.TempDir()}
		require.NoError(t, s.Attach(cfg))
		stale := table(t, s, types.TableCalls)
		require.NoError(t, s.Detach())

		require.NoError(t, s.Attach(cfg))
		defer s.Detach()

		assert.ErrorIs(t, stale.Insert(call(7, types.CallNew, 1)), types.ErrStoreDetached)
		_, err := stale.Get(7)
		assert.ErrorIs(t, err, types.ErrStoreDetached)
		_, err = stale.Fetch(nil)
		assert.ErrorIs(t, err, types.ErrStoreDetached)

		fresh := table(t, s, types.TableCalls)
		require.NoError(t, fresh.Insert(call(7, types.CallNew, 1)))
		got, err := fresh.Get(7)
		require.NoError(t, err)
		assert.Equal(t, types.CallNew, got.Type())
	})

	t.Run("Fetch", func(t *testing.T) {
		s, _ := attach(t, newStore, backend)
		tbl := table(t, s, types.TableCalls)

		require.NoError(t, tbl.Insert(call(30, types.CallFinished, 1)))
		require.NoError(t, tbl.Insert(call(10, types.CallNew, 1)))
		require.NoError(t, tbl.Insert(call(20, types.CallStandby, 2)))

		all, err := tbl.Fetch(nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, want := range []int64{10, 20, 30} {
			id, _ := all[i].ID()
			assert.Equal(t, want, id)
		}

		active, err := tbl.Fetch(types.Filter{types.FilterTypes: types.ActiveCallTypes()})
		require.NoError(t, err)
		require.Len(t, active, 2)
		for _, r := range active {
			assert.True(t, r.IsActiveCall())
		}

		limited, err := tbl.Fetch(types.Filter{types.FilterLimit: 1})
		require.NoError(t, err)
		require.Len(t, limited, 1)

		none, err := tbl.Fetch(types.Filter{types.FilterTypes: []string{"call.unknown"}})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		_, err = tbl.Fetch(types.Filter{types.FilterTypes: "call.new"})
		assert.ErrorIs(t, err, types.ErrInvalidFilter)
	})

	t.Run("DataSurvivesReattach", func(t *testing.T) {
		s := newStore(t)
		cfg := types.Config{Backend: backend, DataDir: t.TempDir()}
		require.NoError(t, s.Attach(cfg))
		require.NoError(t, table(t, s, types.TableCustomers).Insert(call(5, types.CallOngoing, 4)))
		require.NoError(t, s.Detach())

		reopened := newStore(t)
		require.NoError(t, reopened.Attach(cfg))
		defer reopened.Detach()

		got, err := table(t, reopened, types.TableCustomers).Get(5)
		require.NoError(t, err)
		assert.Equal(t, types.CallOngoing, got.Type())
		assert.Equal(t, int64(4), got[types.FieldTypeRating])
	})
}
