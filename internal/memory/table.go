package memory

import (
	"fmt"

	"github.com/mesh-intelligence/recordstore/internal/jsonl"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// Compile-time interface check.
var _ types.Table = (*table)(nil)

// table holds the rows of one named table keyed by record id. All access
// goes through the parent backend's lock. A table is dead once its backend
// detaches, even if the backend is attached again later.
type table struct {
	name    string
	backend *Backend
	rows    map[int64]types.Record
	dead    bool
}

func newTable(b *Backend, name string) *table {
	return &table{name: name, backend: b, rows: make(map[int64]types.Record)}
}

// Get returns a copy of the record with the given id.
func (t *table) Get(id int64) (types.Record, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.live() {
		return nil, types.ErrStoreDetached
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return rec.Clone(), nil
}

// Insert stores a copy of rec.
func (t *table) Insert(rec types.Record) error {
	if err := types.ValidateRecord(rec); err != nil {
		return err
	}
	id, _ := rec.ID()
	stored, err := encode(rec)
	if err != nil {
		return err
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	if !t.live() {
		return types.ErrStoreDetached
	}
	if _, exists := t.rows[id]; exists {
		return types.ErrDuplicateID
	}
	t.rows[id] = stored
	return nil
}

// Update merges rec into the stored record with the same id.
func (t *table) Update(rec types.Record) error {
	if err := types.ValidateRecord(rec); err != nil {
		return err
	}
	id, _ := rec.ID()

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	if !t.live() {
		return types.ErrStoreDetached
	}
	stored, ok := t.rows[id]
	if !ok {
		return types.ErrNotFound
	}
	merged := stored.Merge(rec)
	merged[types.FieldID] = id
	merged, err := encode(merged)
	if err != nil {
		return err
	}
	t.rows[id] = merged
	return nil
}

// Delete removes the record with the given id.
func (t *table) Delete(id int64) error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	if !t.live() {
		return types.ErrStoreDetached
	}
	if _, ok := t.rows[id]; !ok {
		return types.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

// Fetch returns copies of the matching records ordered by id.
func (t *table) Fetch(filter types.Filter) ([]types.Record, error) {
	wanted, err := filter.Types()
	if err != nil {
		return nil, err
	}
	limit, err := filter.Limit()
	if err != nil {
		return nil, err
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.live() {
		return nil, types.ErrStoreDetached
	}

	var match map[string]bool
	if wanted != nil {
		match = make(map[string]bool, len(wanted))
		for _, w := range wanted {
			match[w] = true
		}
	}

	results := []types.Record{}
	for _, rec := range t.rows {
		if match != nil && !match[rec.Type()] {
			continue
		}
		results = append(results, rec.Clone())
	}
	types.SortRecords(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (t *table) live() bool {
	return t.backend.attached && !t.dead
}

// encode returns the stored form of rec after a JSON round trip, so every
// stored row can be written to a snapshot.
func encode(rec types.Record) (types.Record, error) {
	data, err := types.EncodeRecord(rec)
	if err != nil {
		return nil, err
	}
	return types.DecodeRecord(data)
}

// load replaces the table rows with the records of a JSONL snapshot.
// Records without an integer id are skipped.
func (t *table) load(path string) error {
	records, err := jsonl.Read(path)
	if err != nil {
		return err
	}
	for _, rec := range records {
		id, ok := rec.ID()
		if !ok {
			continue
		}
		if _, dup := t.rows[id]; dup {
			return fmt.Errorf("%w: %d in %s", types.ErrDuplicateID, id, path)
		}
		t.rows[id] = rec
	}
	return nil
}

// snapshot returns the rows ordered by id. The caller holds the backend lock.
func (t *table) snapshot() []types.Record {
	out := make([]types.Record, 0, len(t.rows))
	for _, rec := range t.rows {
		out = append(out, rec)
	}
	types.SortRecords(out)
	return out
}
