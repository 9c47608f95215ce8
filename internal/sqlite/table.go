package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/recordstore/pkg/types"
)

// Compile-time interface check.
var _ types.Table = (*table)(nil)

// table implements types.Table for one named table. Rows of all tables live
// in the records relation and are told apart by table_name.
type table struct {
	name    string
	backend *Backend
	dead    bool
}

// Get retrieves a record by id.
// Returns ErrNotFound if no row matches.
func (t *table) Get(id int64) (types.Record, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.live() {
		return nil, types.ErrStoreDetached
	}

	var body string
	err := t.backend.db.QueryRow(
		"SELECT body FROM records WHERE table_name = ? AND record_id = ?",
		t.name, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting record %d from %s: %w", id, t.name, err)
	}
	return decodeBody(body)
}

// Insert stores a new record.
// Returns ErrDuplicateID if the id is already present in the table.
func (t *table) Insert(rec types.Record) error {
	if err := types.ValidateRecord(rec); err != nil {
		return err
	}
	id, _ := rec.ID()
	rec = rec.Clone()
	rec[types.FieldID] = id

	body, err := types.EncodeRecord(rec)
	if err != nil {
		return err
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	if !t.live() {
		return types.ErrStoreDetached
	}

	tx, err := t.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := rowExists(tx, t.name, id)
	if err != nil {
		return err
	}
	if exists {
		return types.ErrDuplicateID
	}

	ts := now()
	if _, err := tx.Exec(
		"INSERT INTO records (table_name, record_id, record_type, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		t.name, id, rec.Type(), string(body), ts, ts,
	); err != nil {
		return fmt.Errorf("inserting record %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing insert: %w", err)
	}
	return nil
}

// Update merges rec into the stored record with the same id.
// Returns ErrNotFound if no row matches.
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

	tx, err := t.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRow(
		"SELECT body FROM records WHERE table_name = ? AND record_id = ?",
		t.name, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading record %d: %w", id, err)
	}
	stored, err := decodeBody(body)
	if err != nil {
		return err
	}

	merged := stored.Merge(rec)
	merged[types.FieldID] = id
	data, err := types.EncodeRecord(merged)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		"UPDATE records SET record_type = ?, body = ?, updated_at = ? WHERE table_name = ? AND record_id = ?",
		merged.Type(), string(data), now(), t.name, id,
	); err != nil {
		return fmt.Errorf("updating record %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing update: %w", err)
	}
	return nil
}

// Delete removes a record by id.
// Returns ErrNotFound if no row matches.
func (t *table) Delete(id int64) error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	if !t.live() {
		return types.ErrStoreDetached
	}

	res, err := t.backend.db.Exec(
		"DELETE FROM records WHERE table_name = ? AND record_id = ?",
		t.name, id,
	)
	if err != nil {
		return fmt.Errorf("deleting record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting deleted rows: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns the records matching the filter ordered by id.
func (t *table) Fetch(filter types.Filter) ([]types.Record, error) {
	wanted, err := filter.Types()
	if err != nil {
		return nil, err
	}
	limit, err := filter.Limit()
	if err != nil {
		return nil, err
	}

	query := "SELECT body FROM records WHERE table_name = ?"
	args := []any{t.name}
	if wanted != nil {
		if len(wanted) == 0 {
			return []types.Record{}, nil
		}
		placeholders := make([]string, len(wanted))
		for i, w := range wanted {
			placeholders[i] = "?"
			args = append(args, w)
		}
		query += " AND record_type IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY record_id ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.live() {
		return nil, types.ErrStoreDetached
	}

	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", t.name, err)
	}
	defer rows.Close()

	results := []types.Record{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", t.name, err)
		}
		rec, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", t.name, err)
	}
	return results, nil
}

// live reports whether the table belongs to the current attach session.
func (t *table) live() bool {
	return t.backend.attached && !t.dead
}

func rowExists(tx *sql.Tx, tableName string, id int64) (bool, error) {
	var one int
	err := tx.QueryRow(
		"SELECT 1 FROM records WHERE table_name = ? AND record_id = ?",
		tableName, id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking record existence: %w", err)
	}
	return true, nil
}

func decodeBody(body string) (types.Record, error) {
	rec, err := types.DecodeRecord([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("decoding stored record: %w", err)
	}
	return rec, nil
}
