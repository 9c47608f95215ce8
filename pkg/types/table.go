package types

import "errors"

// Table provides uniform CRUD operations over the records of one named table.
// Records passed in and handed out are copies; callers never share state with
// the backend.
type Table interface {
	// Get retrieves the record with the given id.
	// Returns ErrNotFound if no record exists with that id.
	Get(id int64) (Record, error)

	// Insert stores a new record. The record must pass ValidateRecord.
	// Returns ErrDuplicateID if a record with the same id exists.
	Insert(rec Record) error

	// Update merges the fields of rec into the stored record with the same id.
	// Fields absent from rec keep their stored values.
	// Returns ErrNotFound if no record exists with that id.
	Update(rec Record) error

	// Delete removes the record with the given id.
	// Returns ErrNotFound if no record exists with that id.
	Delete(id int64) error

	// Fetch returns all records matching the filter ordered by id. An empty
	// filter returns every record in the table.
	Fetch(filter Filter) ([]Record, error)
}

// Filter narrows a Fetch. Recognized keys:
//
//	"types"  []string  match records whose type is in the list
//	"limit"  int       cap the number of records returned
type Filter map[string]any

// Filter keys.
const (
	FilterTypes = "types"
	FilterLimit = "limit"
)

// Types returns the type list of the filter, or nil when unset.
// Returns ErrInvalidFilter if the value is not a []string.
func (f Filter) Types() ([]string, error) {
	v, ok := f[FilterTypes]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]string)
	if !ok {
		return nil, ErrInvalidFilter
	}
	return list, nil
}

// Limit returns the limit of the filter, or 0 when unset.
// Returns ErrInvalidFilter if the value is not a non-negative int.
func (f Filter) Limit() (int, error) {
	v, ok := f[FilterLimit]
	if !ok {
		return 0, nil
	}
	limit, ok := v.(int)
	if !ok || limit < 0 {
		return 0, ErrInvalidFilter
	}
	return limit, nil
}

// Table operation errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidID     = errors.New("invalid record id")
	ErrInvalidRecord = errors.New("invalid record")
	ErrDuplicateID   = errors.New("duplicate record id")
	ErrInvalidFilter = errors.New("invalid filter value type")
)
