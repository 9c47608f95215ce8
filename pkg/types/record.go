package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Record field names every record must carry.
const (
	FieldID             = "id"
	FieldType           = "type"
	FieldTypeRating     = "typeRating"
	FieldIsFirstContact = "isFirstContact"
)

// Call types. Active types describe a call that is still in progress.
const (
	CallNew         = "call.new"
	CallStandby     = "call.standby"
	CallWaiting     = "call.waiting"
	CallOngoing     = "call.ongoing"
	CallTransferred = "call.transferred"
	CallFinished    = "call.finished"
	CallAbandoned   = "call.abandoned"
)

var activeCallTypes = []string{
	CallNew,
	CallStandby,
	CallWaiting,
	CallOngoing,
	CallTransferred,
}

// ActiveCallTypes returns the call types matched by ListActiveCalls. The
// slice is a fresh copy on every call.
func ActiveCallTypes() []string {
	return append([]string(nil), activeCallTypes...)
}

// Record is a row of a table: field names mapped to values. Besides the
// required fields it may carry any number of extra fields.
type Record map[string]any

// recordShape is the typed view of the required fields checked by
// ValidateRecord. Pointers distinguish a missing field from a zero value.
type recordShape struct {
	ID             *int64  `validate:"required"`
	Type           *string `validate:"required,min=1"`
	TypeRating     *int64  `validate:"required"`
	IsFirstContact *bool   `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRecord checks that rec carries an integer id, a non-empty type, an
// integer typeRating and a boolean isFirstContact. Returns an error wrapping
// ErrInvalidRecord on failure.
func ValidateRecord(rec Record) error {
	if len(rec) == 0 {
		return fmt.Errorf("%w: empty record", ErrInvalidRecord)
	}
	var shape recordShape
	if id, ok := rec.ID(); ok {
		shape.ID = &id
	}
	if s, ok := rec[FieldType].(string); ok {
		shape.Type = &s
	}
	if n, ok := ToInt64(rec[FieldTypeRating]); ok {
		shape.TypeRating = &n
	}
	if b, ok := rec[FieldIsFirstContact].(bool); ok {
		shape.IsFirstContact = &b
	}
	if err := validate.Struct(shape); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// ID returns the record id and whether it is present as an integer.
func (r Record) ID() (int64, bool) {
	return ToInt64(r[FieldID])
}

// Type returns the record type, or "" when absent.
func (r Record) Type() string {
	s, _ := r[FieldType].(string)
	return s
}

// Clone returns a deep copy of the record with integer values normalized to
// int64. Nested maps and slices of the JSON shapes (map[string]any, []any)
// are copied; other reference values are shared.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return Record(cloneMap(r))
}

// EncodeRecord marshals rec to JSON. Values encoding/json rejects, such as
// NaN or channels, yield an error.
func EncodeRecord(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		id, _ := rec.ID()
		return nil, fmt.Errorf("marshaling record %d: %w", id, err)
	}
	return data, nil
}

// Merge returns a copy of r with every field of patch written over it.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(patch))
	}
	for k, v := range patch {
		out[k] = normalizeValue(v)
	}
	return out
}

// IsActiveCall reports whether the record type is one of ActiveCallTypes.
func (r Record) IsActiveCall() bool {
	t := r.Type()
	for _, active := range activeCallTypes {
		if t == active {
			return true
		}
	}
	return false
}

// SortRecords orders records by id ascending.
func SortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		a, _ := recs[i].ID()
		b, _ := recs[j].ID()
		return a < b
	})
}

// DecodeRecord parses a JSON object into a Record. Numbers that hold integers
// decode as int64, others as float64.
func DecodeRecord(data []byte) (Record, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return Record(raw).Clone(), nil
}

// ParseID parses a decimal record id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// ToInt64 converts Go integer kinds, integral float64 values (as produced by
// encoding/json) and json.Number to int64.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// normalizeValue rewrites integer-valued numbers as int64 and other
// json.Number values as float64, copying nested maps and slices.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case bool, string, nil:
		return v
	case Record:
		return Record(cloneMap(n))
	case map[string]any:
		return cloneMap(n)
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = normalizeValue(e)
		}
		return out
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	if i, ok := ToInt64(v); ok {
		return i
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}
