package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCall() Record {
	return Record{"id": 99999999, "type": CallNew, "typeRating": 1, "isFirstContact": true}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{name: "well formed call", rec: validCall()},
		{name: "empty record", rec: Record{}, wantErr: true},
		{name: "nil record", rec: nil, wantErr: true},
		{name: "missing id", rec: Record{"type": CallNew, "typeRating": 1, "isFirstContact": true}, wantErr: true},
		{name: "string id", rec: Record{"id": "7", "type": CallNew, "typeRating": 1, "isFirstContact": true}, wantErr: true},
		{name: "fractional id", rec: Record{"id": 1.5, "type": CallNew, "typeRating": 1, "isFirstContact": true}, wantErr: true},
		{name: "empty type", rec: Record{"id": 1, "type": "", "typeRating": 1, "isFirstContact": true}, wantErr: true},
		{name: "missing typeRating", rec: Record{"id": 1, "type": CallNew, "isFirstContact": true}, wantErr: true},
		{name: "non boolean isFirstContact", rec: Record{"id": 1, "type": CallNew, "typeRating": 1, "isFirstContact": "yes"}, wantErr: true},
		{name: "false isFirstContact is present", rec: Record{"id": 1, "type": CallNew, "typeRating": 0, "isFirstContact": false}},
		{name: "json float id", rec: Record{"id": float64(12), "type": CallNew, "typeRating": float64(3), "isFirstContact": true}},
		{name: "extra fields allowed", rec: Record{"id": 1, "type": CallNew, "typeRating": 1, "isFirstContact": true, "agent": "a1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.rec)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecord)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRecordMerge(t *testing.T) {
	stored := validCall()
	stored["agent"] = "a1"

	merged := stored.Merge(Record{"id": 99999999, "type": CallStandby, "typeRating": 2})

	assert.Equal(t, CallStandby, merged.Type())
	assert.Equal(t, int64(2), merged[FieldTypeRating])
	assert.Equal(t, "a1", merged["agent"], "untouched fields are kept")
	assert.Equal(t, CallNew, stored.Type(), "receiver is not modified")
}

func TestRecordCloneNormalizesIntegers(t *testing.T) {
	rec := Record{"id": int32(5), "typeRating": float64(2), "score": 2.5, "n": json.Number("10")}
	c := rec.Clone()

	assert.Equal(t, int64(5), c[FieldID])
	assert.Equal(t, int64(2), c[FieldTypeRating])
	assert.Equal(t, 2.5, c["score"])
	assert.Equal(t, int64(10), c["n"])

	c["id"] = int64(6)
	assert.Equal(t, int32(5), rec["id"])
}

func TestRecordIsActiveCall(t *testing.T) {
	for _, typ := range ActiveCallTypes() {
		assert.True(t, Record{"type": typ}.IsActiveCall(), typ)
	}
	assert.False(t, Record{"type": CallFinished}.IsActiveCall())
	assert.False(t, Record{"type": CallAbandoned}.IsActiveCall())
	assert.False(t, Record{}.IsActiveCall())
}

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"id": 99999999, "type": "call.new", "typeRating": 1, "isFirstContact": true, "score": 0.5}`))
	require.NoError(t, err)

	id, ok := rec.ID()
	require.True(t, ok)
	assert.Equal(t, int64(99999999), id)
	assert.Equal(t, int64(1), rec[FieldTypeRating])
	assert.Equal(t, 0.5, rec["score"])
	assert.NoError(t, ValidateRecord(rec))

	_, err = DecodeRecord([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParseID("abc")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestSortRecords(t *testing.T) {
	recs := []Record{{"id": 3}, {"id": 1}, {"id": 2}}
	SortRecords(recs)
	for i, want := range []int{1, 2, 3} {
		assert.Equal(t, want, recs[i]["id"])
	}
}

func TestRecordCloneCopiesNestedValues(t *testing.T) {
	rec := Record{
		"id":    1,
		"tags":  map[string]any{"agent": "a1", "skills": []any{"es", json.Number("3")}},
		"queue": []any{map[string]any{"name": "sales"}},
		"meta":  Record{"source": "ivr"},
	}
	c := rec.Clone()

	c["tags"].(map[string]any)["agent"] = "a2"
	c["tags"].(map[string]any)["skills"].([]any)[0] = "en"
	c["queue"].([]any)[0].(map[string]any)["name"] = "billing"
	c["meta"].(Record)["source"] = "web"

	assert.Equal(t, "a1", rec["tags"].(map[string]any)["agent"])
	assert.Equal(t, "es", rec["tags"].(map[string]any)["skills"].([]any)[0])
	assert.Equal(t, "sales", rec["queue"].([]any)[0].(map[string]any)["name"])
	assert.Equal(t, "ivr", rec["meta"].(Record)["source"])
	assert.Equal(t, int64(3), c["tags"].(map[string]any)["skills"].([]any)[1], "nested numbers are normalized")
}

func TestActiveCallTypesReturnsCopy(t *testing.T) {
	list := ActiveCallTypes()
	require.NotEmpty(t, list)
	list[0] = CallFinished

	assert.Equal(t, CallNew, ActiveCallTypes()[0])
	assert.True(t, Record{"type": CallNew}.IsActiveCall())
	assert.False(t, Record{"type": CallFinished}.IsActiveCall())
}

func TestEncodeRecord(t *testing.T) {
	data, err := EncodeRecord(validCall())
	require.NoError(t, err)
	back, err := DecodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, validCall().Clone(), back)

	bad := validCall()
	bad["score"] = math.NaN()
	_, err = EncodeRecord(bad)
	assert.ErrorContains(t, err, "marshaling record 99999999")
}
