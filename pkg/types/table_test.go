package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterAccessors(t *testing.T) {
	t.Run("empty filter", func(t *testing.T) {
		var f Filter
		list, err := f.Types()
		require.NoError(t, err)
		assert.Nil(t, list)
		limit, err := f.Limit()
		require.NoError(t, err)
		assert.Zero(t, limit)
	})

	t.Run("typed values", func(t *testing.T) {
		f := Filter{FilterTypes: []string{CallNew}, FilterLimit: 5}
		list, err := f.Types()
		require.NoError(t, err)
		assert.Equal(t, []string{CallNew}, list)
		limit, err := f.Limit()
		require.NoError(t, err)
		assert.Equal(t, 5, limit)
	})

	t.Run("wrong value types", func(t *testing.T) {
		f := Filter{FilterTypes: CallNew, FilterLimit: "5"}
		_, err := f.Types()
		assert.ErrorIs(t, err, ErrInvalidFilter)
		_, err = f.Limit()
		assert.ErrorIs(t, err, ErrInvalidFilter)
		_, err = Filter{FilterLimit: -1}.Limit()
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})
}

func TestIsStandardTable(t *testing.T) {
	assert.True(t, IsStandardTable(TableCustomers))
	assert.True(t, IsStandardTable(TableCalls))
	assert.False(t, IsStandardTable("TB_X"))
}

func TestResultStatusContract(t *testing.T) {
	assert.Equal(t, 0, int(StatusOK))
	assert.Equal(t, 1, int(StatusTableNotFound))
	assert.Equal(t, 2, int(StatusInvalidRecord))
	assert.Equal(t, 3, int(StatusDuplicateID))
	assert.Equal(t, 4, int(StatusNotFound))
	assert.True(t, Result{}.OK())
	assert.Equal(t, "duplicate_id", StatusDuplicateID.String())
}
