package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterClause(t *testing.T) {
	require.Equal(t, "status:ok", NewFilter("status", "ok").Clause())
	require.Equal(t, "-status:[* TO *]", NewFilter("status", NoneValue).Clause())
	require.Equal(t, "-status:[* TO *]", NewFilter("status", "").Clause())
	require.True(t, NewFilter("status", "").MatchesAbsent())
	require.False(t, NewFilter("status", "none").MatchesAbsent())
}

func TestSliceIterator(t *testing.T) {
	it := NewSliceIterator([]Record{{"id": "a"}, {"id": "b"}})
	require.Nil(t, it.Record())

	var got []string
	for it.Next() {
		got = append(got, it.Record().IDString())
	}
	require.Equal(t, []string{"a", "b"}, got)
	require.False(t, it.Next())
	require.Nil(t, it.Record())
	require.NoError(t, it.Err())

	empty := NewSliceIterator(nil)
	require.False(t, empty.Next())
}

func TestRecordID(t *testing.T) {
	id, ok := Record{"id": 42}.ID()
	require.True(t, ok)
	require.Equal(t, 42, id)
	require.Equal(t, "42", Record{"id": 42}.IDString())

	_, ok = Record{"status": "ok"}.ID()
	require.False(t, ok)
	require.Equal(t, "", Record{}.IDString())
}

func TestOperations(t *testing.T) {
	require.Equal(t, map[string]any{"set": "x"}, Set("x"))
	require.Equal(t, map[string]any{"add": "x"}, Add("x"))
	require.Equal(t, map[string]any{"add-distinct": "x"}, AddDistinct("x"))
	require.Equal(t, map[string]any{"remove": "x"}, Remove("x"))
	require.Equal(t, map[string]any{"inc": 1}, Inc(1))
	require.Equal(t, map[string]any{"custom": nil}, Op("custom", nil))
}
