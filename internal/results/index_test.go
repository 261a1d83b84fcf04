package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-reconciler/internal/models"
)

func TestIndexWriteOnce(t *testing.T) {
	idx := NewIndex()
	key := Key{Course: "1085", Date: raceDay}

	assert.False(t, idx.Has(key))
	_, ok := idx.Get(key)
	assert.False(t, ok)

	runners := []models.Runner{{HorseName: "Frankel"}}
	require.NoError(t, idx.Put(key, runners))

	err := idx.Put(key, []models.Runner{{HorseName: "Other"}})
	require.ErrorIs(t, err, ErrAlreadyIndexed)

	got, ok := idx.Get(key)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Frankel", got[0].HorseName)

	runners[0].HorseName = "Mutated"
	got, _ = idx.Get(key)
	assert.Equal(t, "Frankel", got[0].HorseName, "index keeps its own snapshot")
}

func TestIndexConfirmedAbsence(t *testing.T) {
	idx := NewIndex()
	key := Key{Course: "2", Date: raceDay}

	require.NoError(t, idx.Put(key, nil))
	assert.True(t, idx.Has(key))

	got, ok := idx.Get(key)
	assert.True(t, ok)
	assert.Empty(t, got)
	assert.ErrorIs(t, idx.Put(key, []models.Runner{{HorseName: "Late"}}), ErrAlreadyIndexed)
}

func TestIndexKeysAreDistinctPerDate(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Put(Key{Course: "2", Date: raceDay}, nil))
	require.NoError(t, idx.Put(Key{Course: "2", Date: raceDay.AddDate(0, 0, 1)}, nil))
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, "2:2024-03-12", Key{Course: "2", Date: raceDay}.String())
}
