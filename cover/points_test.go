package cover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointTableRegister(t *testing.T) {
	t.Parallel()

	table := NewPointTable()

	idx, already := table.Register("a.mml", 10, KindBinding)
	assert.Equal(t, 0, idx)
	assert.False(t, already)

	idx, already = table.Register("a.mml", 20, KindSequence)
	assert.Equal(t, 1, idx)
	assert.False(t, already)

	// A repeated offset reports the existing index and leaves the
	// table unchanged, whatever kind the caller asked for.
	idx, already = table.Register("a.mml", 10, KindIfThen)
	assert.Equal(t, 0, idx)
	assert.True(t, already)
	assert.Equal(t, 2, table.CountFor("a.mml"))

	assert.Equal(t, []Point{
		{Offset: 10, Index: 0, Kind: KindBinding},
		{Offset: 20, Index: 1, Kind: KindSequence},
	}, table.PointsFor("a.mml"))
}

func TestPointTablePerFileIndices(t *testing.T) {
	t.Parallel()

	table := NewPointTable()
	table.Register("a.mml", 10, KindBinding)
	table.Register("a.mml", 20, KindBinding)

	idx, already := table.Register("b.mml", 10, KindMatch)
	assert.Equal(t, 0, idx)
	assert.False(t, already)

	assert.Equal(t, 2, table.CountFor("a.mml"))
	assert.Equal(t, 1, table.CountFor("b.mml"))
	assert.Equal(t, []string{"a.mml", "b.mml"}, table.Files())
}

func TestPointTableEnsureFileKnown(t *testing.T) {
	t.Parallel()

	table := NewPointTable()
	table.EnsureFileKnown("empty.mml")
	table.EnsureFileKnown("empty.mml")

	assert.Equal(t, 0, table.CountFor("empty.mml"))
	assert.Empty(t, table.PointsFor("empty.mml"))
	assert.Equal(t, []string{"empty.mml"}, table.Files())

	// Calling it for a file with points must not reset them.
	table.Register("a.mml", 5, KindBinding)
	table.EnsureFileKnown("a.mml")
	assert.Equal(t, 1, table.CountFor("a.mml"))
}

func TestPointTablePointsForIsCopy(t *testing.T) {
	t.Parallel()

	table := NewPointTable()
	table.Register("a.mml", 10, KindBinding)

	points := table.PointsFor("a.mml")
	points[0].Offset = 999

	assert.Equal(t, 10, table.PointsFor("a.mml")[0].Offset)
}

func TestPointTableRestore(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		points := []Point{
			{Offset: 4, Index: 0, Kind: KindBinding},
			{Offset: 17, Index: 1, Kind: KindToplevelExpr},
		}
		table := NewPointTable()
		require.NoError(t, table.Restore("a.mml", points))
		assert.Equal(t, points, table.PointsFor("a.mml"))
		assert.Equal(t, 2, table.CountFor("a.mml"))

		// Restored offsets participate in duplicate detection.
		idx, already := table.Register("a.mml", 17, KindSequence)
		assert.Equal(t, 1, idx)
		assert.True(t, already)
	})

	t.Run("rejects out of order indices", func(t *testing.T) {
		t.Parallel()

		table := NewPointTable()
		err := table.Restore("a.mml", []Point{{Offset: 4, Index: 1, Kind: KindBinding}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of order")
		assert.Contains(t, err.Error(), "a.mml")
	})

	t.Run("rejects duplicate offsets", func(t *testing.T) {
		t.Parallel()

		table := NewPointTable()
		err := table.Restore("a.mml", []Point{
			{Offset: 4, Index: 0, Kind: KindBinding},
			{Offset: 4, Index: 1, Kind: KindSequence},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repeat offset 4")
	})

	t.Run("empty restore marks the file", func(t *testing.T) {
		t.Parallel()

		table := NewPointTable()
		require.NoError(t, table.Restore("empty.mml", nil))
		assert.Equal(t, []string{"empty.mml"}, table.Files())
		assert.Equal(t, 0, table.CountFor("empty.mml"))
	})
}
