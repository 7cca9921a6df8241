package vectorindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdd_DimensionMismatchLeavesIndexUnchanged(t *testing.T) {
	ix := New(3, "", "")
	require.NoError(t, ix.Add([][]float32{{1, 0, 0}}, []string{"a"}))
	require.Equal(t, 1, ix.Size())

	err := ix.Add([][]float32{{1, 0}}, []string{"b"})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	require.Equal(t, 1, ix.Size(), "rejected add must not change index size")
}

func TestSearch_EmptyIndexReturnsEmpty(t *testing.T) {
	ix := New(4, "", "")
	res, err := ix.Search([]float32{0, 0, 0, 0}, 5)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestSearch_OrdersByL2Distance(t *testing.T) {
	ix := New(2, "", "")
	require.NoError(t, ix.Add([][]float32{{0, 0}, {1, 0}, {5, 0}}, []string{"near", "mid", "far"}))
	res, err := ix.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, "near", res[0].ID)
	require.Equal(t, "mid", res[1].ID)
}

func TestRemove_RebuildsPreservingOrderAndShrinkingSize(t *testing.T) {
	ix := New(1, "", "")
	require.NoError(t, ix.Add([][]float32{{1}, {2}, {3}}, []string{"a", "b", "c"}))
	require.NoError(t, ix.Remove([]string{"b"}))
	require.Equal(t, 2, ix.Size())
	res, err := ix.Search([]float32{0}, 10)
	require.NoError(t, err)
	ids := []string{res[0].ID, res[1].ID}
	require.ElementsMatch(t, []string{"a", "c"}, ids)
}

func TestSaveLoad_RoundTripsIdenticalState(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "vectors.json")
	idPath := filepath.Join(dir, "ids.json")

	ix := New(3, vecPath, idPath)
	require.NoError(t, ix.Add([][]float32{{1, 2, 3}, {4, 5, 6}}, []string{"x", "y"}))
	require.NoError(t, ix.Save())

	loaded := New(0, vecPath, idPath)
	require.NoError(t, loaded.Load())
	require.Equal(t, ix.Dimension(), loaded.Dimension())

	query := []float32{1, 2, 3}
	want, err := ix.Search(query, 2)
	require.NoError(t, err)
	got, err := loaded.Search(query, 2)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoad_OverridesConfiguredDimension(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "vectors.json")
	idPath := filepath.Join(dir, "ids.json")
	ix := New(2, vecPath, idPath)
	require.NoError(t, ix.Add([][]float32{{1, 2}}, []string{"a"}))
	require.NoError(t, ix.Save())

	loaded := New(99, vecPath, idPath)
	require.NoError(t, loaded.Load())
	require.Equal(t, 2, loaded.Dimension())

	err := loaded.Add([][]float32{make([]float32, 99)}, []string{"b"})
	require.ErrorIs(t, err, ErrDimensionMismatch, "adds at the old configured dimension must be rejected after load")
}
