package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_Search(t *testing.T) {
	t.Parallel()
	s := NewStore([]Chunk{
		{Index: 0, Content: "x", Embedding: []float32{1, 0}},
		{Index: 1, Content: "y", Embedding: []float32{0, 1}},
		{Index: 2, Content: "xy", Embedding: []float32{1, 1}},
	})
	res := s.Search([]float32{1, 0.1}, 2)
	require.Len(t, res, 2)
	require.Equal(t, "x", res[0].Chunk.Content)
	require.Equal(t, "xy", res[1].Chunk.Content)
	require.Greater(t, res[0].Score, res[1].Score)

	require.Len(t, s.Search([]float32{1, 0}, 10), 3)
	require.Equal(t, 3, s.Len())
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()
	require.InDelta(t, 1.0, cosineSimilarity([]float32{2, 0}, []float32{5, 0}), 1e-9)
	require.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
	require.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}
