package rag

import (
	"math"
	"sort"
)

type Chunk struct {
	Index     int
	Content   string
	Embedding []float32
}

type Result struct {
	Chunk Chunk
	Score float64
}

// Store is an immutable in-memory set of embedded chunks ranked by cosine similarity.
type Store struct {
	chunks []Chunk
}

func NewStore(chunks []Chunk) *Store {
	return &Store{chunks: chunks}
}

func (s *Store) Len() int {
	return len(s.chunks)
}

func (s *Store) Search(embedding []float32, topK int) []Result {
	results := make([]Result, 0, len(s.chunks))
	for _, c := range s.chunks {
		results = append(results, Result{Chunk: c, Score: cosineSimilarity(embedding, c.Embedding)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
