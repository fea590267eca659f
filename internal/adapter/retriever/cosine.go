package retriever

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"coursetutor/internal/domain"
)

// Similarity returns the cosine similarity of a and b computed in float64.
// Vectors of different length, or with a zero norm, score 0.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Retrieve ranks every record in st against query and returns the k best,
// ordered by score descending. Ties go to the earlier start time, then the
// lower chunk ID. The store is not modified.
func Retrieve(query []float32, st *domain.Store, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidTopK
	}
	if st == nil {
		return nil, &domain.StoreCorruptError{Reason: "no store loaded"}
	}
	if len(query) != st.Dimension {
		return nil, &domain.StoreCorruptError{
			Reason: fmt.Sprintf("query vector has dimension %d, store has %d", len(query), st.Dimension),
		}
	}
	for _, x := range query {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil, domain.ErrInvalidQueryVector
		}
	}

	if k > st.Len() {
		k = st.Len()
	}
	if k == 0 {
		return domain.RetrievalResult{}, nil
	}

	h := make(topK, 0, k)
	for _, rec := range st.Records {
		cand := domain.ScoredChunk{Chunk: rec.Chunk, Score: Similarity(query, rec.Vector)}
		if len(h) < k {
			heap.Push(&h, cand)
			continue
		}
		if ranksBefore(cand, h[0]) {
			h[0] = cand
			heap.Fix(&h, 0)
		}
	}

	result := domain.RetrievalResult(h)
	sort.Slice(result, func(i, j int) bool {
		return ranksBefore(result[i], result[j])
	})
	return result, nil
}

func ranksBefore(a, b domain.ScoredChunk) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Chunk.Start != b.Chunk.Start {
		return a.Chunk.Start < b.Chunk.Start
	}
	return a.Chunk.ID < b.Chunk.ID
}

// topK is a min-heap with the weakest kept candidate at the root.
type topK []domain.ScoredChunk

func (h topK) Len() int           { return len(h) }
func (h topK) Less(i, j int) bool { return ranksBefore(h[j], h[i]) }
func (h topK) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *topK) Push(x any) { *h = append(*h, x.(domain.ScoredChunk)) }

func (h *topK) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
