package embeddings

import (
	"context"
	"math"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// Embedder defines the embedding interface.
// EmbedBatch returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)
}

// Norm returns the Euclidean length of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|).
// Empty vectors, vectors of different length and zero-norm vectors score 0.
func CosineSimilarity(a, b Vector) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	return CosineWithNorms(a, b, Norm(a), Norm(b))
}

// CosineWithNorms is CosineSimilarity with precomputed norms, for callers
// scoring one vector against many.
func CosineWithNorms(a, b Vector, normA, normB float64) float32 {
	if len(a) == 0 || len(a) != len(b) || normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	sim := dot / (normA * normB)
	if math.IsNaN(sim) {
		return 0
	}
	return float32(sim)
}
