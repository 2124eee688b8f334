package matcher

import (
	"context"
	"errors"
	"fmt"

	"clipmatch/internal/catalog"
	"clipmatch/internal/embeddings"
)

// ErrEmptyCatalog is returned when there are no clips to match against.
var ErrEmptyCatalog = errors.New("catalog has no clips")

// DimensionMismatchError reports an embedder that returned vectors of
// differing width within one run.
type DimensionMismatchError struct {
	What string // which vector broke the contract, e.g. "clip 3"
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: %s has %d dimensions, want %d", e.What, e.Got, e.Want)
}

// ProviderError wraps a failure of the embedding provider.
type ProviderError struct {
	Stage string // "catalog" or "sentence N"
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embed %s: %v", e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Index holds the catalog's description embeddings and their norms.
// It is read-only after NewIndex returns and safe for concurrent use.
type Index struct {
	clips   []catalog.ClipRecord
	vectors []embeddings.Vector
	norms   []float64
	dim     int
}

// NewIndex embeds every clip description with one EmbedBatch call.
func NewIndex(ctx context.Context, clips []catalog.ClipRecord, e embeddings.Embedder) (*Index, error) {
	if len(clips) == 0 {
		return nil, ErrEmptyCatalog
	}
	vecs, err := e.EmbedBatch(ctx, catalog.Descriptions(clips))
	if err != nil {
		return nil, &ProviderError{Stage: "catalog", Err: err}
	}
	if len(vecs) != len(clips) {
		return nil, &ProviderError{Stage: "catalog", Err: fmt.Errorf("got %d vectors for %d clips", len(vecs), len(clips))}
	}

	ix := &Index{
		clips:   clips,
		vectors: vecs,
		norms:   make([]float64, len(vecs)),
		dim:     len(vecs[0]),
	}
	for i, v := range vecs {
		if len(v) != ix.dim {
			return nil, &DimensionMismatchError{What: fmt.Sprintf("clip %s", clips[i].ID), Want: ix.dim, Got: len(v)}
		}
		ix.norms[i] = embeddings.Norm(v)
	}
	return ix, nil
}

// Len reports the number of clips in the index.
func (ix *Index) Len() int { return len(ix.clips) }

// Dim reports the embedding width of the index.
func (ix *Index) Dim() int { return ix.dim }

// Clip returns the clip at catalog position i.
func (ix *Index) Clip(i int) catalog.ClipRecord { return ix.clips[i] }

// Best scores v against every clip and returns the position and score of the
// most similar one. Ties go to the lowest catalog position.
func (ix *Index) Best(v embeddings.Vector) (int, float32, error) {
	if len(v) != ix.dim {
		return 0, 0, &DimensionMismatchError{What: "query", Want: ix.dim, Got: len(v)}
	}
	norm := embeddings.Norm(v)
	best, bestScore := 0, embeddings.CosineWithNorms(v, ix.vectors[0], norm, ix.norms[0])
	for i := 1; i < len(ix.vectors); i++ {
		score := embeddings.CosineWithNorms(v, ix.vectors[i], norm, ix.norms[i])
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore, nil
}
