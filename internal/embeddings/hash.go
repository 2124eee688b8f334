package embeddings

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// DefaultHashDim is the vector width used when HashEmbedder is built with dim <= 0.
const DefaultHashDim = 256

// HashEmbedder is a deterministic bag-of-words embedder using signed feature
// hashing. It needs no model or network, so it serves offline runs and tests.
// Texts sharing words score higher; it has no notion of synonyms.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a HashEmbedder producing dim-wide vectors.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDim
	}
	return &HashEmbedder{dim: dim}
}

// Model names the embedder for cache namespacing.
func (h *HashEmbedder) Model() string {
	return "hash"
}

func (h *HashEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make(Vector, h.dim)
	for _, tok := range tokenize(text) {
		sum := xxhash.Sum64String(tok)
		bucket := int(sum % uint64(h.dim))
		if sum&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	return vec, nil
}

func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, len(texts))
	for i, t := range texts {
		v, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
