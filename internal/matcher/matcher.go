package matcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"clipmatch/internal/catalog"
	"clipmatch/internal/embeddings"
	"clipmatch/internal/script"
)

// Result is the best clip for one script sentence.
// StartTime and EndTime are placeholders; temporal alignment is not computed
// here, so they are always nil.
type Result struct {
	Sentence  string         `json:"sentence"`
	ClipID    string         `json:"matched_script_id"`
	Score     float32        `json:"similarity_score"`
	StartTime *time.Duration `json:"start_time"`
	EndTime   *time.Duration `json:"end_time"`
}

// Options tunes a match run.
type Options struct {
	// Workers bounds how many sentences are embedded and scored at once.
	// Values below 1 mean 1.
	Workers int
	Log     *slog.Logger
}

// Match assigns every sentence its most similar clip. The catalog is embedded
// once; each sentence is embedded on its own. Results are in sentence order.
// Any error aborts the whole run and no results are returned.
func Match(ctx context.Context, sentences []script.Sentence, clips []catalog.ClipRecord, e embeddings.Embedder, opts Options) ([]Result, error) {
	if len(clips) == 0 {
		return nil, ErrEmptyCatalog
	}
	if len(sentences) == 0 {
		return nil, script.ErrEmptyScript
	}
	ix, err := NewIndex(ctx, clips, e)
	if err != nil {
		return nil, err
	}
	return MatchIndex(ctx, sentences, ix, e, opts)
}

// MatchIndex matches sentences against a prebuilt index. e must be the
// embedder the index was built with.
func MatchIndex(ctx context.Context, sentences []script.Sentence, ix *Index, e embeddings.Embedder, opts Options) ([]Result, error) {
	if len(sentences) == 0 {
		return nil, script.ErrEmptyScript
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	workers := max(opts.Workers, 1)

	results := make([]Result, len(sentences))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range sentences {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec, err := e.Embed(gctx, s.Text)
			if err != nil {
				return &ProviderError{Stage: fmt.Sprintf("sentence %d", s.Index), Err: err}
			}
			best, score, err := ix.Best(vec)
			if err != nil {
				var dm *DimensionMismatchError
				if errors.As(err, &dm) {
					dm.What = fmt.Sprintf("sentence %d", s.Index)
				}
				return err
			}
			results[i] = Result{
				Sentence: s.Text,
				ClipID:   ix.Clip(best).ID,
				Score:    score,
			}
			log.Debug("sentence matched", "sentence", s.Index, "clip_id", results[i].ClipID, "score", score)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
