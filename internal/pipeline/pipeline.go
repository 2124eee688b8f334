// Package pipeline runs a full match: load the catalog, segment the script,
// match every sentence and write the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clipmatch/internal/catalog"
	"clipmatch/internal/embeddings"
	"clipmatch/internal/matcher"
	"clipmatch/internal/output"
	"clipmatch/internal/script"
	"clipmatch/internal/store"
)

// Runner carries the collaborators of a match run.
type Runner struct {
	Embedder       embeddings.Embedder
	Store          store.Store // optional; needed for table catalogs
	Log            *slog.Logger
	Workers        int
	MaxScriptBytes int64
}

// Request describes one run. Exactly one of CatalogPath and CatalogTable
// names the catalog; ScriptText, when set, is used instead of ScriptPath.
type Request struct {
	CatalogPath  string `json:"catalog_path,omitempty"`
	CatalogTable string `json:"catalog_table,omitempty"`
	ScriptPath   string `json:"script_path,omitempty"`
	ScriptText   string `json:"script_text,omitempty"`
	OutputPath   string `json:"output_path,omitempty"` // empty: results are only returned
	IncludeScore bool   `json:"include_score,omitempty"`
}

// Summary reports a finished run.
type Summary struct {
	RunID         uuid.UUID        `json:"run_id"`
	Sentences     int              `json:"sentences"`
	Clips         int              `json:"clips"`
	DistinctClips int              `json:"distinct_clips"`
	OutputPath    string           `json:"output_path,omitempty"`
	Duration      time.Duration    `json:"duration"`
	Results       []matcher.Result `json:"results"`
}

// Run executes req. Nothing is written unless every sentence matched.
func (r *Runner) Run(ctx context.Context, req Request) (Summary, error) {
	start := time.Now()
	runID := uuid.New()
	log := r.logger().With("run_id", runID)

	clips, err := r.LoadCatalog(ctx, req)
	if err != nil {
		return Summary{}, err
	}
	text := req.ScriptText
	if text == "" {
		if req.ScriptPath == "" {
			return Summary{}, fmt.Errorf("script path or text required")
		}
		text, err = script.ReadFile(req.ScriptPath, r.MaxScriptBytes)
		if err != nil {
			return Summary{}, err
		}
	}
	log.Info("catalog loaded", "clips", len(clips))

	results, err := r.Match(ctx, clips, text)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		RunID:         runID,
		Sentences:     len(results),
		Clips:         len(clips),
		DistinctClips: distinct(results),
		Results:       results,
	}
	if req.OutputPath != "" {
		if err := output.WriteFile(req.OutputPath, results, req.IncludeScore); err != nil {
			return Summary{}, err
		}
		sum.OutputPath = req.OutputPath
	}
	sum.Duration = time.Since(start)
	log.Info("matching complete",
		"sentences", sum.Sentences,
		"distinct_clips", sum.DistinctClips,
		"output", sum.OutputPath,
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return sum, nil
}

// LoadCatalog reads the catalog named by req.
func (r *Runner) LoadCatalog(ctx context.Context, req Request) ([]catalog.ClipRecord, error) {
	switch {
	case req.CatalogTable != "" && req.CatalogPath != "":
		return nil, errors.New("catalog path and catalog table are mutually exclusive")
	case req.CatalogTable != "":
		if r.Store == nil {
			return nil, errors.New("catalog table requested but no catalog database configured")
		}
		return r.Store.LoadClips(ctx, req.CatalogTable)
	case req.CatalogPath != "":
		return catalog.LoadFile(req.CatalogPath)
	default:
		return nil, errors.New("catalog path or table required")
	}
}

// Match segments text and matches it against clips.
func (r *Runner) Match(ctx context.Context, clips []catalog.ClipRecord, text string) ([]matcher.Result, error) {
	sentences, err := script.Segment(text)
	if err != nil {
		return nil, err
	}
	return matcher.Match(ctx, sentences, clips, r.Embedder, matcher.Options{
		Workers: r.Workers,
		Log:     r.logger(),
	})
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Log
}

// IsPermanent reports whether err is deterministic for the given inputs, so
// running the same request again cannot succeed.
func IsPermanent(err error) bool {
	var ferr *catalog.FormatError
	var dm *matcher.DimensionMismatchError
	return errors.As(err, &ferr) ||
		errors.As(err, &dm) ||
		errors.Is(err, script.ErrEmptyScript) ||
		errors.Is(err, matcher.ErrEmptyCatalog) ||
		errors.Is(err, fs.ErrNotExist)
}

func distinct(results []matcher.Result) int {
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		seen[r.ClipID] = struct{}{}
	}
	return len(seen)
}
