package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clipmatch/internal/app"
	"clipmatch/internal/catalog"
	"clipmatch/internal/httputil"
	"clipmatch/internal/matcher"
	"clipmatch/internal/pipeline"
	"clipmatch/internal/queue"
	"clipmatch/internal/script"
)

type matchRequest struct {
	ScriptText   string `json:"script_text" validate:"required"`
	CatalogTable string `json:"catalog_table,omitempty" validate:"omitempty,max=63"`
}

type jobRequest struct {
	ScriptPath   string `json:"script_path" validate:"required"`
	OutputPath   string `json:"output_path" validate:"required"`
	CatalogPath  string `json:"catalog_path,omitempty" validate:"excluded_with=CatalogTable"`
	CatalogTable string `json:"catalog_table,omitempty" validate:"omitempty,max=63"`
	IncludeScore bool   `json:"include_score,omitempty"`
}

// matchJob is the payload of a queue.TaskTypeMatch task.
type matchJob struct {
	JobID   uuid.UUID        `json:"job_id"`
	Request pipeline.Request `json:"request"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httputil.Serve(ctx, srv, deps.Log); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)
	runner := deps.Runner()

	r.Post("/api/match", matchHandler(deps, runner))
	r.Post("/api/jobs", jobHandler(deps))
	r.Get("/api/clips", clipsHandler(deps, runner))
	r.Get("/api/clips/{character}", characterHandler(deps, runner))
	r.Get("/api/clip/{id}", clipHandler(deps, runner))
	r.Get("/api/search/{query}", searchHandler(deps, runner))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}

var errTableNotAllowed = errors.New("catalog table not allowed")

// catalogFor names the catalog a request reads: the requested table when it
// is allowed, else the configured SQL table or CSV file.
func catalogFor(deps app.Deps, table string) (pipeline.Request, error) {
	if table != "" {
		if !deps.Config.TableAllowed(table) {
			return pipeline.Request{}, fmt.Errorf("%w: %q", errTableNotAllowed, table)
		}
		return pipeline.Request{CatalogTable: table}, nil
	}
	if deps.Store != nil {
		return pipeline.Request{CatalogTable: deps.Config.CatalogTable}, nil
	}
	return pipeline.Request{CatalogPath: deps.Config.CatalogPath}, nil
}

// resolvePath joins a client-supplied path onto root. Absolute paths and
// paths that climb out of root are rejected.
func resolvePath(root, field, p string) (string, error) {
	if !filepath.IsLocal(p) {
		return "", fmt.Errorf("%s %q must be a relative path inside its root", field, p)
	}
	return filepath.Join(root, p), nil
}

func matchHandler(deps app.Deps, runner *pipeline.Runner) http.HandlerFunc {
	limit := deps.Config.MaxScriptBytes + 4096

	return func(w http.ResponseWriter, r *http.Request) {
		var req matchRequest
		if err := httputil.DecodeJSON(w, r, limit, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid match request", err, http.StatusBadRequest)
			return
		}
		run, err := catalogFor(deps, req.CatalogTable)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid match request", err, http.StatusBadRequest)
			return
		}
		run.ScriptText = req.ScriptText

		sum, err := runner.Run(r.Context(), run)
		if err != nil {
			httputil.Fail(deps.Log, w, "match failed", err, statusFor(err))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, sum)
	}
}

func jobHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Queue == nil {
			httputil.Fail(deps.Log, w, "job queue not configured", nil, http.StatusServiceUnavailable)
			return
		}
		var req jobRequest
		if err := httputil.DecodeJSON(w, r, 64<<10, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid job request", err, http.StatusBadRequest)
			return
		}
		run, err := jobRequestToRun(deps, req)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid job request", err, http.StatusBadRequest)
			return
		}

		job := matchJob{JobID: uuid.New(), Request: run}
		body, err := json.Marshal(job)
		if err != nil {
			httputil.Fail(deps.Log, w, "marshal job failed", err, http.StatusInternalServerError)
			return
		}
		task := queue.Task{ID: job.JobID, Type: queue.TaskTypeMatch, Payload: body}
		if err := queue.EnqueueWithRetry(r.Context(), deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			httputil.Fail(deps.Log.With("job_id", job.JobID), w, "failed to enqueue job; please retry", err, http.StatusServiceUnavailable)
			return
		}
		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"job_id": job.JobID.String(),
			"status": "queued",
		})
	}
}

// jobRequestToRun confines job paths to the configured data and output roots.
func jobRequestToRun(deps app.Deps, req jobRequest) (pipeline.Request, error) {
	cfg := deps.Config
	run, err := catalogFor(deps, req.CatalogTable)
	if err != nil {
		return pipeline.Request{}, err
	}
	if req.CatalogPath != "" {
		p, err := resolvePath(cfg.DataDir, "catalog_path", req.CatalogPath)
		if err != nil {
			return pipeline.Request{}, err
		}
		run = pipeline.Request{CatalogPath: p}
	}
	if run.ScriptPath, err = resolvePath(cfg.DataDir, "script_path", req.ScriptPath); err != nil {
		return pipeline.Request{}, err
	}
	if run.OutputPath, err = resolvePath(cfg.OutputDir, "output_path", req.OutputPath); err != nil {
		return pipeline.Request{}, err
	}
	run.IncludeScore = req.IncludeScore
	return run, nil
}

func clipsHandler(deps app.Deps, runner *pipeline.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips, ok := loadClips(deps, runner, w, r)
		if !ok {
			return
		}
		httputil.WriteJSON(w, http.StatusOK, clips)
	}
}

func characterHandler(deps app.Deps, runner *pipeline.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips, ok := loadClips(deps, runner, w, r)
		if !ok {
			return
		}
		httputil.WriteJSON(w, http.StatusOK, catalog.ByCharacter(clips, chi.URLParam(r, "character")))
	}
}

func clipHandler(deps app.Deps, runner *pipeline.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips, ok := loadClips(deps, runner, w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		clip, found := catalog.Find(clips, id)
		if !found {
			httputil.Fail(deps.Log, w, "clip not found", fmt.Errorf("no clip with id %q", id), http.StatusNotFound)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, clip)
	}
}

func searchHandler(deps app.Deps, runner *pipeline.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips, ok := loadClips(deps, runner, w, r)
		if !ok {
			return
		}
		httputil.WriteJSON(w, http.StatusOK, catalog.Search(clips, chi.URLParam(r, "query")))
	}
}

func loadClips(deps app.Deps, runner *pipeline.Runner, w http.ResponseWriter, r *http.Request) ([]catalog.ClipRecord, bool) {
	req, err := catalogFor(deps, r.URL.Query().Get("table"))
	if err != nil {
		httputil.Fail(deps.Log, w, "invalid catalog table", err, http.StatusBadRequest)
		return nil, false
	}
	clips, err := runner.LoadCatalog(r.Context(), req)
	if err != nil {
		httputil.Fail(deps.Log, w, "failed to load catalog", err, statusFor(err))
		return nil, false
	}
	return clips, true
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var ferr *catalog.FormatError
	var dm *matcher.DimensionMismatchError
	var perr *matcher.ProviderError
	switch {
	case errors.As(err, &ferr),
		errors.Is(err, script.ErrEmptyScript),
		errors.Is(err, matcher.ErrEmptyCatalog):
		return http.StatusUnprocessableEntity
	case errors.As(err, &dm), errors.As(err, &perr):
		return http.StatusBadGateway
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
