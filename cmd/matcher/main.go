package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"clipmatch/internal/app"
	"clipmatch/internal/httputil"
	"clipmatch/internal/pipeline"
	"clipmatch/internal/queue"
)

// matchJob is the payload of a queue.TaskTypeMatch task.
type matchJob struct {
	JobID   uuid.UUID        `json:"job_id"`
	Request pipeline.Request `json:"request"`
}

// runner is the part of pipeline.Runner the worker needs.
type runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Summary, error)
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()
	if deps.Queue == nil {
		deps.Log.Error("QUEUE_URL is required for the matcher worker")
		os.Exit(1)
	}
	deps.Log.Info("matcher worker starting")

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(sigCtx)

	r := deps.Runner()
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeMatch, func(ctx context.Context, task queue.Task) error {
			return handleMatch(ctx, deps.Log, r, task)
		})
	})

	g.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/healthz", httputil.HealthHandler(deps.Log))
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", deps.Config.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		return httputil.Serve(ctx, srv, deps.Log)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		deps.Log.Error("matcher service stopped", "err", err)
	}
}

// handleMatch runs one job. Failures that would repeat on every attempt are
// marked permanent so the queue drops the task.
func handleMatch(ctx context.Context, log *slog.Logger, r runner, task queue.Task) error {
	var job matchJob
	if err := json.Unmarshal(task.Payload, &job); err != nil {
		return queue.Permanent(fmt.Errorf("decode match job: %w", err))
	}
	if job.Request.OutputPath == "" {
		return queue.Permanent(errors.New("match job has no output path"))
	}
	log = log.With("job_id", job.JobID, "attempt", task.Attempts)

	sum, err := r.Run(ctx, job.Request)
	if err != nil {
		if pipeline.IsPermanent(err) {
			return queue.Permanent(err)
		}
		log.Warn("match job failed; will retry", "err", err)
		return err
	}
	log.Info("match job complete", "run_id", sum.RunID, "output", sum.OutputPath, "sentences", sum.Sentences)
	return nil
}
