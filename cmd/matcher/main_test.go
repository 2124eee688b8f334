package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipmatch/internal/embeddings"
	"clipmatch/internal/pipeline"
	"clipmatch/internal/queue"
	"clipmatch/internal/script"
)

type stubRunner struct {
	err  error
	got  pipeline.Request
	runs int
}

func (s *stubRunner) Run(_ context.Context, req pipeline.Request) (pipeline.Summary, error) {
	s.runs++
	s.got = req
	if s.err != nil {
		return pipeline.Summary{}, s.err
	}
	return pipeline.Summary{RunID: uuid.New(), OutputPath: req.OutputPath}, nil
}

func task(t *testing.T, req pipeline.Request) queue.Task {
	t.Helper()
	body, err := json.Marshal(matchJob{JobID: uuid.New(), Request: req})
	require.NoError(t, err)
	return queue.Task{Type: queue.TaskTypeMatch, Payload: body}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestHandleMatch(t *testing.T) {
	req := pipeline.Request{CatalogPath: "clips.csv", ScriptPath: "script.txt", OutputPath: "out.csv"}

	tests := []struct {
		name          string
		task          queue.Task
		runErr        error
		wantErr       bool
		wantPermanent bool
		wantRuns      int
	}{
		{name: "success", task: task(t, req), wantRuns: 1},
		{name: "bad payload", task: queue.Task{Type: queue.TaskTypeMatch, Payload: []byte("{")}, wantErr: true, wantPermanent: true},
		{name: "no output path", task: task(t, pipeline.Request{CatalogPath: "c.csv", ScriptPath: "s.txt"}), wantErr: true, wantPermanent: true},
		{name: "empty script is permanent", task: task(t, req), runErr: script.ErrEmptyScript, wantErr: true, wantPermanent: true, wantRuns: 1},
		{name: "provider outage is retried", task: task(t, req), runErr: errors.New("connection reset"), wantErr: true, wantRuns: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &stubRunner{err: tt.runErr}
			err := handleMatch(context.Background(), discard, r, tt.task)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, req, r.got)
			} else {
				require.Error(t, err)
			}
			assert.Equal(t, tt.wantPermanent, queue.IsPermanent(err))
			assert.Equal(t, tt.wantRuns, r.runs)
		})
	}
}

func TestHandleMatchWritesOutput(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "clips.csv")
	scriptPath := filepath.Join(dir, "script.txt")
	outPath := filepath.Join(dir, "out", "matches.csv")
	require.NoError(t, os.WriteFile(catalogPath, []byte("id,description\n1,Vi punches a guard\n2,Jinx laughs\n"), 0o644))
	require.NoError(t, os.WriteFile(scriptPath, []byte("Vi punches. Jinx laughs."), 0o644))

	r := &pipeline.Runner{Embedder: embeddings.NewHashEmbedder(512), Log: discard, Workers: 1, MaxScriptBytes: 1 << 20}
	err := handleMatch(context.Background(), discard, r, task(t, pipeline.Request{
		CatalogPath: catalogPath,
		ScriptPath:  scriptPath,
		OutputPath:  outPath,
	}))
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "Sentence,start_time,end_time,matched_script_id\nVi punches.,NA,NA,1\nJinx laughs.,NA,NA,2\n", string(data))
}
