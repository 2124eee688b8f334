package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipmatch/internal/matcher"
)

var sample = []matcher.Result{
	{Sentence: "Vi throws a punch.", ClipID: "1", Score: 0.98312},
	{Sentence: "Jinx says \"hi\", then leaves.", ClipID: "2", Score: 0.5},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample, false))

	want := "Sentence,start_time,end_time,matched_script_id\n" +
		"Vi throws a punch.,NA,NA,1\n" +
		"\"Jinx says \"\"hi\"\", then leaves.\",NA,NA,2\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVWithScore(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample[:1], true))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Sentence,start_time,end_time,matched_script_id,similarity_score", lines[0])
	assert.Equal(t, "Vi throws a punch.,NA,NA,1,0.9831", lines[1])

	// Header must not be mutated by the score variant.
	assert.Len(t, Header, 4)
}

func TestWriteCSVTimes(t *testing.T) {
	start, end := 1500*time.Millisecond, 3*time.Second
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []matcher.Result{{Sentence: "s", ClipID: "9", StartTime: &start, EndTime: &end}}, false))
	assert.Contains(t, buf.String(), "s,1.500,3.000,9")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "matches.csv")

	require.NoError(t, WriteFile(path, sample, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Sentence,"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(sample)
	assert.Contains(t, out, "Vi throws a punch.")
	assert.Contains(t, out, "0.9831")
	assert.Contains(t, out, "CLIP")
}
