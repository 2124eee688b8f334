// Package output writes match results as CSV or as a terminal table.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"clipmatch/internal/matcher"
)

// Placeholder is written for timing fields that were not computed.
const Placeholder = "NA"

// Header lists the CSV columns, without the optional score column.
var Header = []string{"Sentence", "start_time", "end_time", "matched_script_id"}

// ScoreColumn is appended to Header when scores are written.
const ScoreColumn = "similarity_score"

// WriteCSV writes one row per result, in order.
func WriteCSV(w io.Writer, results []matcher.Result, withScore bool) error {
	cw := csv.NewWriter(w)
	header := Header
	if withScore {
		header = append(append([]string{}, Header...), ScoreColumn)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{r.Sentence, formatTime(r.StartTime), formatTime(r.EndTime), r.ClipID}
		if withScore {
			row = append(row, formatScore(r.Score))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes results to path through a temporary file in the same
// directory, so a failed write never leaves a truncated file behind.
func WriteFile(path string, results []matcher.Result, withScore bool) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = WriteCSV(tmp, results, withScore); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move output into place: %w", err)
	}
	return nil
}

// RenderTable formats results for a terminal.
func RenderTable(results []matcher.Result) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Sentence", "Clip", "Score"})
	for i, r := range results {
		tw.AppendRow(table.Row{i + 1, r.Sentence, r.ClipID, formatScore(r.Score)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 72},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

func formatTime(d *time.Duration) string {
	if d == nil {
		return Placeholder
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func formatScore(s float32) string {
	return strconv.FormatFloat(float64(s), 'f', 4, 32)
}
