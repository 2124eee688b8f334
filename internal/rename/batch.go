package rename

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Move records one completed rename.
type Move struct {
	From string
	To   string
}

// CleanOptions configures CleanCatalog.
type CleanOptions struct {
	CatalogPath string // CSV with filename, id and character columns
	OutputPath  string // where the cleaned CSV is written
	Root        string // clip library; files live in Root/<character>/
	DryRun      bool   // compute names and report; rename and write nothing
}

// CleanReport summarises a CleanCatalog run.
type CleanReport struct {
	Rows        int
	Renamed     []Move
	Unmatched   []string // cleaned names with no file on disk
	MissingDirs []string // character folders that do not exist
}

// CleanCatalog rewrites the filename column of a catalog to
// "<id> <normalized description>", renames the matching files under
// Root/<character>/ and writes the cleaned catalog. Files are matched by
// their normalized name; renames never overwrite (".N" suffixes).
// Missing folders and unmatched rows are reported, not fatal.
func CleanCatalog(ctx context.Context, opts CleanOptions) (CleanReport, error) {
	var report CleanReport

	header, rows, err := readCSV(opts.CatalogPath)
	if err != nil {
		return report, err
	}
	fileCol, idCol, charCol := column(header, "filename"), column(header, "id"), column(header, "character")
	for name, idx := range map[string]int{"filename": fileCol, "id": idCol, "character": charCol} {
		if idx < 0 {
			return report, fmt.Errorf("catalog %s: missing %q column", opts.CatalogPath, name)
		}
	}

	for _, row := range rows {
		row[fileCol] = CleanFilename(row[fileCol], row[idCol])
	}
	report.Rows = len(rows)

	locks := map[string]func(){}
	defer func() {
		for _, unlock := range locks {
			unlock()
		}
	}()
	missing := map[string]bool{}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		want := row[fileCol]
		dir := filepath.Join(opts.Root, row[charCol])
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			if !missing[dir] {
				missing[dir] = true
				report.MissingDirs = append(report.MissingDirs, dir)
			}
			continue
		}
		if _, held := locks[dir]; !held && !opts.DryRun {
			lock, err := lockDir(dir)
			if err != nil {
				return report, err
			}
			locks[dir] = func() { _ = lock.Unlock() }
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return report, fmt.Errorf("list %s: %w", dir, err)
		}
		found := ""
		for _, e := range entries {
			if e.IsDir() || e.Name() == LockName {
				continue
			}
			if Normalize(e.Name()) == want {
				found = e.Name()
				break
			}
		}
		if found == "" {
			report.Unmatched = append(report.Unmatched, want)
			continue
		}
		if found == want {
			continue
		}
		oldPath, newPath := filepath.Join(dir, found), filepath.Join(dir, want)
		if opts.DryRun {
			report.Renamed = append(report.Renamed, Move{From: oldPath, To: newPath})
			continue
		}
		final, err := SafeRename(oldPath, newPath, SepDot)
		if err != nil {
			return report, fmt.Errorf("rename %s: %w", oldPath, err)
		}
		report.Renamed = append(report.Renamed, Move{From: oldPath, To: final})
	}

	if opts.DryRun {
		return report, nil
	}
	if err := writeCSV(opts.OutputPath, header, rows); err != nil {
		return report, err
	}
	return report, nil
}

// PrefixReport summarises a PrefixFiles run.
type PrefixReport struct {
	Renamed []Move
	Skipped int // files already carrying the prefix
}

// PrefixFiles prepends prefix to every file in dir whose name ends in ext
// (case-insensitive). Files that already start with prefix are left alone, so
// running it twice changes nothing. Collisions get "_N" suffixes.
func PrefixFiles(ctx context.Context, dir, prefix, ext string) (PrefixReport, error) {
	var report PrefixReport
	if prefix == "" {
		return report, fmt.Errorf("prefix required")
	}
	lock, err := lockDir(dir)
	if err != nil {
		return report, err
	}
	defer func() { _ = lock.Unlock() }()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name() == LockName {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), strings.ToLower(ext)) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if strings.HasPrefix(name, prefix) {
			report.Skipped++
			continue
		}
		oldPath := filepath.Join(dir, name)
		final, err := SafeRename(oldPath, filepath.Join(dir, prefix+name), SepUnderscore)
		if err != nil {
			return report, fmt.Errorf("rename %s: %w", oldPath, err)
		}
		report.Renamed = append(report.Renamed, Move{From: oldPath, To: final})
	}
	return report, nil
}

func column(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("catalog %s is empty", path)
	}
	return records[0], records[1:], nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cleaned catalog: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
