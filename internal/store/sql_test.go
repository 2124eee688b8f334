package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipmatch/internal/catalog"
)

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open("sqlite", filepath.Join(t.TempDir(), "clips.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestImportAndLoadClips(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	clips := []catalog.ClipRecord{
		{ID: "9", Description: "Vi punches a guard", Character: "Vi", Metadata: map[string]string{"filename": "9 Vi.mp4"}},
		{ID: "2", Description: "Jinx laughs maniacally", Character: "Jinx", Metadata: map[string]string{"filename": "2 Jinx.mp4", "scene": "bar"}},
		{ID: "5", Description: "Caitlyn aims"},
	}
	require.NoError(t, s.ImportClips(ctx, "clips", clips))

	got, err := s.LoadClips(ctx, "clips")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Catalog order survives the round trip.
	assert.Equal(t, "9", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, "5", got[2].ID)

	assert.Equal(t, "Vi", got[0].Character)
	assert.Equal(t, "Jinx laughs maniacally", got[1].Description)
	assert.Equal(t, "bar", got[1].Metadata["scene"])
	assert.Equal(t, "9 Vi.mp4", got[0].Metadata["filename"])
	_, hasOrder := got[0].Metadata[OrderColumn]
	assert.False(t, hasOrder)
}

func TestImportReplacesTable(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	require.NoError(t, s.ImportClips(ctx, "clips", []catalog.ClipRecord{{ID: "1", Description: "a"}, {ID: "2", Description: "b"}}))
	require.NoError(t, s.ImportClips(ctx, "clips", []catalog.ClipRecord{{ID: "3", Description: "c"}}))

	got, err := s.LoadClips(ctx, "clips")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
}

func TestLoadClipsForeignTable(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	_, err := s.db.ExecContext(ctx, `CREATE TABLE shots ("ID" INTEGER, "Description" TEXT, "Duration" REAL)`)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `INSERT INTO shots VALUES (1, 'Vi punches', 2.5), (2, 'Jinx laughs', 1.25)`)
	require.NoError(t, err)

	got, err := s.LoadClips(ctx, "shots")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "Vi punches", got[0].Description)
	assert.Equal(t, "2.5", got[0].Metadata["duration"])
}

func TestLoadClipsWithoutOrderColumnSortsByID(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	_, err := s.db.ExecContext(ctx, `CREATE TABLE shots (id TEXT, description TEXT)`)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `INSERT INTO shots VALUES ('10', 'ten'), ('b', 'bee'), ('2', 'two'), ('a', 'ay'), ('1', 'one')`)
	require.NoError(t, err)

	got, err := s.LoadClips(ctx, "shots")
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"1", "2", "10", "a", "b"}, ids)
}

func TestIDLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"2", "10", true},
		{"10", "2", false},
		{"9", "a", true},
		{"a", "9", false},
		{"a", "b", true},
		{"b", "b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, idLess(tt.a, tt.b), "%s < %s", tt.a, tt.b)
	}
}

func TestLoadClipsMissingColumn(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	_, err := s.db.ExecContext(ctx, `CREATE TABLE bad (id TEXT, label TEXT)`)
	require.NoError(t, err)

	_, err = s.LoadClips(ctx, "bad")
	var ferr *catalog.FormatError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, catalog.ColumnDescription, ferr.Column)
}

func TestLoadClipsUnknownTable(t *testing.T) {
	s := openSQLite(t)
	_, err := s.LoadClips(context.Background(), "nope")
	assert.Error(t, err)
}

func TestOpenValidation(t *testing.T) {
	_, err := Open("mysql", "dsn")
	assert.ErrorContains(t, err, "unsupported catalog driver")

	_, err = Open("sqlite", "")
	assert.ErrorContains(t, err, "dsn required")
}

func TestPlaceholders(t *testing.T) {
	pg := &SQLStore{driver: "pgx"}
	lite := &SQLStore{driver: "sqlite"}
	assert.Equal(t, "$1, $2, $3", pg.placeholders(3))
	assert.Equal(t, "?, ?", lite.placeholders(2))
}

func TestMetadataKeys(t *testing.T) {
	keys := metadataKeys([]catalog.ClipRecord{
		{Metadata: map[string]string{"b": "1", "id": "dup", "a": "2"}},
		{Metadata: map[string]string{"a": "3", OrderColumn: "x"}},
	})
	assert.Equal(t, []string{"a", "b"}, keys)
}
