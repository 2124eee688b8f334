package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"clipmatch/internal/catalog"
)

// SQLStore keeps clip catalogs in Postgres (driver "pgx") or SQLite
// (driver "sqlite").
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn with the named driver and checks the connection.
// "postgres" is accepted as an alias of "pgx".
func Open(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "postgres", "pgx":
		driver = "pgx"
	case "sqlite":
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q (valid options: postgres, sqlite)", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("dsn required for driver %s", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog database unreachable: %w", err)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

// LoadClips reads every row of table as a clip record, applying the same
// column rules as a CSV catalog. Rows are ordered by OrderColumn when the
// table has one, otherwise by id (numerically when both ids are integers).
func (s *SQLStore) LoadClips(ctx context.Context, table string) ([]catalog.ClipRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+pq.QuoteIdentifier(table))
	if err != nil {
		return nil, fmt.Errorf("query clips from %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	orderCol, idCol := -1, -1
	for i, c := range cols {
		switch {
		case strings.EqualFold(c, OrderColumn):
			orderCol = i
		case strings.EqualFold(strings.TrimSpace(c), catalog.ColumnID):
			idCol = i
		}
	}

	type ordered struct {
		pos    int64
		id     string
		fields []string
	}
	var data []ordered
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		fields := make([]string, 0, len(cols))
		var pos int64
		var id string
		for i, v := range raw {
			if i == orderCol {
				pos, _ = strconv.ParseInt(v.String, 10, 64)
				continue
			}
			if i == idCol {
				id = v.String
			}
			fields = append(fields, v.String)
		}
		data = append(data, ordered{pos: pos, id: id, fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// SELECT * has no defined row order, so rows are sorted here: by
	// OrderColumn when present, else by id.
	header := cols
	if orderCol >= 0 {
		header = append(append([]string{}, cols[:orderCol]...), cols[orderCol+1:]...)
		sort.SliceStable(data, func(i, j int) bool { return data[i].pos < data[j].pos })
	} else {
		sort.SliceStable(data, func(i, j int) bool { return idLess(data[i].id, data[j].id) })
	}
	table2d := make([][]string, len(data))
	for i, d := range data {
		table2d[i] = d.fields
	}
	return catalog.FromTable(header, table2d)
}

// ImportClips replaces table with clips in one transaction. The table gets
// OrderColumn, id, description, character and one text column per metadata key.
func (s *SQLStore) ImportClips(ctx context.Context, table string, clips []catalog.ClipRecord) error {
	metaKeys := metadataKeys(clips)

	cols := []string{OrderColumn, catalog.ColumnID, catalog.ColumnDescription, catalog.ColumnCharacter}
	cols = append(cols, metaKeys...)
	quoted := make([]string, len(cols))
	defs := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pq.QuoteIdentifier(c)
		switch c {
		case OrderColumn:
			defs[i] = quoted[i] + " INTEGER NOT NULL"
		case catalog.ColumnID:
			defs[i] = quoted[i] + " TEXT PRIMARY KEY"
		default:
			defs[i] = quoted[i] + " TEXT"
		}
	}
	qTable := pq.QuoteIdentifier(table)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+qTable); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+qTable+` (`+strings.Join(defs, ", ")+`)`); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	insert := `INSERT INTO ` + qTable + ` (` + strings.Join(quoted, ", ") + `) VALUES (` + s.placeholders(len(cols)) + `)`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range clips {
		args := []any{i, c.ID, c.Description, c.Character}
		for _, k := range metaKeys {
			v, ok := c.Metadata[k]
			if !ok {
				args = append(args, nil)
				continue
			}
			args = append(args, v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert clip %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		if s.driver == "pgx" {
			parts[i] = "$" + strconv.Itoa(i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// idLess orders integer ids numerically and everything else lexically;
// integers sort before non-integers.
func idLess(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

func metadataKeys(clips []catalog.ClipRecord) []string {
	seen := map[string]bool{}
	var keys []string
	for _, c := range clips {
		for k := range c.Metadata {
			if seen[k] || reservedColumn(k) {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func reservedColumn(name string) bool {
	switch name {
	case OrderColumn, catalog.ColumnID, catalog.ColumnDescription, catalog.ColumnCharacter:
		return true
	}
	return false
}
