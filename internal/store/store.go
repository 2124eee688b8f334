package store

import (
	"context"

	"clipmatch/internal/catalog"
)

// OrderColumn, when present in a clip table, fixes the row order of the
// catalog. It is not carried into clip metadata.
const OrderColumn = "clip_order"

// Store reads and writes clip catalogs kept in a SQL table.
type Store interface {
	LoadClips(ctx context.Context, table string) ([]catalog.ClipRecord, error)
	ImportClips(ctx context.Context, table string, clips []catalog.ClipRecord) error
	Close() error
}
