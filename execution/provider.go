package execution

import (
	"context"
)

// RowProvider is an external source of rows, already projected to the requested columns.
// ReadBatch returns at most maxRows rows, and ErrEndOfStream once exhausted.
type RowProvider interface {
	Schema() Schema
	ReadBatch(ctx context.Context, maxRows int) (Chunk, error)
}
