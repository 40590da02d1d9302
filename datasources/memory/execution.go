package memory

import (
	"context"

	"github.com/chunkflow/chunkflow/chunkflow"
	. "github.com/chunkflow/chunkflow/execution"
)

// Datasource serves rows held in memory.
//
// Entries are returned in order. A row entry batch is split to respect the requested batch size,
// while a Pause entry makes one read return an empty chunk, which lets tests control how
// the reads of different sources interleave.
type Datasource struct {
	schema  Schema
	entries []Entry
	closed  bool
}

type Entry struct {
	Rows  [][]chunkflow.Value
	Pause bool
}

// NewDatasource serves the given rows in batches of the requested size.
func NewDatasource(schema Schema, rows [][]chunkflow.Value) *Datasource {
	return &Datasource{
		schema:  schema,
		entries: []Entry{{Rows: rows}},
	}
}

// NewChunkedDatasource serves each of the given row batches as a separate read, unless larger than the batch size.
func NewChunkedDatasource(schema Schema, entries ...Entry) *Datasource {
	return &Datasource{
		schema:  schema,
		entries: entries,
	}
}

func (d *Datasource) Schema() Schema {
	return d.schema
}

func (d *Datasource) ReadBatch(ctx context.Context, maxRows int) (Chunk, error) {
	for len(d.entries) > 0 {
		entry := &d.entries[0]
		if entry.Pause {
			d.entries = d.entries[1:]
			return EmptyChunk(d.schema), nil
		}
		if len(entry.Rows) == 0 {
			d.entries = d.entries[1:]
			continue
		}
		n := len(entry.Rows)
		if n > maxRows {
			n = maxRows
		}
		rows := entry.Rows[:n]
		entry.Rows = entry.Rows[n:]
		return NewChunkFromRows(d.schema, rows)
	}
	return Chunk{}, ErrEndOfStream
}

func (d *Datasource) Close() error {
	d.closed = true
	return nil
}

func (d *Datasource) Closed() bool {
	return d.closed
}
