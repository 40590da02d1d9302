package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx"

	"github.com/chunkflow/chunkflow/chunkflow"
	. "github.com/chunkflow/chunkflow/execution"
)

type DatasourceExecuting struct {
	db     *pgx.Conn
	rows   *pgx.Rows
	schema Schema
	done   bool
}

func (d *DatasourceExecuting) Schema() Schema {
	return d.schema
}

func (d *DatasourceExecuting) ReadBatch(ctx context.Context, maxRows int) (Chunk, error) {
	if d.done {
		return Chunk{}, ErrEndOfStream
	}

	columns := make([][]chunkflow.Value, len(d.schema.Fields))
	rows := 0
	for rows < maxRows {
		if !d.rows.Next() {
			d.done = true
			if err := d.rows.Err(); err != nil {
				return Chunk{}, fmt.Errorf("couldn't read rows: %w", err)
			}
			break
		}
		raw, err := d.rows.Values()
		if err != nil {
			return Chunk{}, fmt.Errorf("couldn't scan values: %w", err)
		}
		for i := range columns {
			value, err := getValue(raw[i])
			if err != nil {
				return Chunk{}, fmt.Errorf("column %s: %w", d.schema.Fields[i].Name, err)
			}
			columns[i] = append(columns[i], value)
		}
		rows++
	}
	if rows == 0 {
		return Chunk{}, ErrEndOfStream
	}
	return NewChunk(d.schema, columns)
}

func getValue(raw interface{}) (chunkflow.Value, error) {
	value, err := chunkflow.FromRawGoValue(raw)
	if err != nil {
		return chunkflow.ZeroValue, fmt.Errorf("couldn't convert value: %w", err)
	}
	return value, nil
}

func (d *DatasourceExecuting) Close() error {
	d.rows.Close()
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("couldn't close database: %w", err)
	}
	return nil
}
