package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/chunkflow/chunkflow/chunkflow"
	. "github.com/chunkflow/chunkflow/execution"
)

type DatasourceExecuting struct {
	file       io.ReadCloser
	decoder    *csv.Reader
	allColumns int
	indices    []int
	schema     Schema
	line       int
	done       bool
}

func (d *DatasourceExecuting) Schema() Schema {
	return d.schema
}

func (d *DatasourceExecuting) ReadBatch(ctx context.Context, maxRows int) (Chunk, error) {
	if d.done {
		return Chunk{}, ErrEndOfStream
	}

	columns := make([][]chunkflow.Value, len(d.indices))
	for i := range columns {
		columns[i] = make([]chunkflow.Value, 0, maxRows)
	}
	for rows := 0; rows < maxRows; rows++ {
		row, err := d.decoder.Read()
		if err == io.EOF {
			d.done = true
			break
		} else if err != nil {
			return Chunk{}, fmt.Errorf("couldn't decode row: %w", err)
		}
		d.line++
		row, err = trimRow(row, d.allColumns)
		if err != nil {
			return Chunk{}, fmt.Errorf("malformed row %d: %w", d.line, err)
		}

		for i, index := range d.indices {
			value, err := parseValue(d.schema.Fields[i].Type, row[index])
			if err != nil {
				return Chunk{}, fmt.Errorf("malformed value of %s column %s in row %d: %w", d.schema.Fields[i].Type, d.schema.Fields[i].Name, d.line, err)
			}
			columns[i] = append(columns[i], value)
		}
	}

	if d.done && len(columns) > 0 && len(columns[0]) == 0 {
		return Chunk{}, ErrEndOfStream
	}
	return NewChunk(d.schema, columns)
}

func (d *DatasourceExecuting) Close() error {
	return d.file.Close()
}
