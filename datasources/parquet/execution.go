package parquet

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/segmentio/parquet-go"

	"github.com/chunkflow/chunkflow/chunkflow"
	. "github.com/chunkflow/chunkflow/execution"
)

type DatasourceExecuting struct {
	file   *os.File
	reader *parquet.Reader
	// positions maps leaf column indices to output columns.
	positions map[int]int
	schema    Schema
	row       parquet.Row
}

func (d *DatasourceExecuting) Schema() Schema {
	return d.schema
}

func (d *DatasourceExecuting) ReadBatch(ctx context.Context, maxRows int) (Chunk, error) {
	columns := make([][]chunkflow.Value, len(d.schema.Fields))
	rows := 0
	for rows < maxRows {
		row, err := d.reader.ReadRow(d.row[:0])
		if err == io.EOF {
			break
		} else if err != nil {
			return Chunk{}, fmt.Errorf("couldn't read row: %w", err)
		}
		d.row = row

		values := make([]chunkflow.Value, len(d.schema.Fields))
		for _, value := range row {
			if position, ok := d.positions[value.Column()]; ok {
				values[position] = getValue(value)
			}
		}
		for i := range values {
			columns[i] = append(columns[i], values[i])
		}
		rows++
	}
	if rows == 0 {
		return Chunk{}, ErrEndOfStream
	}
	return NewChunk(d.schema, columns)
}

func getValue(src parquet.Value) chunkflow.Value {
	if src.IsNull() {
		return chunkflow.NewNull()
	}

	switch src.Kind() {
	case parquet.Boolean:
		return chunkflow.NewBoolean(src.Boolean())
	case parquet.Int32:
		return chunkflow.NewInt(int(src.Int32()))
	case parquet.Int64:
		return chunkflow.NewInt(int(src.Int64()))
	case parquet.Int96:
		return chunkflow.NewString(src.Int96().String())
	case parquet.Float:
		return chunkflow.NewFloat(float64(src.Float()))
	case parquet.Double:
		return chunkflow.NewFloat(src.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return chunkflow.NewString(string(src.ByteArray()))
	}
	return chunkflow.NewNull()
}

func (d *DatasourceExecuting) Close() error {
	return d.file.Close()
}
