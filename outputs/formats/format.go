package formats

import (
	"fmt"
	"io"
	"time"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

type Format interface {
	SetSchema(execution.Schema)
	Write([]chunkflow.Value) error
	Close() error
}

// NewFormat returns the constructor of the named output format.
func NewFormat(name string) (func(io.Writer) Format, error) {
	switch name {
	case "", "table":
		return NewTableFormatter, nil
	case "csv":
		return NewCSVFormatter, nil
	case "json":
		return NewJSONFormatter, nil
	}
	return nil, fmt.Errorf("unknown output format '%s', expected table, csv or json", name)
}

// WriteChunks sets the schema of the first chunk and writes the rows of all of them.
func WriteChunks(format Format, chunks ...execution.Chunk) error {
	if len(chunks) == 0 {
		return format.Close()
	}
	format.SetSchema(chunks[0].Schema())
	for _, chunk := range chunks {
		for row := 0; row < chunk.NumRows(); row++ {
			if err := format.Write(chunk.Row(row)); err != nil {
				return fmt.Errorf("couldn't write row %d: %w", row, err)
			}
		}
	}
	return format.Close()
}

func rawString(value chunkflow.Value) string {
	switch value.TypeID {
	case chunkflow.TypeIDNull:
		return ""
	case chunkflow.TypeIDString:
		return value.Str
	case chunkflow.TypeIDTime:
		return value.Time.Format(time.RFC3339)
	}
	return fmt.Sprintf("%v", value.ToRawGoValue())
}
