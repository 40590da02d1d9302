package formats

import (
	"encoding/csv"
	"io"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

type CSVFormatter struct {
	writer *csv.Writer
}

func NewCSVFormatter(w io.Writer) Format {
	return &CSVFormatter{
		writer: csv.NewWriter(w),
	}
}

func (t *CSVFormatter) SetSchema(schema execution.Schema) {
	t.writer.Write(schema.Names())
}

func (t *CSVFormatter) Write(values []chunkflow.Value) error {
	row := make([]string, len(values))
	for i := range values {
		row[i] = rawString(values[i])
	}
	return t.writer.Write(row)
}

func (t *CSVFormatter) Close() error {
	t.writer.Flush()
	return t.writer.Error()
}
