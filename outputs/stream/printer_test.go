package stream

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/datasources/memory"
	. "github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/execution/nodes"
	"github.com/chunkflow/chunkflow/outputs/formats"
)

func TestOutputPrinter(t *testing.T) {
	schema := NewSchema(Field{Name: "x", Type: chunkflow.Int})
	var rows [][]chunkflow.Value
	for i := 0; i < 5; i++ {
		rows = append(rows, []chunkflow.Value{chunkflow.NewInt(i)})
	}

	service := NewExecutionService()
	source, err := service.Add(nodes.NewSource("numbers", memory.NewDatasource(schema, rows), 2))
	require.NoError(t, err)
	reader, err := service.Reader(source)
	require.NoError(t, err)

	var buf bytes.Buffer
	printer := NewOutputPrinter(reader, formats.NewJSONFormatter(&buf))
	var written []int
	require.NoError(t, service.Observe(printer.Observe))
	require.NoError(t, service.Observe(func(RunStats) {
		written = append(written, bytes.Count(buf.Bytes(), []byte("\n")))
	}))
	require.NoError(t, service.Run(context.Background()))
	require.NoError(t, printer.Close())

	assert.Equal(t, "{\"x\":0}\n{\"x\":1}\n{\"x\":2}\n{\"x\":3}\n{\"x\":4}\n", buf.String())
	// Rows are written while the run is still in progress.
	assert.Equal(t, 2, written[0])
}
