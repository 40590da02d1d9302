package nodes

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/datasources/memory"
	. "github.com/chunkflow/chunkflow/execution"
)

func row(values ...interface{}) []chunkflow.Value {
	out := make([]chunkflow.Value, len(values))
	for i := range values {
		value, err := chunkflow.FromRawGoValue(values[i])
		if err != nil {
			panic(err)
		}
		out[i] = value
	}
	return out
}

func rows(values ...[]chunkflow.Value) [][]chunkflow.Value {
	return values
}

func chunked(batches ...[][]chunkflow.Value) []memory.Entry {
	out := make([]memory.Entry, len(batches))
	for i := range batches {
		out[i] = memory.Entry{Rows: batches[i]}
	}
	return out
}

func addNode(t *testing.T, service *ExecutionService, node Node, inputs ...NodeID) NodeID {
	t.Helper()
	id, err := service.Add(node)
	require.NoError(t, err)
	for i, input := range inputs {
		require.NoError(t, service.Subscribe(id, input, i))
	}
	return id
}

func runAndRead(t *testing.T, service *ExecutionService, terminal NodeID) []Chunk {
	t.Helper()
	reader, err := service.Reader(terminal)
	require.NoError(t, err)
	require.NoError(t, service.Run(context.Background()))
	chunks := reader.Chunks()
	require.True(t, reader.Closed())
	return chunks
}

func allRows(chunks []Chunk) [][]chunkflow.Value {
	var out [][]chunkflow.Value
	for _, chunk := range chunks {
		out = append(out, chunk.Rows()...)
	}
	return out
}

// sortedRows orders rows so that row multisets can be compared.
func sortedRows(in [][]chunkflow.Value) [][]chunkflow.Value {
	out := make([][]chunkflow.Value, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return CompareValueSlices(out[i], out[j]) < 0
	})
	return out
}
