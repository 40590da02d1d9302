package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chunkflow/chunkflow/execution"
)

func TestProgressPrinter(t *testing.T) {
	var out bytes.Buffer
	printer := newProgressPrinter(&out)

	printer.Observe(execution.RunStats{
		RunID: "run",
		Pass:  3,
		Nodes: []execution.NodeStats{
			{Name: "orders_0", Kind: execution.KindSource, ChunksOut: 2, RowsOut: 10, Done: true},
			{Name: "group_1", Kind: execution.KindAccumulator, ChunksIn: 2, ChunksOut: 1, RowsOut: 1, Done: true},
		},
	})

	assert.Contains(t, out.String(), "run run, pass 3")
	assert.Contains(t, out.String(), "orders_0")
	assert.Contains(t, out.String(), "group_1")
}
