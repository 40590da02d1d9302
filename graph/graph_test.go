package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/datasources/memory"
	"github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/execution/nodes"
)

func TestShow_SharedChild(t *testing.T) {
	source := NewNode("source")
	source.AddField("table", strings.Repeat("very_long_table_name ", 4))
	left := NewNode("filter")
	left.AddChild("input_0", source)
	right := NewNode("filter")
	right.AddChild("input_0", source)
	join := NewNode("join")
	join.AddChild("left", left)
	join.AddChild("right", right)

	graph, err := Show(join)
	require.NoError(t, err)
	out := graph.String()

	assert.Equal(t, 1, strings.Count(out, "source_0 ["))
	assert.Contains(t, out, "filter_0")
	assert.Contains(t, out, "filter_1")
	assert.Contains(t, out, "join_0:left->filter_0")
	assert.Contains(t, out, "\\n")
}

func TestExplain(t *testing.T) {
	schema := execution.NewSchema(
		execution.Field{Name: "k", Type: chunkflow.Int},
		execution.Field{Name: "v", Type: chunkflow.String},
	)
	service := execution.NewExecutionService()
	left, err := service.AddNamed("orders", nodes.NewSource("orders", memory.NewDatasource(schema, nil), 10))
	require.NoError(t, err)
	right, err := service.AddNamed("customers", nodes.NewSource("customers", memory.NewDatasource(schema, nil), 10))
	require.NoError(t, err)
	joinNode, err := nodes.NewHashJoinBuilder().LeftOn("k").RightOn("k").Build()
	require.NoError(t, err)
	join, err := service.AddNamed("join", joinNode)
	require.NoError(t, err)
	require.NoError(t, service.Subscribe(join, left, 0))
	require.NoError(t, service.Subscribe(join, right, 1))
	_, err = service.Reader(join)
	require.NoError(t, err)

	out, err := Explain(service)
	require.NoError(t, err)

	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "join_0:left->orders_0")
	assert.Contains(t, out, "join_0:right->customers_0")
	assert.Contains(t, out, "schema: k, v, v_right")
	assert.Contains(t, out, "left_on: k")
	assert.Contains(t, out, "output: reader")
}
