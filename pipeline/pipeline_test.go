package pipeline

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/datasources"
	"github.com/chunkflow/chunkflow/execution"
)

func build(t *testing.T, pipeline *Pipeline) (*execution.ExecutionService, *execution.NodeReader, error) {
	catalog, err := datasources.NewCatalog(zerolog.Nop())
	require.NoError(t, err)
	service := execution.NewExecutionService()
	reader, err := pipeline.Build(context.Background(), service, catalog, Options{})
	return service, reader, err
}

func TestPipeline_Revenue(t *testing.T) {
	pipeline, err := Read("testdata/revenue.yml")
	require.NoError(t, err)

	service, reader, err := build(t, pipeline)
	require.NoError(t, err)
	require.NoError(t, service.Run(context.Background()))

	result, ok := reader.Last()
	require.True(t, ok)
	assert.Equal(t, []string{"c_name", "discounted_sum", "discounted_count"}, result.Schema().Names())
	assert.Equal(t, [][]chunkflow.Value{
		{chunkflow.NewString("alice"), chunkflow.NewFloat(50.25), chunkflow.NewInt(1)},
		{chunkflow.NewString("carol"), chunkflow.NewFloat(25), chunkflow.NewInt(1)},
	}, result.Rows())
}

func TestPipeline_DefaultOutputAndSelect(t *testing.T) {
	pipeline, err := Parse([]byte(`
tables:
  - name: customers
    path: testdata/customers.csv
nodes:
  - name: customers
    type: source
    table: customers
  - name: keyed
    type: map
    inputs: [customers]
    column: label
    as: string
    expr: c_name + "@" + c_nation
  - name: labels
    type: select
    inputs: [keyed]
    columns: [label]
`))
	require.NoError(t, err)

	service, reader, err := build(t, pipeline)
	require.NoError(t, err)
	require.NoError(t, service.Run(context.Background()))

	var rows [][]chunkflow.Value
	for _, chunk := range reader.Chunks() {
		rows = append(rows, chunk.Rows()...)
	}
	assert.Equal(t, [][]chunkflow.Value{
		{chunkflow.NewString("alice@PL")},
		{chunkflow.NewString("bob@DE")},
		{chunkflow.NewString("carol@PL")},
	}, rows)
}

func TestPipeline_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown node type",
			yaml: `
nodes:
  - name: x
    type: teleport
`,
		},
		{
			name: "duplicate name",
			yaml: `
tables:
  - name: customers
    path: testdata/customers.csv
nodes:
  - name: x
    type: source
    table: customers
  - name: x
    type: source
    table: customers
`,
		},
		{
			name: "unknown input",
			yaml: `
nodes:
  - name: x
    type: filter
    inputs: [nope]
    expr: "true"
`,
		},
		{
			name: "wrong input count",
			yaml: `
tables:
  - name: customers
    path: testdata/customers.csv
nodes:
  - name: customers
    type: source
    table: customers
  - name: joined
    type: join
    inputs: [customers]
    leftOn: c_custkey
    rightOn: c_custkey
`,
		},
		{
			name: "map without type",
			yaml: `
nodes:
  - name: x
    type: map
    column: y
    expr: "1"
`,
		},
		{
			name: "unknown aggregate",
			yaml: `
nodes:
  - name: x
    type: group
    aggregates:
      - column: a
        functions: [median]
`,
		},
		{
			name: "join without keys",
			yaml: `
nodes:
  - name: x
    type: join
    leftOn: []
    rightOn: []
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)

			_, _, err = build(t, pipeline)
			var configErr *execution.ConfigurationError
			assert.True(t, errors.As(err, &configErr), "got %v", err)
		})
	}
}

func TestPipeline_UnknownColumnFailsValidation(t *testing.T) {
	pipeline, err := Parse([]byte(`
tables:
  - name: customers
    path: testdata/customers.csv
nodes:
  - name: customers
    type: source
    table: customers
  - name: rich
    type: filter
    inputs: [customers]
    expr: c_balance > 100
`))
	require.NoError(t, err)

	service, _, err := build(t, pipeline)
	require.NoError(t, err)

	var configErr *execution.ConfigurationError
	err = service.Validate()
	require.True(t, errors.As(err, &configErr), "got %v", err)
	assert.Equal(t, "rich", configErr.Node)
}

func TestPipeline_EvaluationFault(t *testing.T) {
	pipeline, err := Parse([]byte(`
tables:
  - name: customers
    path: testdata/customers.csv
nodes:
  - name: customers
    type: source
    table: customers
  - name: broken
    type: map
    inputs: [customers]
    column: ratio
    as: int
    expr: c_custkey % (c_custkey - c_custkey)
`))
	require.NoError(t, err)

	service, _, err := build(t, pipeline)
	require.NoError(t, err)

	var computationErr *execution.ComputationError
	err = service.Run(context.Background())
	require.True(t, errors.As(err, &computationErr), "got %v", err)
	assert.Equal(t, "broken", computationErr.Node)
}

func TestParse_NoNodes(t *testing.T) {
	_, err := Parse([]byte("tables: []\n"))
	assert.Error(t, err)
}
