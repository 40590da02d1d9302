package datasources

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/execution/nodes"
)

func TestTableInput_FormatOrDefault(t *testing.T) {
	tests := []struct {
		input TableInput
		want  string
	}{
		{TableInput{Path: "data/lineitem.tbl"}, FormatTbl},
		{TableInput{Path: "data/lineitem.tbl.gz"}, FormatTbl},
		{TableInput{Path: "events.jsonl"}, FormatJSON},
		{TableInput{Path: "bikes.parquet"}, FormatParquet},
		{TableInput{Path: "people.csv"}, FormatCSV},
		{TableInput{Path: "people.txt", Format: FormatTbl}, FormatTbl},
	}
	for _, tt := range tests {
		t.Run(tt.input.Path, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.FormatOrDefault())
		})
	}
}

func TestCatalog_Register(t *testing.T) {
	catalog, err := NewCatalog(zerolog.Nop(), TableInput{Name: "amounts", Path: "testdata/amounts.csv"})
	require.NoError(t, err)

	assert.Error(t, catalog.Register(TableInput{Name: "amounts", Path: "testdata/amounts.csv"}))
	assert.Error(t, catalog.Register(TableInput{Name: "nopath"}))
	assert.Error(t, catalog.Register(TableInput{Name: "pg", Format: FormatPostgres}))
	assert.Error(t, catalog.Register(TableInput{Name: "weird", Path: "x", Format: "xml"}))
	assert.Len(t, catalog.Tables(), 1)
}

func TestBuildSourceNode(t *testing.T) {
	ctx := context.Background()
	catalog, err := NewCatalog(zerolog.Nop(), TableInput{Name: "amounts", Path: "testdata/amounts.csv"})
	require.NoError(t, err)

	service := execution.NewExecutionService()
	source, err := BuildSourceNode(ctx, service, catalog, "amounts", []string{"g", "amt"}, 2)
	require.NoError(t, err)

	accumulator, err := nodes.NewGroupAccumulator().GroupKey("g").Aggregate("amt", "sum").Build()
	require.NoError(t, err)
	grouped, err := service.Add(accumulator)
	require.NoError(t, err)
	require.NoError(t, service.Subscribe(grouped, source, 0))
	reader, err := service.Reader(grouped)
	require.NoError(t, err)

	require.NoError(t, service.Run(ctx))
	result, ok := reader.Last()
	require.True(t, ok)
	assert.Equal(t, [][]chunkflow.Value{
		{chunkflow.NewInt(1), chunkflow.NewInt(13)},
		{chunkflow.NewInt(2), chunkflow.NewInt(5)},
	}, result.Rows())
}

func TestCatalog_OpenErrors(t *testing.T) {
	ctx := context.Background()
	catalog, err := NewCatalog(zerolog.Nop(),
		TableInput{Name: "amounts", Path: "testdata/amounts.csv"},
		TableInput{Name: "missing", Path: "testdata/missing.csv"},
	)
	require.NoError(t, err)

	var sourceErr *execution.SourceReadError
	_, err = catalog.Open(ctx, "amounts", []string{"nope"})
	require.True(t, errors.As(err, &sourceErr))
	assert.True(t, errors.Is(err, execution.ErrColumnNotFound))

	_, err = catalog.Open(ctx, "missing", nil)
	assert.True(t, errors.As(err, &sourceErr))

	_, err = catalog.Open(ctx, "unknown", nil)
	assert.Error(t, err)
}
