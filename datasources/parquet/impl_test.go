package parquet

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

type bike struct {
	ID     int64   `parquet:"id"`
	Wheels int32   `parquet:"wheels"`
	Price  float64 `parquet:"price"`
	Color  string  `parquet:"color"`
}

func writeBikes(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "bikes.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := parquet.NewWriter(f)
	for _, b := range []bike{
		{ID: 1, Wheels: 3, Price: 10.5, Color: "green"},
		{ID: 2, Wheels: 2, Price: 20, Color: "black"},
		{ID: 3, Wheels: 2, Price: 7.25, Color: "purple"},
	} {
		require.NoError(t, w.Write(b))
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestTable_Read(t *testing.T) {
	path := writeBikes(t)

	table, err := Creator(context.Background(), path)
	require.NoError(t, err)

	field, ok := table.Schema().Field("wheels")
	require.True(t, ok)
	assert.Equal(t, chunkflow.Int, field.Type)
	field, ok = table.Schema().Field("color")
	require.True(t, ok)
	assert.Equal(t, chunkflow.String, field.Type)

	provider, err := table.Open(context.Background(), []string{"color", "id", "price"})
	require.NoError(t, err)

	first, err := provider.ReadBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, [][]chunkflow.Value{
		{chunkflow.NewString("green"), chunkflow.NewInt(1), chunkflow.NewFloat(10.5)},
		{chunkflow.NewString("black"), chunkflow.NewInt(2), chunkflow.NewFloat(20)},
	}, first.Rows())

	second, err := provider.ReadBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, second.NumRows())

	_, err = provider.ReadBatch(context.Background(), 2)
	assert.True(t, errors.Is(err, execution.ErrEndOfStream))
	require.NoError(t, provider.Close())

	_, err = table.Open(context.Background(), []string{"missing"})
	assert.True(t, errors.Is(err, execution.ErrColumnNotFound))
}
