package csv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mholt/archiver"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

func readAll(t *testing.T, provider *DatasourceExecuting, batchSize int) []execution.Chunk {
	var out []execution.Chunk
	for {
		chunk, err := provider.ReadBatch(context.Background(), batchSize)
		if errors.Is(err, execution.ErrEndOfStream) {
			break
		}
		require.NoError(t, err)
		out = append(out, chunk)
	}
	require.NoError(t, provider.Close())
	return out
}

func TestCreator_InfersSchema(t *testing.T) {
	table, err := Creator(context.Background(), "testdata/people.csv", Options{})
	require.NoError(t, err)

	assert.Equal(t, execution.NewSchema(
		execution.Field{Name: "id", Type: chunkflow.Int},
		execution.Field{Name: "name", Type: chunkflow.String},
		execution.Field{Name: "score", Type: chunkflow.Float},
		execution.Field{Name: "active", Type: chunkflow.Boolean},
		execution.Field{Name: "joined", Type: chunkflow.Time},
	), table.Schema())
}

func TestTable_OpenProjected(t *testing.T) {
	table, err := Creator(context.Background(), "testdata/people.csv", Options{})
	require.NoError(t, err)

	provider, err := table.Open(context.Background(), []string{"score", "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"score", "name"}, provider.Schema().Names())

	chunks := readAll(t, provider, 2)
	require.Len(t, chunks, 2)
	assert.Equal(t, [][]chunkflow.Value{
		{chunkflow.NewFloat(1.5), chunkflow.NewString("alice")},
		{chunkflow.NewFloat(2), chunkflow.NewString("bob")},
	}, chunks[0].Rows())
	assert.Equal(t, [][]chunkflow.Value{
		{chunkflow.NewFloat(7.25), chunkflow.NewNull()},
	}, chunks[1].Rows())

	_, err = table.Open(context.Background(), []string{"missing"})
	assert.True(t, errors.Is(err, execution.ErrColumnNotFound))
}

func TestTable_Dates(t *testing.T) {
	table, err := Creator(context.Background(), "testdata/people.csv", Options{})
	require.NoError(t, err)
	provider, err := table.Open(context.Background(), []string{"joined"})
	require.NoError(t, err)

	chunks := readAll(t, provider, 10)
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].Value(0, 0).Time.Equal(time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)))
}

func TestTable_TblFile(t *testing.T) {
	table, err := Creator(context.Background(), "testdata/nation.tbl", Options{
		Delimiter:   '|',
		ColumnNames: []string{"n_nationkey", "n_name", "n_regionkey", "n_comment"},
	})
	require.NoError(t, err)
	assert.Equal(t, chunkflow.Int, table.Schema().Fields[0].Type)

	provider, err := table.Open(context.Background(), []string{"n_name", "n_regionkey"})
	require.NoError(t, err)
	chunks := readAll(t, provider, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, [][]chunkflow.Value{
		{chunkflow.NewString("ALGERIA"), chunkflow.NewInt(0)},
		{chunkflow.NewString("ARGENTINA"), chunkflow.NewInt(1)},
		{chunkflow.NewString("BRAZIL"), chunkflow.NewInt(1)},
	}, chunks[0].Rows())
}

func TestTable_Gzipped(t *testing.T) {
	raw, err := os.ReadFile("testdata/people.csv")
	require.NoError(t, err)

	var compressed bytes.Buffer
	require.NoError(t, archiver.NewGz().Compress(bytes.NewReader(raw), &compressed))
	path := filepath.Join(t.TempDir(), "people.csv.gz")
	require.NoError(t, os.WriteFile(path, compressed.Bytes(), 0o644))

	table, err := Creator(context.Background(), path, Options{})
	require.NoError(t, err)
	provider, err := table.Open(context.Background(), nil)
	require.NoError(t, err)

	chunks := readAll(t, provider, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, 3, chunks[0].NumRows())
	assert.Equal(t, 5, chunks[0].NumColumns())
}

func TestTable_MalformedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n3\n"), 0o644))

	_, err := Creator(context.Background(), path, Options{})
	assert.Error(t, err)
}

func TestTable_InferenceRows(t *testing.T) {
	var data bytes.Buffer
	data.WriteString("n\n")
	for i := 0; i < DefaultInferenceRows+50; i++ {
		fmt.Fprintf(&data, "%d\n", i)
	}
	data.WriteString("1.5\n")
	path := filepath.Join(t.TempDir(), "numbers.csv")
	require.NoError(t, os.WriteFile(path, data.Bytes(), 0644))

	sampled, err := Creator(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, chunkflow.Int, sampled.Schema().Fields[0].Type)

	provider, err := sampled.Open(context.Background(), nil)
	require.NoError(t, err)
	_, err = provider.ReadBatch(context.Background(), 1000)
	assert.ErrorContains(t, err, "malformed value of Int column n in row 151")
	require.NoError(t, provider.Close())

	whole, err := Creator(context.Background(), path, Options{InferenceRows: -1})
	require.NoError(t, err)
	assert.Equal(t, chunkflow.Float, whole.Schema().Fields[0].Type)

	provider, err = whole.Open(context.Background(), nil)
	require.NoError(t, err)
	chunks := readAll(t, provider, 1000)
	require.Len(t, chunks, 1)
	assert.Equal(t, DefaultInferenceRows+51, chunks[0].NumRows())
	assert.Equal(t, chunkflow.NewFloat(1.5), chunks[0].Value(DefaultInferenceRows+50, 0))
}
