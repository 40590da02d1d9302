package execution

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/chunkflow"
)

var testSchema = NewSchema(
	Field{Name: "id", Type: chunkflow.Int},
	Field{Name: "name", Type: chunkflow.String},
)

func testChunk(t *testing.T) Chunk {
	chunk, err := NewChunkFromRows(testSchema, [][]chunkflow.Value{
		{chunkflow.NewInt(3), chunkflow.NewString("c")},
		{chunkflow.NewInt(1), chunkflow.NewString("a")},
		{chunkflow.NewInt(2), chunkflow.NewNull()},
	})
	require.NoError(t, err)
	return chunk
}

func TestNewChunk_Validation(t *testing.T) {
	_, err := NewChunk(testSchema, [][]chunkflow.Value{{chunkflow.NewInt(1)}})
	assert.Error(t, err, "column count")

	_, err = NewChunk(testSchema, [][]chunkflow.Value{
		{chunkflow.NewInt(1)},
		{chunkflow.NewString("a"), chunkflow.NewString("b")},
	})
	assert.Error(t, err, "row count")

	_, err = NewChunk(testSchema, [][]chunkflow.Value{
		{chunkflow.NewString("1")},
		{chunkflow.NewString("a")},
	})
	assert.Error(t, err, "type")

	chunk, err := NewChunk(testSchema, [][]chunkflow.Value{
		{chunkflow.NewNull()},
		{chunkflow.NewString("a")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, chunk.NumRows())
}

func TestChunk_Column(t *testing.T) {
	chunk := testChunk(t)

	ids, err := chunk.Column("id")
	require.NoError(t, err)
	assert.Equal(t, []chunkflow.Value{chunkflow.NewInt(3), chunkflow.NewInt(1), chunkflow.NewInt(2)}, ids)

	_, err = chunk.Column("missing")
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestChunk_Filter(t *testing.T) {
	chunk := testChunk(t)

	filtered, err := chunk.Filter([]bool{false, true, true})
	require.NoError(t, err)
	assert.Equal(t, [][]chunkflow.Value{
		{chunkflow.NewInt(1), chunkflow.NewString("a")},
		{chunkflow.NewInt(2), chunkflow.NewNull()},
	}, filtered.Rows())
	assert.Equal(t, 3, chunk.NumRows())

	empty, err := chunk.Filter([]bool{false, false, false})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumRows())
	assert.Equal(t, testSchema, empty.Schema())

	_, err = chunk.Filter([]bool{true})
	assert.Error(t, err)
}

func TestChunk_SelectAndWithColumn(t *testing.T) {
	chunk := testChunk(t)

	selected, err := chunk.Select("name", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "id"}, selected.Schema().Names())

	_, err = chunk.Select("missing")
	assert.True(t, errors.Is(err, ErrColumnNotFound))

	withFlag, err := chunk.WithColumn(Field{Name: "flag", Type: chunkflow.Boolean}, []chunkflow.Value{
		chunkflow.NewBoolean(true), chunkflow.NewBoolean(false), chunkflow.NewBoolean(true),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "flag"}, withFlag.Schema().Names())
	assert.Equal(t, []string{"id", "name"}, chunk.Schema().Names())

	replaced, err := chunk.MapColumn(Field{Name: "id", Type: chunkflow.Int}, func(row []chunkflow.Value) (chunkflow.Value, error) {
		return chunkflow.NewInt(row[0].Int * 10), nil
	})
	require.NoError(t, err)
	ids, err := replaced.Column("id")
	require.NoError(t, err)
	assert.Equal(t, []chunkflow.Value{chunkflow.NewInt(30), chunkflow.NewInt(10), chunkflow.NewInt(20)}, ids)

	_, err = chunk.WithColumn(Field{Name: "short", Type: chunkflow.Int}, []chunkflow.Value{chunkflow.NewInt(1)})
	assert.Error(t, err)
}

func TestChunk_ConcatAndSort(t *testing.T) {
	chunk := testChunk(t)

	concatenated, err := Concat(chunk, chunk)
	require.NoError(t, err)
	assert.Equal(t, 6, concatenated.NumRows())

	sorted, err := concatenated.SortBy("id", false)
	require.NoError(t, err)
	ids, err := sorted.Column("id")
	require.NoError(t, err)
	assert.Equal(t, []chunkflow.Value{
		chunkflow.NewInt(1), chunkflow.NewInt(1),
		chunkflow.NewInt(2), chunkflow.NewInt(2),
		chunkflow.NewInt(3), chunkflow.NewInt(3),
	}, ids)

	descending, err := chunk.SortBy("id", true)
	require.NoError(t, err)
	assert.Equal(t, chunkflow.NewInt(3), descending.Value(0, 0))
	assert.Equal(t, chunkflow.NewInt(1), descending.Value(2, 0))

	other, err := chunk.Select("id")
	require.NoError(t, err)
	_, err = Concat(chunk, other)
	assert.Error(t, err)
}

func TestChunk_HeadAndRename(t *testing.T) {
	chunk := testChunk(t)

	head := chunk.Head(2)
	assert.Equal(t, 2, head.NumRows())
	assert.Equal(t, chunkflow.NewInt(1), head.Value(1, 0))
	assert.Equal(t, 3, chunk.Head(10).NumRows())

	renamed, err := chunk.Rename("name", "label")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "label"}, renamed.Schema().Names())
	assert.Equal(t, []string{"id", "name"}, chunk.Schema().Names())

	_, err = chunk.Rename("name", "id")
	assert.Error(t, err)
	_, err = chunk.Rename("missing", "x")
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestNewChunkFromRows_NoColumns(t *testing.T) {
	chunk, err := NewChunkFromRows(NewSchema(), [][]chunkflow.Value{{}})
	require.NoError(t, err)
	assert.Equal(t, 1, chunk.NumRows())
	assert.Equal(t, [][]chunkflow.Value{{}}, chunk.Rows())

	empty, err := NewChunkFromRows(NewSchema(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumRows())
}
