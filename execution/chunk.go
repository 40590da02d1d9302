package execution

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/chunkflow/chunkflow/chunkflow"
)

// DefaultBatchSize is the number of rows a source node reads per advance when
// no batch size is configured.
const DefaultBatchSize = 8192

type Field struct {
	Name string
	Type chunkflow.Type
}

type Schema struct {
	Fields []Field
}

func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// Index returns the position of the named field, or -1 if it's not present.
func (s Schema) Index(name string) int {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

func (s Schema) Field(name string) (Field, bool) {
	index := s.Index(name)
	if index == -1 {
		return Field{}, false
	}
	return s.Fields[index], true
}

func (s Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i := range s.Fields {
		out[i] = s.Fields[i].Name
	}
	return out
}

func (s Schema) Equal(other Schema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

func (s Schema) String() string {
	parts := make([]string, len(s.Fields))
	for i, field := range s.Fields {
		parts[i] = fmt.Sprintf("%s: %s", field.Name, field.Type)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Chunk is an immutable batch of rows stored column-major.
// Nodes must not modify the columns of a chunk they didn't create.
type Chunk struct {
	schema  Schema
	columns [][]chunkflow.Value
	rows    int
}

func NewChunk(schema Schema, columns [][]chunkflow.Value) (Chunk, error) {
	if len(columns) != len(schema.Fields) {
		return Chunk{}, errors.Errorf("schema has %d fields, got %d columns", len(schema.Fields), len(columns))
	}
	rows := 0
	if len(columns) > 0 {
		rows = len(columns[0])
	}
	for i := range columns {
		if len(columns[i]) != rows {
			return Chunk{}, errors.Errorf("column %s has %d rows, expected %d", schema.Fields[i].Name, len(columns[i]), rows)
		}
		for j := range columns[i] {
			if !schema.Fields[i].Type.Accepts(columns[i][j].Type()) {
				return Chunk{}, errors.Errorf("column %s of type %s got value %s of type %s", schema.Fields[i].Name, schema.Fields[i].Type, columns[i][j], columns[i][j].Type())
			}
		}
	}
	return Chunk{
		schema:  schema,
		columns: columns,
		rows:    rows,
	}, nil
}

func MustNewChunk(schema Schema, columns [][]chunkflow.Value) Chunk {
	chunk, err := NewChunk(schema, columns)
	if err != nil {
		panic(err)
	}
	return chunk
}

// NewChunkFromRows transposes row-major data into a chunk.
func NewChunkFromRows(schema Schema, rows [][]chunkflow.Value) (Chunk, error) {
	columns := make([][]chunkflow.Value, len(schema.Fields))
	for i := range columns {
		columns[i] = make([]chunkflow.Value, len(rows))
	}
	for rowIndex, row := range rows {
		if len(row) != len(schema.Fields) {
			return Chunk{}, errors.Errorf("row %d has %d values, expected %d", rowIndex, len(row), len(schema.Fields))
		}
		for i := range row {
			columns[i][rowIndex] = row[i]
		}
	}
	chunk, err := NewChunk(schema, columns)
	if err != nil {
		return Chunk{}, err
	}
	// Without columns the row count can't be derived from them.
	chunk.rows = len(rows)
	return chunk, nil
}

func EmptyChunk(schema Schema) Chunk {
	return Chunk{
		schema:  schema,
		columns: make([][]chunkflow.Value, len(schema.Fields)),
	}
}

func (c Chunk) Schema() Schema {
	return c.schema
}

func (c Chunk) NumRows() int {
	return c.rows
}

func (c Chunk) NumColumns() int {
	return len(c.columns)
}

func (c Chunk) Column(name string) ([]chunkflow.Value, error) {
	index := c.schema.Index(name)
	if index == -1 {
		return nil, errors.Wrapf(ErrColumnNotFound, "%s in %s", name, c.schema)
	}
	return c.columns[index], nil
}

func (c Chunk) ColumnAt(index int) []chunkflow.Value {
	return c.columns[index]
}

func (c Chunk) Value(row, column int) chunkflow.Value {
	return c.columns[column][row]
}

// Row returns a copy of the i-th row.
func (c Chunk) Row(i int) []chunkflow.Value {
	row := make([]chunkflow.Value, len(c.columns))
	for j := range c.columns {
		row[j] = c.columns[j][i]
	}
	return row
}

func (c Chunk) String() string {
	builder := &strings.Builder{}
	builder.WriteString(c.schema.String())
	for i := 0; i < c.rows; i++ {
		builder.WriteString("\n[")
		for j := range c.columns {
			if j > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(c.columns[j][i].String())
		}
		builder.WriteString("]")
	}
	return builder.String()
}
