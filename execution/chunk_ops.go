package execution

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/chunkflow/chunkflow/chunkflow"
)

// Filter keeps the rows for which mask is true.
func (c Chunk) Filter(mask []bool) (Chunk, error) {
	if len(mask) != c.rows {
		return Chunk{}, errors.Errorf("filter mask has %d entries, chunk has %d rows", len(mask), c.rows)
	}
	count := 0
	for i := range mask {
		if mask[i] {
			count++
		}
	}
	if count == c.rows {
		return c, nil
	}

	columns := make([][]chunkflow.Value, len(c.columns))
	for j := range c.columns {
		columns[j] = make([]chunkflow.Value, 0, count)
		for i := range mask {
			if mask[i] {
				columns[j] = append(columns[j], c.columns[j][i])
			}
		}
	}
	return Chunk{
		schema:  c.schema,
		columns: columns,
		rows:    count,
	}, nil
}

// Select projects the chunk onto the named columns, in the given order.
func (c Chunk) Select(names ...string) (Chunk, error) {
	fields := make([]Field, len(names))
	columns := make([][]chunkflow.Value, len(names))
	for i, name := range names {
		index := c.schema.Index(name)
		if index == -1 {
			return Chunk{}, errors.Wrapf(ErrColumnNotFound, "%s in %s", name, c.schema)
		}
		fields[i] = c.schema.Fields[index]
		columns[i] = c.columns[index]
	}
	return Chunk{
		schema:  Schema{Fields: fields},
		columns: columns,
		rows:    c.rows,
	}, nil
}

// WithColumn returns a chunk with the given column appended,
// or replacing an existing column with the same name.
func (c Chunk) WithColumn(field Field, values []chunkflow.Value) (Chunk, error) {
	if len(c.columns) > 0 && len(values) != c.rows {
		return Chunk{}, errors.Errorf("column %s has %d rows, expected %d", field.Name, len(values), c.rows)
	}
	for i := range values {
		if !field.Type.Accepts(values[i].Type()) {
			return Chunk{}, errors.Errorf("column %s of type %s got value %s of type %s", field.Name, field.Type, values[i], values[i].Type())
		}
	}

	fields := make([]Field, len(c.schema.Fields), len(c.schema.Fields)+1)
	copy(fields, c.schema.Fields)
	columns := make([][]chunkflow.Value, len(c.columns), len(c.columns)+1)
	copy(columns, c.columns)

	if index := c.schema.Index(field.Name); index != -1 {
		fields[index] = field
		columns[index] = values
	} else {
		fields = append(fields, field)
		columns = append(columns, values)
	}
	return Chunk{
		schema:  Schema{Fields: fields},
		columns: columns,
		rows:    len(values),
	}, nil
}

// MapColumn computes a new column by applying fn to every row.
func (c Chunk) MapColumn(field Field, fn func(row []chunkflow.Value) (chunkflow.Value, error)) (Chunk, error) {
	values := make([]chunkflow.Value, c.rows)
	row := make([]chunkflow.Value, len(c.columns))
	for i := 0; i < c.rows; i++ {
		for j := range c.columns {
			row[j] = c.columns[j][i]
		}
		value, err := fn(row)
		if err != nil {
			return Chunk{}, errors.Wrapf(err, "couldn't compute column %s for row %d", field.Name, i)
		}
		values[i] = value
	}
	return c.WithColumn(field, values)
}

// Concat stacks chunks with equal schemas on top of each other.
func Concat(chunks ...Chunk) (Chunk, error) {
	if len(chunks) == 0 {
		return Chunk{}, errors.New("no chunks to concatenate")
	}
	schema := chunks[0].schema
	rows := 0
	for i := range chunks {
		if !chunks[i].schema.Equal(schema) {
			return Chunk{}, errors.Errorf("schema mismatch: %s and %s", schema, chunks[i].schema)
		}
		rows += chunks[i].rows
	}

	columns := make([][]chunkflow.Value, len(schema.Fields))
	for j := range columns {
		columns[j] = make([]chunkflow.Value, 0, rows)
		for i := range chunks {
			columns[j] = append(columns[j], chunks[i].columns[j]...)
		}
	}
	return Chunk{
		schema:  schema,
		columns: columns,
		rows:    rows,
	}, nil
}

// SortBy returns a copy of the chunk with rows stably ordered by the given column.
func (c Chunk) SortBy(name string, descending bool) (Chunk, error) {
	index := c.schema.Index(name)
	if index == -1 {
		return Chunk{}, errors.Wrapf(ErrColumnNotFound, "%s in %s", name, c.schema)
	}
	order := make([]int, c.rows)
	for i := range order {
		order[i] = i
	}
	key := c.columns[index]
	sort.SliceStable(order, func(i, j int) bool {
		cmp := key[order[i]].Compare(key[order[j]])
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})

	columns := make([][]chunkflow.Value, len(c.columns))
	for j := range c.columns {
		columns[j] = make([]chunkflow.Value, c.rows)
		for i, from := range order {
			columns[j][i] = c.columns[j][from]
		}
	}
	return Chunk{
		schema:  c.schema,
		columns: columns,
		rows:    c.rows,
	}, nil
}

// Rows returns the chunk in row-major form.
func (c Chunk) Rows() [][]chunkflow.Value {
	out := make([][]chunkflow.Value, c.rows)
	for i := range out {
		out[i] = c.Row(i)
	}
	return out
}

// Head returns the first n rows of the chunk.
func (c Chunk) Head(n int) Chunk {
	if n < 0 || n >= c.rows {
		return c
	}
	columns := make([][]chunkflow.Value, len(c.columns))
	for j := range c.columns {
		columns[j] = c.columns[j][:n:n]
	}
	return Chunk{
		schema:  c.schema,
		columns: columns,
		rows:    n,
	}
}

// Rename returns the chunk with a column renamed.
func (c Chunk) Rename(from, to string) (Chunk, error) {
	index := c.schema.Index(from)
	if index == -1 {
		return Chunk{}, errors.Wrapf(ErrColumnNotFound, "%s in %s", from, c.schema)
	}
	if from != to && c.schema.Index(to) != -1 {
		return Chunk{}, errors.Errorf("column %s already exists", to)
	}
	fields := make([]Field, len(c.schema.Fields))
	copy(fields, c.schema.Fields)
	fields[index].Name = to
	return Chunk{
		schema:  Schema{Fields: fields},
		columns: c.columns,
		rows:    c.rows,
	}, nil
}
