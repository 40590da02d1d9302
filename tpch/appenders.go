package tpch

import (
	"fmt"
	"time"

	"github.com/chunkflow/chunkflow/chunkflow"
	. "github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/execution/nodes"
)

// where keeps the rows for which predicate holds. The predicate gets the values of the listed columns.
func where(columns []string, predicate func(values []chunkflow.Value) bool) *nodes.AppenderNode {
	return nodes.NewAppenderNode(nodes.MapAppender(func(chunk Chunk) (Chunk, error) {
		indices, err := columnIndices(chunk.Schema(), columns)
		if err != nil {
			return Chunk{}, err
		}
		values := make([]chunkflow.Value, len(indices))
		mask := make([]bool, chunk.NumRows())
		for row := range mask {
			for i, index := range indices {
				values[i] = chunk.Value(row, index)
			}
			mask[row] = predicate(values)
		}
		return chunk.Filter(mask)
	})).WithSchema(func(input Schema) (Schema, error) {
		if _, err := columnIndices(input, columns); err != nil {
			return Schema{}, err
		}
		return input, nil
	})
}

// revenue appends extendedprice * (1 - discount) as a float column.
func revenue(name, extendedPrice, discount string) *nodes.AppenderNode {
	field := Field{Name: name, Type: chunkflow.Float}
	return nodes.NewAppenderNode(nodes.MapAppender(func(chunk Chunk) (Chunk, error) {
		indices, err := columnIndices(chunk.Schema(), []string{extendedPrice, discount})
		if err != nil {
			return Chunk{}, err
		}
		return chunk.MapColumn(field, func(row []chunkflow.Value) (chunkflow.Value, error) {
			price, ok1 := number(row[indices[0]])
			disc, ok2 := number(row[indices[1]])
			if !ok1 || !ok2 {
				return chunkflow.NewNull(), nil
			}
			return chunkflow.NewFloat(price * (1 - disc)), nil
		})
	}))
}

// asFloat appends a float copy of a numeric column.
func asFloat(name, column string) *nodes.AppenderNode {
	field := Field{Name: name, Type: chunkflow.Float}
	return nodes.NewAppenderNode(nodes.MapAppender(func(chunk Chunk) (Chunk, error) {
		index := chunk.Schema().Index(column)
		if index == -1 {
			return Chunk{}, fmt.Errorf("couldn't cast %s: %w", column, ErrColumnNotFound)
		}
		return chunk.MapColumn(field, func(row []chunkflow.Value) (chunkflow.Value, error) {
			value, ok := number(row[index])
			if !ok {
				return chunkflow.NewNull(), nil
			}
			return chunkflow.NewFloat(value), nil
		})
	}))
}

// project selects columns, renaming them as given by pairs of (column, output name),
// then optionally sorts by an output column.
func project(pairs [][2]string, orderBy string, descending bool) *nodes.AppenderNode {
	columns := make([]string, len(pairs))
	for i := range pairs {
		columns[i] = pairs[i][0]
	}
	return nodes.NewAppenderNode(nodes.MapAppender(func(chunk Chunk) (Chunk, error) {
		out, err := chunk.Select(columns...)
		if err != nil {
			return Chunk{}, err
		}
		for _, pair := range pairs {
			if pair[0] == pair[1] {
				continue
			}
			if out, err = out.Rename(pair[0], pair[1]); err != nil {
				return Chunk{}, err
			}
		}
		if orderBy != "" {
			return out.SortBy(orderBy, descending)
		}
		return out, nil
	}))
}

func columnIndices(schema Schema, columns []string) ([]int, error) {
	indices := make([]int, len(columns))
	for i, column := range columns {
		if indices[i] = schema.Index(column); indices[i] == -1 {
			return nil, fmt.Errorf("couldn't find %s in %s: %w", column, schema, ErrColumnNotFound)
		}
	}
	return indices, nil
}

func number(value chunkflow.Value) (float64, bool) {
	switch value.TypeID {
	case chunkflow.TypeIDInt:
		return float64(value.Int), true
	case chunkflow.TypeIDFloat:
		return value.Float, true
	}
	return 0, false
}

func between(value chunkflow.Value, low, high float64) bool {
	n, ok := number(value)
	return ok && n >= low && n <= high
}

func equals(value chunkflow.Value, s string) bool {
	return value.TypeID == chunkflow.TypeIDString && value.Str == s
}

// dateInRange checks from <= value < to. Dates read as strings are compared in their ISO form.
func dateInRange(value chunkflow.Value, from, to time.Time) bool {
	switch value.TypeID {
	case chunkflow.TypeIDTime:
		return !value.Time.Before(from) && value.Time.Before(to)
	case chunkflow.TypeIDString:
		return value.Str >= from.Format("2006-01-02") && value.Str < to.Format("2006-01-02")
	}
	return false
}
