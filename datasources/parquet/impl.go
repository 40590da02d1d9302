package parquet

import (
	"context"
	"fmt"
	"os"

	"github.com/segmentio/parquet-go"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

type column struct {
	field execution.Field
	// leafIndex is the index of the column among all leaf columns of the file.
	leafIndex int
}

// Table is a parquet file. Only top-level primitive columns are exposed, nested and repeated ones are skipped.
type Table struct {
	path    string
	columns []column
	schema  execution.Schema
}

func Creator(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open file: %w", err)
	}
	defer f.Close()

	pf, err := openFile(f)
	if err != nil {
		return nil, err
	}

	var columns []column
	var fields []execution.Field
	leafIndex := 0
	for _, field := range pf.Schema().Fields() {
		t, ok := getType(field)
		if ok {
			columns = append(columns, column{
				field:     execution.Field{Name: field.Name(), Type: t},
				leafIndex: leafIndex,
			})
			fields = append(fields, execution.Field{Name: field.Name(), Type: t})
		}
		leafIndex += countLeaves(field)
	}

	return &Table{
		path:    path,
		columns: columns,
		schema:  execution.Schema{Fields: fields},
	}, nil
}

func openFile(f *os.File) (*parquet.File, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("couldn't stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size(), &parquet.FileConfig{
		SkipPageIndex:    true,
		SkipBloomFilters: true,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't open parquet file: %w", err)
	}
	return pf, nil
}

func countLeaves(node parquet.Node) int {
	if node.Leaf() {
		return 1
	}
	count := 0
	for _, child := range node.Fields() {
		count += countLeaves(child)
	}
	return count
}

func getType(node parquet.Node) (chunkflow.Type, bool) {
	if !node.Leaf() || node.Repeated() {
		return chunkflow.Type{}, false
	}
	if node.Type().String() == "NULL" {
		return chunkflow.Type{}, false
	}
	switch node.Type().Kind() {
	case parquet.Boolean:
		return chunkflow.Boolean, true
	case parquet.Int32, parquet.Int64:
		return chunkflow.Int, true
	case parquet.Float, parquet.Double:
		return chunkflow.Float, true
	case parquet.Int96, parquet.ByteArray, parquet.FixedLenByteArray:
		return chunkflow.String, true
	}
	return chunkflow.Type{}, false
}

func (t *Table) Schema() execution.Schema {
	return t.schema
}

// Open starts reading the file, projected to the given columns. No columns means all of them.
func (t *Table) Open(ctx context.Context, columns []string) (*DatasourceExecuting, error) {
	used := t.columns
	if len(columns) > 0 {
		used = make([]column, len(columns))
		for i, name := range columns {
			found := false
			for _, c := range t.columns {
				if c.field.Name == name {
					used[i] = c
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("couldn't find column %s in %s: %w", name, t.path, execution.ErrColumnNotFound)
			}
		}
	}

	fields := make([]execution.Field, len(used))
	positions := make(map[int]int, len(used))
	for i, c := range used {
		fields[i] = c.field
		positions[c.leafIndex] = i
	}

	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open file: %w", err)
	}
	pf, err := openFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &DatasourceExecuting{
		file:      f,
		reader:    parquet.NewReader(pf),
		positions: positions,
		schema:    execution.Schema{Fields: fields},
	}, nil
}
