package json

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/valyala/fastjson"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

// Table is a file with one JSON object per line.
type Table struct {
	path   string
	schema execution.Schema
}

func Creator(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open file: %w", err)
	}
	defer f.Close()

	fields := make(map[string]chunkflow.Type)

	sc := bufio.NewScanner(bufio.NewReaderSize(f, 4096*1024))
	sc.Buffer(nil, 1024*1024)

	var p fastjson.Parser
	i := 0
	for sc.Scan() && i < 100 {
		if len(sc.Bytes()) == 0 {
			continue
		}
		i++
		v, err := p.ParseBytes(sc.Bytes())
		if err != nil {
			return nil, fmt.Errorf("couldn't parse json: %w", err)
		}
		o, err := v.Object()
		if err != nil {
			return nil, fmt.Errorf("expected JSON object, got '%s'", sc.Text())
		}

		o.Visit(func(key []byte, v *fastjson.Value) {
			if t, ok := fields[string(key)]; ok {
				fields[string(key)] = chunkflow.TypeSum(t, getType(v))
			} else {
				fields[string(key)] = getType(v)
			}
		})
	}
	if sc.Err() != nil {
		return nil, fmt.Errorf("couldn't scan lines: %w", sc.Err())
	}

	var schemaFields []execution.Field
	for k, t := range fields {
		if t.TypeID == chunkflow.TypeIDNull {
			t = chunkflow.String
		}
		schemaFields = append(schemaFields, execution.Field{
			Name: k,
			Type: t,
		})
	}
	sort.Slice(schemaFields, func(i, j int) bool {
		return schemaFields[i].Name < schemaFields[j].Name
	})

	return &Table{
		path:   path,
		schema: execution.Schema{Fields: schemaFields},
	}, nil
}

// getType maps a JSON value to a column type. Nested objects and arrays are kept as their JSON text.
func getType(value *fastjson.Value) chunkflow.Type {
	switch value.Type() {
	case fastjson.TypeNull:
		return chunkflow.Null
	case fastjson.TypeString:
		v, _ := value.StringBytes()
		if _, err := time.Parse(time.RFC3339Nano, string(v)); err == nil {
			return chunkflow.Time
		} else {
			return chunkflow.String
		}
	case fastjson.TypeNumber:
		return chunkflow.Float
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return chunkflow.Boolean
	case fastjson.TypeObject, fastjson.TypeArray:
		return chunkflow.String
	}

	panic(fmt.Sprintf("unexhaustive json input value match: %s %+v", value.Type().String(), value))
}

func (t *Table) Schema() execution.Schema {
	return t.schema
}

// Open starts reading the file, projected to the given columns. No columns means all of them.
func (t *Table) Open(ctx context.Context, columns []string) (*DatasourceExecuting, error) {
	fields := t.schema.Fields
	if len(columns) > 0 {
		fields = make([]execution.Field, len(columns))
		for i, name := range columns {
			field, ok := t.schema.Field(name)
			if !ok {
				return nil, fmt.Errorf("couldn't find column %s in %s: %w", name, t.path, execution.ErrColumnNotFound)
			}
			fields[i] = field
		}
	}

	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open file: %w", err)
	}
	sc := bufio.NewScanner(bufio.NewReaderSize(f, 4096*1024))
	sc.Buffer(nil, 1024*1024)

	return &DatasourceExecuting{
		file:   f,
		sc:     sc,
		schema: execution.Schema{Fields: fields},
	}, nil
}
