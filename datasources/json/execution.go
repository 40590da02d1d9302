package json

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/valyala/fastjson"

	"github.com/chunkflow/chunkflow/chunkflow"
	. "github.com/chunkflow/chunkflow/execution"
)

type DatasourceExecuting struct {
	file   *os.File
	sc     *bufio.Scanner
	p      fastjson.Parser
	schema Schema
	line   int
}

func (d *DatasourceExecuting) Schema() Schema {
	return d.schema
}

func (d *DatasourceExecuting) ReadBatch(ctx context.Context, maxRows int) (Chunk, error) {
	columns := make([][]chunkflow.Value, len(d.schema.Fields))
	rows := 0
	for rows < maxRows && d.sc.Scan() {
		d.line++
		if len(d.sc.Bytes()) == 0 {
			continue
		}
		v, err := d.p.ParseBytes(d.sc.Bytes())
		if err != nil {
			return Chunk{}, fmt.Errorf("couldn't parse json in line %d: %w", d.line, err)
		}
		o, err := v.Object()
		if err != nil {
			return Chunk{}, fmt.Errorf("expected JSON object in line %d, got '%s'", d.line, d.sc.Text())
		}

		for i, field := range d.schema.Fields {
			value, ok := getValue(field.Type, o.Get(field.Name))
			if !ok {
				return Chunk{}, fmt.Errorf("invalid value of column %s in line %d: expected %s", field.Name, d.line, field.Type)
			}
			columns[i] = append(columns[i], value)
		}
		rows++
	}
	if err := d.sc.Err(); err != nil {
		return Chunk{}, fmt.Errorf("couldn't scan lines: %w", err)
	}
	if rows == 0 {
		return Chunk{}, ErrEndOfStream
	}
	return NewChunk(d.schema, columns)
}

func getValue(t chunkflow.Type, value *fastjson.Value) (out chunkflow.Value, ok bool) {
	if value == nil || value.Type() == fastjson.TypeNull {
		return chunkflow.NewNull(), true
	}

	switch t.TypeID {
	case chunkflow.TypeIDFloat:
		if value.Type() == fastjson.TypeNumber {
			v, _ := value.Float64()
			return chunkflow.NewFloat(v), true
		}
	case chunkflow.TypeIDBoolean:
		if value.Type() == fastjson.TypeTrue {
			return chunkflow.NewBoolean(true), true
		} else if value.Type() == fastjson.TypeFalse {
			return chunkflow.NewBoolean(false), true
		}
	case chunkflow.TypeIDString:
		if value.Type() == fastjson.TypeString {
			v, _ := value.StringBytes()
			return chunkflow.NewString(string(v)), true
		}
		return chunkflow.NewString(string(value.MarshalTo(nil))), true
	case chunkflow.TypeIDTime:
		if value.Type() == fastjson.TypeString {
			v, _ := value.StringBytes()
			if parsed, err := time.Parse(time.RFC3339Nano, string(v)); err == nil {
				return chunkflow.NewTime(parsed), true
			}
		}
	}

	return chunkflow.ZeroValue, false
}

func (d *DatasourceExecuting) Close() error {
	return d.file.Close()
}
