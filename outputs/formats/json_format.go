package formats

import (
	"fmt"
	"io"
	"time"

	"github.com/valyala/fastjson"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

// JSONFormatter writes one json object per row.
type JSONFormatter struct {
	buf    []byte
	arena  *fastjson.Arena
	w      io.Writer
	fields []execution.Field
}

func NewJSONFormatter(w io.Writer) Format {
	return &JSONFormatter{
		buf:   make([]byte, 0, 1024),
		arena: new(fastjson.Arena),
		w:     w,
	}
}

func (t *JSONFormatter) SetSchema(schema execution.Schema) {
	t.fields = schema.Fields
}

func (t *JSONFormatter) Write(values []chunkflow.Value) error {
	obj := t.arena.NewObject()
	for i := range t.fields {
		obj.Set(t.fields[i].Name, ValueToJson(t.arena, values[i]))
	}

	t.buf = obj.MarshalTo(t.buf)
	t.buf = append(t.buf, '\n')
	_, err := t.w.Write(t.buf)
	t.buf = t.buf[:0]
	t.arena.Reset()
	return err
}

func ValueToJson(arena *fastjson.Arena, value chunkflow.Value) *fastjson.Value {
	switch value.TypeID {
	case chunkflow.TypeIDNull:
		return arena.NewNull()
	case chunkflow.TypeIDInt:
		return arena.NewNumberInt(value.Int)
	case chunkflow.TypeIDFloat:
		return arena.NewNumberFloat64(value.Float)
	case chunkflow.TypeIDBoolean:
		if value.Boolean {
			return arena.NewTrue()
		}
		return arena.NewFalse()
	case chunkflow.TypeIDString:
		return arena.NewString(value.Str)
	case chunkflow.TypeIDTime:
		return arena.NewString(value.Time.Format(time.RFC3339))
	case chunkflow.TypeIDDuration:
		return arena.NewString(value.Duration.String())
	default:
		panic(fmt.Sprintf("invalid chunkflow value type to print: %d", value.TypeID))
	}
}

func (t *JSONFormatter) Close() error {
	return nil
}
