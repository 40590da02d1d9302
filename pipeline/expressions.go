package pipeline

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cast"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

// typeNames are the types a derived column may be declared with.
var typeNames = map[string]chunkflow.Type{
	"int":      chunkflow.Int,
	"float":    chunkflow.Float,
	"bool":     chunkflow.Boolean,
	"string":   chunkflow.String,
	"time":     chunkflow.Time,
	"duration": chunkflow.Duration,
}

// typeEnv builds an environment with a zero value of each column's type, so that expressions are type-checked against the schema.
func typeEnv(schema execution.Schema) map[string]interface{} {
	env := make(map[string]interface{}, len(schema.Fields))
	for _, field := range schema.Fields {
		switch field.Type.TypeID {
		case chunkflow.TypeIDInt:
			env[field.Name] = 0
		case chunkflow.TypeIDFloat:
			env[field.Name] = 0.0
		case chunkflow.TypeIDBoolean:
			env[field.Name] = false
		case chunkflow.TypeIDString:
			env[field.Name] = ""
		case chunkflow.TypeIDTime:
			env[field.Name] = time.Time{}
		case chunkflow.TypeIDDuration:
			env[field.Name] = time.Duration(0)
		default:
			env[field.Name] = nil
		}
	}
	return env
}

// expression is an expr program compiled lazily against the schema of the first chunk it sees.
type expression struct {
	code    string
	options []expr.Option

	schema  *execution.Schema
	program *vm.Program
}

func newExpression(code string, options ...expr.Option) *expression {
	return &expression{
		code:    code,
		options: options,
	}
}

func (e *expression) compile(schema execution.Schema) (*vm.Program, error) {
	if e.schema != nil && e.schema.Equal(schema) {
		return e.program, nil
	}
	options := append([]expr.Option{expr.Env(typeEnv(schema))}, e.options...)
	program, err := expr.Compile(e.code, options...)
	if err != nil {
		return nil, fmt.Errorf("couldn't compile expression '%s': %w", e.code, err)
	}
	e.schema = &schema
	e.program = program
	return program, nil
}

// eval evaluates the expression for every row of the chunk.
// A row for which evaluation fails while any of its values is null evaluates to nil.
func (e *expression) eval(chunk execution.Chunk) ([]interface{}, error) {
	program, err := e.compile(chunk.Schema())
	if err != nil {
		return nil, err
	}

	fields := chunk.Schema().Fields
	env := make(map[string]interface{}, len(fields))
	out := make([]interface{}, chunk.NumRows())
	for row := range out {
		hasNull := false
		for col := range fields {
			value := chunk.Value(row, col)
			if value.IsNull() {
				hasNull = true
			}
			env[fields[col].Name] = value.ToRawGoValue()
		}
		result, err := expr.Run(program, env)
		if err != nil {
			if hasNull {
				continue
			}
			return nil, fmt.Errorf("couldn't evaluate expression '%s' on row %d: %w", e.code, row, err)
		}
		out[row] = result
	}
	return out, nil
}

// convert coerces an expression result to a value of the given type.
func convert(result interface{}, t chunkflow.Type) (chunkflow.Value, error) {
	if result == nil {
		return chunkflow.NewNull(), nil
	}
	switch t.TypeID {
	case chunkflow.TypeIDInt:
		v, err := cast.ToIntE(result)
		return chunkflow.NewInt(v), err
	case chunkflow.TypeIDFloat:
		v, err := cast.ToFloat64E(result)
		return chunkflow.NewFloat(v), err
	case chunkflow.TypeIDBoolean:
		v, err := cast.ToBoolE(result)
		return chunkflow.NewBoolean(v), err
	case chunkflow.TypeIDString:
		v, err := cast.ToStringE(result)
		return chunkflow.NewString(v), err
	case chunkflow.TypeIDTime:
		v, err := cast.ToTimeE(result)
		return chunkflow.NewTime(v), err
	case chunkflow.TypeIDDuration:
		v, err := cast.ToDurationE(result)
		return chunkflow.NewDuration(v), err
	}
	return chunkflow.FromRawGoValue(result)
}
