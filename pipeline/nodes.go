package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pkg/errors"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/config"
	"github.com/chunkflow/chunkflow/datasources"
	"github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/execution/nodes"
)

type builder struct {
	ctx     context.Context
	catalog *datasources.Catalog
	options Options
}

type nodeBuilder func(b *builder, node NodeConfig) (execution.Node, error)

var nodeBuilders map[string]nodeBuilder

func init() {
	nodeBuilders = map[string]nodeBuilder{
		"source": buildSource,
		"filter": buildFilter,
		"map":    buildMap,
		"select": buildSelect,
		"sort":   buildSort,
		"join":   buildJoin,
		"group":  buildGroup,
	}
}

func buildSource(b *builder, node NodeConfig) (execution.Node, error) {
	table, err := config.GetString(node.Config, "table")
	if err != nil {
		return nil, err
	}
	columns, err := config.GetStringList(node.Config, "columns", config.WithDefault([]string(nil)))
	if err != nil {
		return nil, err
	}
	batchSize, err := config.GetInt(node.Config, "batchSize", config.WithDefault(b.options.BatchSize))
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", batchSize)
	}

	provider, err := b.catalog.Open(b.ctx, table, columns)
	if err != nil {
		return nil, err
	}
	return nodes.NewSource(table, provider, batchSize), nil
}

func buildFilter(b *builder, node NodeConfig) (execution.Node, error) {
	code, err := config.GetString(node.Config, "expr")
	if err != nil {
		return nil, err
	}
	predicate := newExpression(code, expr.AsBool())

	return nodes.NewAppenderNode(nodes.MapAppender(func(chunk execution.Chunk) (execution.Chunk, error) {
		results, err := predicate.eval(chunk)
		if err != nil {
			return execution.Chunk{}, err
		}
		mask := make([]bool, len(results))
		for i := range results {
			mask[i] = results[i] == true
		}
		return chunk.Filter(mask)
	})).WithSchema(func(input execution.Schema) (execution.Schema, error) {
		if _, err := newExpression(code, expr.AsBool()).compile(input); err != nil {
			return execution.Schema{}, err
		}
		return input, nil
	}).WithDescription(map[string]string{
		"expr": code,
	}), nil
}

func buildMap(b *builder, node NodeConfig) (execution.Node, error) {
	column, err := config.GetString(node.Config, "column")
	if err != nil {
		return nil, err
	}
	code, err := config.GetString(node.Config, "expr")
	if err != nil {
		return nil, err
	}
	typeName, err := config.GetString(node.Config, "as")
	if err != nil {
		return nil, errors.Wrap(err, "map nodes need the type of the column they compute")
	}
	t, ok := typeNames[strings.ToLower(typeName)]
	if !ok {
		return nil, errors.Errorf("unknown column type '%s'", typeName)
	}
	field := execution.Field{Name: column, Type: t}
	value := newExpression(code)

	return nodes.NewAppenderNode(nodes.MapAppender(func(chunk execution.Chunk) (execution.Chunk, error) {
		results, err := value.eval(chunk)
		if err != nil {
			return execution.Chunk{}, err
		}
		values := make([]chunkflow.Value, len(results))
		for i := range results {
			if values[i], err = convert(results[i], t); err != nil {
				return execution.Chunk{}, fmt.Errorf("couldn't convert row %d to %s: %w", i, t, err)
			}
		}
		return chunk.WithColumn(field, values)
	})).WithSchema(func(input execution.Schema) (execution.Schema, error) {
		if _, err := newExpression(code).compile(input); err != nil {
			return execution.Schema{}, err
		}
		out, err := execution.EmptyChunk(input).WithColumn(field, nil)
		if err != nil {
			return execution.Schema{}, err
		}
		return out.Schema(), nil
	}).WithDescription(map[string]string{
		"column": fmt.Sprintf("%s %s", column, t),
		"expr":   code,
	}), nil
}

func buildSelect(b *builder, node NodeConfig) (execution.Node, error) {
	columns, err := config.GetStringList(node.Config, "columns")
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, errors.New("select needs at least one column")
	}

	return nodes.NewAppenderNode(nodes.MapAppender(func(chunk execution.Chunk) (execution.Chunk, error) {
		return chunk.Select(columns...)
	})).WithSchema(func(input execution.Schema) (execution.Schema, error) {
		out, err := execution.EmptyChunk(input).Select(columns...)
		if err != nil {
			return execution.Schema{}, err
		}
		return out.Schema(), nil
	}).WithDescription(map[string]string{
		"columns": strings.Join(columns, ", "),
	}), nil
}

// buildSort orders the rows of every chunk separately, which orders the whole result when placed after a group node.
func buildSort(b *builder, node NodeConfig) (execution.Node, error) {
	by, err := config.GetString(node.Config, "by")
	if err != nil {
		return nil, err
	}
	descending, err := config.GetBool(node.Config, "descending", config.WithDefault(false))
	if err != nil {
		return nil, err
	}

	return nodes.NewAppenderNode(nodes.MapAppender(func(chunk execution.Chunk) (execution.Chunk, error) {
		return chunk.SortBy(by, descending)
	})).WithSchema(func(input execution.Schema) (execution.Schema, error) {
		if input.Index(by) == -1 {
			return execution.Schema{}, fmt.Errorf("couldn't sort by %s: %w", by, execution.ErrColumnNotFound)
		}
		return input, nil
	}).WithDescription(map[string]string{
		"by":         by,
		"descending": strconv.FormatBool(descending),
	}), nil
}

func buildJoin(b *builder, node NodeConfig) (execution.Node, error) {
	leftOn, err := config.GetStringList(node.Config, "leftOn")
	if err != nil {
		return nil, err
	}
	rightOn, err := config.GetStringList(node.Config, "rightOn")
	if err != nil {
		return nil, err
	}
	suffix, err := config.GetString(node.Config, "suffix", config.WithDefault(nodes.DefaultRightSuffix))
	if err != nil {
		return nil, err
	}

	return nodes.NewHashJoinBuilder().
		LeftOn(leftOn...).
		RightOn(rightOn...).
		RightSuffix(suffix).
		Build()
}

func buildGroup(b *builder, node NodeConfig) (execution.Node, error) {
	by, err := config.GetStringList(node.Config, "by", config.WithDefault([]string(nil)))
	if err != nil {
		return nil, err
	}
	snapshots, err := config.GetBool(node.Config, "snapshots", config.WithDefault(b.options.EmitSnapshots))
	if err != nil {
		return nil, err
	}
	rawAggregates, err := config.GetInterfaceList(node.Config, "aggregates", config.WithDefault([]interface{}(nil)))
	if err != nil {
		return nil, err
	}

	accumulator := nodes.NewGroupAccumulator().GroupKey(by...).EmitSnapshots(snapshots)
	for i := range rawAggregates {
		spec, ok := rawAggregates[i].(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("aggregate %d should be a map with column and functions", i)
		}
		column, err := config.GetString(spec, "column")
		if err != nil {
			return nil, errors.Wrapf(err, "aggregate %d", i)
		}
		functions, err := config.GetStringList(spec, "functions")
		if err != nil {
			return nil, errors.Wrapf(err, "aggregate %d", i)
		}
		accumulator.Aggregate(column, functions...)
	}
	return accumulator.Build()
}
