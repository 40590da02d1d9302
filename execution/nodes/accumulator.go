package nodes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/btree"

	"github.com/chunkflow/chunkflow/aggregates"
	"github.com/chunkflow/chunkflow/chunkflow"
	. "github.com/chunkflow/chunkflow/execution"
)

// AggregateSpec asks for the given aggregate functions to be computed over a column.
type AggregateSpec struct {
	Column    string
	Functions []string
}

// GroupAccumulator configures an AccumulatorNode.
// With no aggregates configured, every non-key numeric column is summed and keeps its name.
type GroupAccumulator struct {
	groupKey      []string
	aggregates    []AggregateSpec
	emitSnapshots bool
}

func NewGroupAccumulator() *GroupAccumulator {
	return &GroupAccumulator{}
}

func (g *GroupAccumulator) GroupKey(columns ...string) *GroupAccumulator {
	g.groupKey = columns
	return g
}

func (g *GroupAccumulator) Aggregate(column string, functions ...string) *GroupAccumulator {
	g.aggregates = append(g.aggregates, AggregateSpec{Column: column, Functions: functions})
	return g
}

func (g *GroupAccumulator) Aggregates(specs ...AggregateSpec) *GroupAccumulator {
	g.aggregates = append(g.aggregates, specs...)
	return g
}

// EmitSnapshots makes the node emit all groups after every processed chunk, not only after its input closes.
func (g *GroupAccumulator) EmitSnapshots(emit bool) *GroupAccumulator {
	g.emitSnapshots = emit
	return g
}

func (g *GroupAccumulator) Build() (*AccumulatorNode, error) {
	seen := map[string]bool{}
	for _, column := range g.groupKey {
		if seen[column] {
			return nil, &ConfigurationError{Err: errors.Errorf("group key column %s listed twice", column)}
		}
		seen[column] = true
	}
	for _, spec := range g.aggregates {
		if len(spec.Functions) == 0 {
			return nil, &ConfigurationError{Err: errors.Errorf("no aggregate functions given for column %s", spec.Column)}
		}
		for _, function := range spec.Functions {
			if _, ok := aggregates.Aggregates[function]; !ok {
				return nil, &ConfigurationError{Err: errors.Errorf("unknown aggregate %s, available: %s", function, strings.Join(aggregates.Names(), ", "))}
			}
			name := outputColumnName(spec.Column, function)
			if seen[name] {
				return nil, &ConfigurationError{Err: errors.Errorf("output column %s listed twice", name)}
			}
			seen[name] = true
		}
	}
	return &AccumulatorNode{
		config: *g,
	}, nil
}

func outputColumnName(column, function string) string {
	return column + "_" + function
}

type aggregatesItem struct {
	GroupKey
	Aggregates []aggregates.Aggregate

	// AggregatedSetSize omits NULL inputs.
	AggregatedSetSize []int
}

type aggregateColumn struct {
	inputIndex int
	descriptor aggregates.Descriptor
}

// AccumulatorNode maintains running aggregates per group.
// Its memory is proportional to the number of groups, not rows.
type AccumulatorNode struct {
	config GroupAccumulator

	resolved      bool
	inputSchema   Schema
	keyIndices    []int
	columns       []aggregateColumn
	outputSchema  Schema
	groups        *btree.Generic[*aggregatesItem]
	rowsProcessed int

	done bool
}

func (n *AccumulatorNode) Kind() NodeKind {
	return KindAccumulator
}

func (n *AccumulatorNode) Inputs() int {
	return 1
}

func (n *AccumulatorNode) Done() bool {
	return n.done
}

func (n *AccumulatorNode) Describe() map[string]string {
	var aggs []string
	for _, spec := range n.config.aggregates {
		for _, function := range spec.Functions {
			aggs = append(aggs, fmt.Sprintf("%s(%s)", function, spec.Column))
		}
	}
	if len(aggs) == 0 {
		aggs = append(aggs, "sum(*)")
	}
	return map[string]string{
		"group_key":      strings.Join(n.config.groupKey, ", "),
		"aggregates":     strings.Join(aggs, ", "),
		"emit_snapshots": strconv.FormatBool(n.config.emitSnapshots),
	}
}

func (n *AccumulatorNode) OutputSchema(inputs []*Schema) (*Schema, error) {
	_, _, schema, err := n.resolve(*inputs[0])
	if err != nil {
		return nil, err
	}
	return &schema, nil
}

// resolve finds the key columns and picks aggregate overloads based on the input column types.
func (n *AccumulatorNode) resolve(input Schema) ([]int, []aggregateColumn, Schema, error) {
	keyIndices := make([]int, len(n.config.groupKey))
	fields := make([]Field, 0, len(n.config.groupKey))
	isKey := map[int]bool{}
	for i, name := range n.config.groupKey {
		index := input.Index(name)
		if index == -1 {
			return nil, nil, Schema{}, errors.Wrapf(ErrColumnNotFound, "group key column %s in %s", name, input)
		}
		keyIndices[i] = index
		isKey[index] = true
		fields = append(fields, input.Fields[index])
	}

	var columns []aggregateColumn
	if len(n.config.aggregates) == 0 {
		for i, field := range input.Fields {
			if isKey[i] || !field.Type.Numeric() {
				continue
			}
			descriptor, err := aggregates.Resolve("sum", field.Type)
			if err != nil {
				return nil, nil, Schema{}, errors.Wrapf(err, "column %s", field.Name)
			}
			columns = append(columns, aggregateColumn{inputIndex: i, descriptor: descriptor})
			fields = append(fields, Field{Name: field.Name, Type: descriptor.OutputType})
		}
	} else {
		for _, spec := range n.config.aggregates {
			index := input.Index(spec.Column)
			if index == -1 {
				return nil, nil, Schema{}, errors.Wrapf(ErrColumnNotFound, "aggregated column %s in %s", spec.Column, input)
			}
			for _, function := range spec.Functions {
				descriptor, err := aggregates.Resolve(function, input.Fields[index].Type)
				if err != nil {
					return nil, nil, Schema{}, errors.Wrapf(err, "column %s", spec.Column)
				}
				columns = append(columns, aggregateColumn{inputIndex: index, descriptor: descriptor})
				fields = append(fields, Field{Name: outputColumnName(spec.Column, function), Type: descriptor.OutputType})
			}
		}
	}

	return keyIndices, columns, Schema{Fields: fields}, nil
}

func (n *AccumulatorNode) Advance(step *Step) error {
	if n.done {
		return nil
	}

	chunks := step.Pull(0)
	for _, chunk := range chunks {
		if err := n.consume(chunk); err != nil {
			return &ComputationError{Err: err}
		}
		if n.config.emitSnapshots && chunk.NumRows() > 0 {
			if err := n.emit(step); err != nil {
				return err
			}
		}
	}

	if step.InputClosed(0) {
		if err := n.emit(step); err != nil {
			return err
		}
		if err := step.Close(); err != nil {
			return errors.Wrap(err, "couldn't close output")
		}
		step.Logger().Debug().Int("groups", n.groupCount()).Int("rows", n.rowsProcessed).Msg("accumulator finished")
		n.groups = nil
		n.done = true
	}
	return nil
}

func (n *AccumulatorNode) consume(chunk Chunk) error {
	if !n.resolved {
		keyIndices, columns, schema, err := n.resolve(chunk.Schema())
		if err != nil {
			return err
		}
		n.inputSchema = chunk.Schema()
		n.keyIndices = keyIndices
		n.columns = columns
		n.outputSchema = schema
		n.groups = btree.NewGenericOptions[*aggregatesItem](
			func(a, b *aggregatesItem) bool {
				return GroupKeyLess(a.GroupKey, b.GroupKey)
			},
			btree.Options{
				NoLocks: true,
			},
		)
		n.resolved = true
	} else if !chunk.Schema().Equal(n.inputSchema) {
		return errors.Errorf("chunk schema %s differs from the first chunk's schema %s", chunk.Schema(), n.inputSchema)
	}

	for row := 0; row < chunk.NumRows(); row++ {
		key := chunk.ProjectKey(row, n.keyIndices)

		item, ok := n.groups.Get(&aggregatesItem{GroupKey: key})
		if !ok {
			newAggregates := make([]aggregates.Aggregate, len(n.columns))
			for i := range n.columns {
				newAggregates[i] = n.columns[i].descriptor.Prototype()
			}

			item = &aggregatesItem{GroupKey: key, Aggregates: newAggregates, AggregatedSetSize: make([]int, len(n.columns))}
			n.groups.Set(item)
		}

		for i, column := range n.columns {
			value := chunk.Value(row, column.inputIndex)
			if value.IsNull() {
				continue
			}
			item.AggregatedSetSize[i]++
			item.Aggregates[i].Add(value)
		}
	}
	n.rowsProcessed += chunk.NumRows()
	return nil
}

func (n *AccumulatorNode) groupCount() int {
	if n.groups == nil {
		return 0
	}
	return n.groups.Len()
}

func (n *AccumulatorNode) trigger(item *aggregatesItem, i int) chunkflow.Value {
	if item.AggregatedSetSize[i] > 0 || n.columns[i].descriptor.TriggerOnEmpty {
		return item.Aggregates[i].Trigger()
	}
	return chunkflow.NewNull()
}

// emit pushes one chunk with a row per group, in ascending group key order.
func (n *AccumulatorNode) emit(step *Step) error {
	if !n.resolved {
		return n.emitUnresolved(step)
	}

	var rows [][]chunkflow.Value
	n.groups.Scan(func(item *aggregatesItem) bool {
		row := make([]chunkflow.Value, len(item.GroupKey)+len(n.columns))
		copy(row, item.GroupKey)
		for i := range n.columns {
			row[len(item.GroupKey)+i] = n.trigger(item, i)
		}
		rows = append(rows, row)
		return true
	})

	if len(rows) == 0 && len(n.keyIndices) == 0 {
		// A global group exists even if there were no rows.
		item := &aggregatesItem{
			Aggregates:        make([]aggregates.Aggregate, len(n.columns)),
			AggregatedSetSize: make([]int, len(n.columns)),
		}
		row := make([]chunkflow.Value, len(n.columns))
		for i := range n.columns {
			item.Aggregates[i] = n.columns[i].descriptor.Prototype()
			row[i] = n.trigger(item, i)
		}
		rows = append(rows, row)
	}

	chunk, err := NewChunkFromRows(n.outputSchema, rows)
	if err != nil {
		return &ComputationError{Err: errors.Wrap(err, "couldn't build output chunk")}
	}
	if err := step.Push(chunk); err != nil {
		return errors.Wrap(err, "couldn't push chunk")
	}
	return nil
}

// emitUnresolved handles an input which closed without ever delivering a chunk, so no schema is known.
func (n *AccumulatorNode) emitUnresolved(step *Step) error {
	var fields []Field
	for _, name := range n.config.groupKey {
		fields = append(fields, Field{Name: name, Type: chunkflow.Any})
	}
	var row []chunkflow.Value
	for _, spec := range n.config.aggregates {
		for _, function := range spec.Functions {
			fields = append(fields, Field{Name: outputColumnName(spec.Column, function), Type: chunkflow.Any})
			value := chunkflow.NewNull()
			if overloads := aggregates.Aggregates[function]; len(overloads) > 0 && overloads[0].TriggerOnEmpty {
				value = overloads[0].Prototype().Trigger()
			}
			row = append(row, value)
		}
	}

	var rows [][]chunkflow.Value
	if len(n.config.groupKey) == 0 {
		rows = append(rows, row)
	}
	chunk, err := NewChunkFromRows(Schema{Fields: fields}, rows)
	if err != nil {
		return &ComputationError{Err: errors.Wrap(err, "couldn't build output chunk")}
	}
	if err := step.Push(chunk); err != nil {
		return errors.Wrap(err, "couldn't push chunk")
	}
	return nil
}
