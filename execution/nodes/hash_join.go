package nodes

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/chunkflow/chunkflow/chunkflow"
	. "github.com/chunkflow/chunkflow/execution"
)

const DefaultRightSuffix = "_right"

const (
	leftSide  = 0
	rightSide = 1
)

type HashJoinBuilder struct {
	leftOn      []string
	rightOn     []string
	rightSuffix string
}

func NewHashJoinBuilder() *HashJoinBuilder {
	return &HashJoinBuilder{
		rightSuffix: DefaultRightSuffix,
	}
}

func (b *HashJoinBuilder) LeftOn(columns ...string) *HashJoinBuilder {
	b.leftOn = columns
	return b
}

func (b *HashJoinBuilder) RightOn(columns ...string) *HashJoinBuilder {
	b.rightOn = columns
	return b
}

// RightSuffix is appended to right columns whose names collide with an output column.
func (b *HashJoinBuilder) RightSuffix(suffix string) *HashJoinBuilder {
	b.rightSuffix = suffix
	return b
}

func (b *HashJoinBuilder) Build() (*HashJoinNode, error) {
	if len(b.leftOn) == 0 || len(b.rightOn) == 0 {
		return nil, &ConfigurationError{Err: errors.New("join key lists can't be empty")}
	}
	if len(b.leftOn) != len(b.rightOn) {
		return nil, &ConfigurationError{Err: errors.Errorf("join key lists differ in length: left %v, right %v", b.leftOn, b.rightOn)}
	}
	if b.rightSuffix == "" {
		return nil, &ConfigurationError{Err: errors.New("right column suffix can't be empty")}
	}
	return &HashJoinNode{
		keys:        [2][]string{b.leftOn, b.rightOn},
		rightSuffix: b.rightSuffix,
		sides: [2]*joinSide{
			{index: newJoinIndex()},
			{index: newJoinIndex()},
		},
	}, nil
}

type joinSide struct {
	index      *joinIndex
	resolved   bool
	schema     Schema
	keyIndices []int
	closed     bool
}

// HashJoinNode is a symmetric inner equi-join of two chunked streams.
// Each arriving chunk is inserted into its own side's index and probed against the other side's index,
// so every matching pair is emitted exactly once, whatever the arrival order.
type HashJoinNode struct {
	keys        [2][]string
	rightSuffix string
	sides       [2]*joinSide

	outputResolved bool
	outputSchema   Schema
	// rightOutputIndices are the right columns included in the output.
	rightOutputIndices []int
	emitted            bool

	done bool
}

func (n *HashJoinNode) Kind() NodeKind {
	return KindHashJoin
}

func (n *HashJoinNode) Inputs() int {
	return 2
}

func (n *HashJoinNode) Done() bool {
	return n.done
}

func (n *HashJoinNode) Describe() map[string]string {
	return map[string]string{
		"left_on":      strings.Join(n.keys[leftSide], ", "),
		"right_on":     strings.Join(n.keys[rightSide], ", "),
		"right_suffix": n.rightSuffix,
	}
}

func (n *HashJoinNode) OutputSchema(inputs []*Schema) (*Schema, error) {
	if _, err := keyIndices(*inputs[leftSide], n.keys[leftSide]); err != nil {
		return nil, errors.Wrap(err, "left")
	}
	rightKeys, err := keyIndices(*inputs[rightSide], n.keys[rightSide])
	if err != nil {
		return nil, errors.Wrap(err, "right")
	}
	schema, _, err := joinedSchema(*inputs[leftSide], *inputs[rightSide], rightKeys, n.rightSuffix)
	if err != nil {
		return nil, err
	}
	return &schema, nil
}

func keyIndices(schema Schema, columns []string) ([]int, error) {
	out := make([]int, len(columns))
	for i, name := range columns {
		index := schema.Index(name)
		if index == -1 {
			return nil, errors.Wrapf(ErrColumnNotFound, "join key column %s in %s", name, schema)
		}
		out[i] = index
	}
	return out, nil
}

// joinedSchema lists all left columns, followed by the right columns which aren't join keys.
func joinedSchema(left, right Schema, rightKeys []int, suffix string) (Schema, []int, error) {
	fields := make([]Field, len(left.Fields), len(left.Fields)+len(right.Fields))
	copy(fields, left.Fields)
	names := map[string]bool{}
	for _, field := range left.Fields {
		names[field.Name] = true
	}

	isKey := map[int]bool{}
	for _, index := range rightKeys {
		isKey[index] = true
	}

	var rightIndices []int
	for i, field := range right.Fields {
		if isKey[i] {
			continue
		}
		name := field.Name
		if names[name] {
			name += suffix
			if names[name] {
				return Schema{}, nil, errors.Errorf("right column %s collides with an output column even after adding suffix %s", field.Name, suffix)
			}
		}
		names[name] = true
		fields = append(fields, Field{Name: name, Type: field.Type})
		rightIndices = append(rightIndices, i)
	}
	return Schema{Fields: fields}, rightIndices, nil
}

func (n *HashJoinNode) Advance(step *Step) error {
	if n.done {
		return nil
	}

	for side := leftSide; side <= rightSide; side++ {
		for _, chunk := range step.Pull(side) {
			if err := n.receive(step, side, chunk); err != nil {
				return err
			}
		}
	}

	for side := leftSide; side <= rightSide; side++ {
		if !n.sides[side].closed && step.InputClosed(side) {
			n.sides[side].closed = true
			step.Logger().Debug().Int("side", side).Int("indexed_rows", n.sides[side].index.size()).Int("indexed_keys", n.sides[side].index.keys()).Msg("join input closed")
		}
	}

	if n.sides[leftSide].closed && n.sides[rightSide].closed {
		if !n.emitted && n.sides[leftSide].resolved && n.sides[rightSide].resolved {
			// Let downstream nodes learn the schema even if nothing matched.
			if err := n.resolveOutput(); err != nil {
				return &ComputationError{Err: err}
			}
			if err := step.Push(EmptyChunk(n.outputSchema)); err != nil {
				return errors.Wrap(err, "couldn't push chunk")
			}
		}
		if err := step.Close(); err != nil {
			return errors.Wrap(err, "couldn't close output")
		}
		n.sides[leftSide].index = nil
		n.sides[rightSide].index = nil
		n.done = true
	}
	return nil
}

func (n *HashJoinNode) receive(step *Step, side int, chunk Chunk) error {
	mine, other := n.sides[side], n.sides[1-side]
	if !mine.resolved {
		indices, err := keyIndices(chunk.Schema(), n.keys[side])
		if err != nil {
			return &ComputationError{Err: err}
		}
		mine.schema = chunk.Schema()
		mine.keyIndices = indices
		mine.resolved = true
	} else if !chunk.Schema().Equal(mine.schema) {
		return &ComputationError{Err: errors.Errorf("chunk schema %s differs from the first chunk's schema %s", chunk.Schema(), mine.schema)}
	}

	var rows [][]chunkflow.Value
	for row := 0; row < chunk.NumRows(); row++ {
		key := chunk.ProjectKey(row, mine.keyIndices)
		if key.HasNull() {
			continue
		}
		values := chunk.Row(row)
		mine.index.insert(key, values)

		if !other.resolved {
			continue
		}
		matches := other.index.lookup(key)
		if len(matches) == 0 {
			continue
		}
		if err := n.resolveOutput(); err != nil {
			return &ComputationError{Err: err}
		}
		for _, match := range matches {
			if side == leftSide {
				rows = append(rows, n.joinRows(values, match))
			} else {
				rows = append(rows, n.joinRows(match, values))
			}
		}
	}

	if len(rows) == 0 {
		return nil
	}
	out, err := NewChunkFromRows(n.outputSchema, rows)
	if err != nil {
		return &ComputationError{Err: errors.Wrap(err, "couldn't build output chunk")}
	}
	if err := step.Push(out); err != nil {
		return errors.Wrap(err, "couldn't push chunk")
	}
	n.emitted = true
	return nil
}

func (n *HashJoinNode) resolveOutput() error {
	if n.outputResolved {
		return nil
	}
	schema, rightIndices, err := joinedSchema(n.sides[leftSide].schema, n.sides[rightSide].schema, n.sides[rightSide].keyIndices, n.rightSuffix)
	if err != nil {
		return err
	}
	n.outputSchema = schema
	n.rightOutputIndices = rightIndices
	n.outputResolved = true
	return nil
}

func (n *HashJoinNode) joinRows(left, right []chunkflow.Value) []chunkflow.Value {
	out := make([]chunkflow.Value, len(left), len(left)+len(n.rightOutputIndices))
	copy(out, left)
	for _, index := range n.rightOutputIndices {
		out = append(out, right[index])
	}
	return out
}
