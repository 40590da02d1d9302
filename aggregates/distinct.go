package aggregates

import (
	"fmt"

	"github.com/google/btree"

	"github.com/chunkflow/chunkflow/chunkflow"
)

const btreeDegree = 32

// DistinctAggregateOverloads wraps the overloads so that each distinct value is passed only once.
func DistinctAggregateOverloads(overloads []Descriptor) []Descriptor {
	out := make([]Descriptor, len(overloads))
	for i := range overloads {
		out[i] = Descriptor{
			ArgumentType:   overloads[i].ArgumentType,
			OutputType:     overloads[i].OutputType,
			Prototype:      NewDistinctPrototype(overloads[i].Prototype),
			TriggerOnEmpty: overloads[i].TriggerOnEmpty,
		}
	}
	return out
}

type Distinct struct {
	items   *btree.BTree
	wrapped Aggregate
}

func NewDistinctPrototype(wrapped func() Aggregate) func() Aggregate {
	return func() Aggregate {
		return &Distinct{
			items:   btree.New(btreeDegree),
			wrapped: wrapped(),
		}
	}
}

type distinctKey struct {
	value chunkflow.Value
}

func (key *distinctKey) Less(than btree.Item) bool {
	thanTyped, ok := than.(*distinctKey)
	if !ok {
		panic(fmt.Sprintf("invalid distinct key comparison: %T", than))
	}
	return key.value.Compare(thanTyped.value) < 0
}

func (c *Distinct) Add(value chunkflow.Value) {
	if c.items.Has(&distinctKey{value: value}) {
		return
	}
	c.items.ReplaceOrInsert(&distinctKey{value: value})
	c.wrapped.Add(value)
}

func (c *Distinct) Trigger() chunkflow.Value {
	return c.wrapped.Trigger()
}
