package aggregates

import (
	"github.com/chunkflow/chunkflow/chunkflow"
)

var CountOverloads = []Descriptor{
	{
		ArgumentType:   chunkflow.Any,
		OutputType:     chunkflow.Int,
		Prototype:      NewCountPrototype(),
		TriggerOnEmpty: true,
	},
}

type Count struct {
	count int
}

func NewCountPrototype() func() Aggregate {
	return func() Aggregate {
		return &Count{
			count: 0,
		}
	}
}

func (c *Count) Add(value chunkflow.Value) {
	c.count++
}

func (c *Count) Trigger() chunkflow.Value {
	return chunkflow.NewInt(c.count)
}
