package aggregates

import (
	"github.com/chunkflow/chunkflow/chunkflow"
)

var MaxOverloads = []Descriptor{
	{
		ArgumentType: chunkflow.Int,
		OutputType:   chunkflow.Int,
		Prototype:    NewMaxPrototype(),
	},
	{
		ArgumentType: chunkflow.Float,
		OutputType:   chunkflow.Float,
		Prototype:    NewMaxPrototype(),
	},
	{
		ArgumentType: chunkflow.String,
		OutputType:   chunkflow.String,
		Prototype:    NewMaxPrototype(),
	},
	{
		ArgumentType: chunkflow.Time,
		OutputType:   chunkflow.Time,
		Prototype:    NewMaxPrototype(),
	},
	{
		ArgumentType: chunkflow.Duration,
		OutputType:   chunkflow.Duration,
		Prototype:    NewMaxPrototype(),
	},
}

type Max struct {
	max chunkflow.Value
	set bool
}

func NewMaxPrototype() func() Aggregate {
	return func() Aggregate {
		return &Max{}
	}
}

func (c *Max) Add(value chunkflow.Value) {
	if !c.set || value.Compare(c.max) > 0 {
		c.max = value
		c.set = true
	}
}

func (c *Max) Trigger() chunkflow.Value {
	if !c.set {
		return chunkflow.NewNull()
	}
	return c.max
}
