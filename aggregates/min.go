package aggregates

import (
	"github.com/chunkflow/chunkflow/chunkflow"
)

var MinOverloads = []Descriptor{
	{
		ArgumentType: chunkflow.Int,
		OutputType:   chunkflow.Int,
		Prototype:    NewMinPrototype(),
	},
	{
		ArgumentType: chunkflow.Float,
		OutputType:   chunkflow.Float,
		Prototype:    NewMinPrototype(),
	},
	{
		ArgumentType: chunkflow.String,
		OutputType:   chunkflow.String,
		Prototype:    NewMinPrototype(),
	},
	{
		ArgumentType: chunkflow.Time,
		OutputType:   chunkflow.Time,
		Prototype:    NewMinPrototype(),
	},
	{
		ArgumentType: chunkflow.Duration,
		OutputType:   chunkflow.Duration,
		Prototype:    NewMinPrototype(),
	},
}

type Min struct {
	min chunkflow.Value
	set bool
}

func NewMinPrototype() func() Aggregate {
	return func() Aggregate {
		return &Min{}
	}
}

func (c *Min) Add(value chunkflow.Value) {
	if !c.set || value.Compare(c.min) < 0 {
		c.min = value
		c.set = true
	}
}

func (c *Min) Trigger() chunkflow.Value {
	if !c.set {
		return chunkflow.NewNull()
	}
	return c.min
}
