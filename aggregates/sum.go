package aggregates

import (
	"time"

	"github.com/chunkflow/chunkflow/chunkflow"
)

var SumOverloads = []Descriptor{
	{
		ArgumentType: chunkflow.Int,
		OutputType:   chunkflow.Int,
		Prototype:    NewSumIntPrototype(),
	},
	{
		ArgumentType: chunkflow.Float,
		OutputType:   chunkflow.Float,
		Prototype:    NewSumFloatPrototype(),
	},
	{
		ArgumentType: chunkflow.Duration,
		OutputType:   chunkflow.Duration,
		Prototype:    NewSumDurationPrototype(),
	},
}

type SumInt struct {
	sum int
}

func NewSumIntPrototype() func() Aggregate {
	return func() Aggregate {
		return &SumInt{
			sum: 0,
		}
	}
}

func (c *SumInt) Add(value chunkflow.Value) {
	c.sum += value.Int
}

func (c *SumInt) Trigger() chunkflow.Value {
	return chunkflow.NewInt(c.sum)
}

type SumFloat struct {
	sum float64
}

func NewSumFloatPrototype() func() Aggregate {
	return func() Aggregate {
		return &SumFloat{
			sum: 0,
		}
	}
}

func (c *SumFloat) Add(value chunkflow.Value) {
	c.sum += value.Float
}

func (c *SumFloat) Trigger() chunkflow.Value {
	return chunkflow.NewFloat(c.sum)
}

type SumDuration struct {
	sum time.Duration
}

func NewSumDurationPrototype() func() Aggregate {
	return func() Aggregate {
		return &SumDuration{
			sum: 0,
		}
	}
}

func (c *SumDuration) Add(value chunkflow.Value) {
	c.sum += value.Duration
}

func (c *SumDuration) Trigger() chunkflow.Value {
	return chunkflow.NewDuration(c.sum)
}
