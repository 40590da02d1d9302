package aggregates

import (
	"time"

	"github.com/chunkflow/chunkflow/chunkflow"
)

var AverageOverloads = []Descriptor{
	{
		ArgumentType: chunkflow.Int,
		OutputType:   chunkflow.Float,
		Prototype:    NewAverageIntPrototype(),
	},
	{
		ArgumentType: chunkflow.Float,
		OutputType:   chunkflow.Float,
		Prototype:    NewAverageFloatPrototype(),
	},
	{
		ArgumentType: chunkflow.Duration,
		OutputType:   chunkflow.Duration,
		Prototype:    NewAverageDurationPrototype(),
	},
}

type AverageInt struct {
	sum   SumInt
	count Count
}

func NewAverageIntPrototype() func() Aggregate {
	return func() Aggregate {
		return &AverageInt{
			sum:   SumInt{},
			count: Count{},
		}
	}
}

func (c *AverageInt) Add(value chunkflow.Value) {
	c.sum.Add(value)
	c.count.Add(value)
}

func (c *AverageInt) Trigger() chunkflow.Value {
	return chunkflow.NewFloat(float64(c.sum.Trigger().Int) / float64(c.count.Trigger().Int))
}

type AverageFloat struct {
	sum   SumFloat
	count Count
}

func NewAverageFloatPrototype() func() Aggregate {
	return func() Aggregate {
		return &AverageFloat{
			sum:   SumFloat{},
			count: Count{},
		}
	}
}

func (c *AverageFloat) Add(value chunkflow.Value) {
	c.sum.Add(value)
	c.count.Add(value)
}

func (c *AverageFloat) Trigger() chunkflow.Value {
	return chunkflow.NewFloat(c.sum.Trigger().Float / float64(c.count.Trigger().Int))
}

type AverageDuration struct {
	sum   SumDuration
	count Count
}

func NewAverageDurationPrototype() func() Aggregate {
	return func() Aggregate {
		return &AverageDuration{
			sum:   SumDuration{},
			count: Count{},
		}
	}
}

func (c *AverageDuration) Add(value chunkflow.Value) {
	c.sum.Add(value)
	c.count.Add(value)
}

func (c *AverageDuration) Trigger() chunkflow.Value {
	return chunkflow.NewDuration(c.sum.Trigger().Duration / time.Duration(c.count.Trigger().Int))
}
