package aggregates

import (
	"fmt"
	"sort"

	"github.com/chunkflow/chunkflow/chunkflow"
)

// Aggregate is a running aggregate cell. Null values are never passed to Add.
type Aggregate interface {
	Add(value chunkflow.Value)
	Trigger() chunkflow.Value
}

type Descriptor struct {
	ArgumentType chunkflow.Type
	OutputType   chunkflow.Type
	Prototype    func() Aggregate
	// TriggerOnEmpty means the aggregate yields a value even if it never saw a non-null input.
	// Otherwise such a cell yields Null.
	TriggerOnEmpty bool
}

var Aggregates = map[string][]Descriptor{
	"count":          CountOverloads,
	"count_distinct": DistinctAggregateOverloads(CountOverloads),
	"sum":            SumOverloads,
	"avg":            AverageOverloads,
	"max":            MaxOverloads,
	"min":            MinOverloads,
}

// Names returns the available aggregate function names, sorted.
func Names() []string {
	out := make([]string, 0, len(Aggregates))
	for name := range Aggregates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve picks the overload of the named aggregate for the given argument type.
// Exact matches are preferred over overloads accepting any type.
func Resolve(name string, argumentType chunkflow.Type) (Descriptor, error) {
	overloads, ok := Aggregates[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("unknown aggregate: %s", name)
	}
	for _, overload := range overloads {
		if overload.ArgumentType == argumentType {
			return overload, nil
		}
	}
	for _, overload := range overloads {
		if overload.ArgumentType.TypeID == chunkflow.TypeIDAny {
			return overload, nil
		}
	}
	return Descriptor{}, fmt.Errorf("aggregate %s doesn't support arguments of type %s", name, argumentType)
}
