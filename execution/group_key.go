package execution

import (
	"github.com/chunkflow/chunkflow/chunkflow"
)

// GroupKey is a tuple of key column values of a single row.
type GroupKey []chunkflow.Value

func GroupKeyLess(key, than GroupKey) bool {
	return CompareValueSlices(key, than) == -1
}

func CompareValueSlices(key, than []chunkflow.Value) int {
	maxLen := len(key)
	if len(than) > maxLen {
		maxLen = len(than)
	}

	for i := 0; i < maxLen; i++ {
		if i == len(key) {
			return -1
		} else if i == len(than) {
			return 1
		}

		if comp := key[i].Compare(than[i]); comp != 0 {
			return comp
		}
	}

	return 0
}

func (key GroupKey) Equal(other GroupKey) bool {
	return CompareValueSlices(key, other) == 0
}

func (key GroupKey) Hash() uint64 {
	return chunkflow.HashValues(key)
}

// HasNull reports whether any of the key values is Null.
func (key GroupKey) HasNull() bool {
	for i := range key {
		if key[i].IsNull() {
			return true
		}
	}
	return false
}

// ProjectKey extracts the values of the given columns of a row into a new key.
func (c Chunk) ProjectKey(row int, columns []int) GroupKey {
	key := make(GroupKey, len(columns))
	for i, column := range columns {
		key[i] = c.columns[column][row]
	}
	return key
}
