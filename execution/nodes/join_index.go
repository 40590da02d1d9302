package nodes

import (
	"github.com/tidwall/btree"

	"github.com/chunkflow/chunkflow/chunkflow"
	. "github.com/chunkflow/chunkflow/execution"
)

// joinIndex buffers the rows of one side of a hash join, keyed by their join key.
// Entries are ordered by key hash first, so full key comparisons only happen on hash ties.
// It only grows while the side is open.
type joinIndex struct {
	entries *btree.Generic[*joinEntry]
	rows    int
}

type joinEntry struct {
	hash uint64
	key  GroupKey
	rows [][]chunkflow.Value
}

func newJoinIndex() *joinIndex {
	return &joinIndex{
		entries: btree.NewGenericOptions[*joinEntry](
			func(a, b *joinEntry) bool {
				if a.hash != b.hash {
					return a.hash < b.hash
				}
				return GroupKeyLess(a.key, b.key)
			},
			btree.Options{
				NoLocks: true,
			},
		),
	}
}

func (ix *joinIndex) insert(key GroupKey, row []chunkflow.Value) {
	ix.rows++
	hash := key.Hash()
	if entry, ok := ix.entries.Get(&joinEntry{hash: hash, key: key}); ok {
		entry.rows = append(entry.rows, row)
		return
	}
	ix.entries.Set(&joinEntry{
		hash: hash,
		key:  key,
		rows: [][]chunkflow.Value{row},
	})
}

// lookup returns the rows with exactly the given key, type included.
func (ix *joinIndex) lookup(key GroupKey) [][]chunkflow.Value {
	entry, ok := ix.entries.Get(&joinEntry{hash: key.Hash(), key: key})
	if !ok {
		return nil
	}
	return entry.rows
}

func (ix *joinIndex) keys() int {
	return ix.entries.Len()
}

func (ix *joinIndex) size() int {
	return ix.rows
}
