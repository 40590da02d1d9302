package execution

// NodeReader is the designated consumer of the graph's terminal node.
type NodeReader struct {
	cursor *cursor
	last   Chunk
	seen   bool
}

// Next returns the next unread chunk.
func (r *NodeReader) Next() (Chunk, bool) {
	chunk, ok := r.cursor.readOne()
	if ok {
		r.last = chunk
		r.seen = true
	}
	return chunk, ok
}

// Chunks returns all unread chunks.
func (r *NodeReader) Chunks() []Chunk {
	chunks := r.cursor.read()
	if len(chunks) > 0 {
		r.last = chunks[len(chunks)-1]
		r.seen = true
	}
	return chunks
}

// Last drains the reader and returns the final chunk emitted,
// which is the terminal emission for accumulators running with snapshots.
func (r *NodeReader) Last() (Chunk, bool) {
	r.Chunks()
	return r.last, r.seen
}

// Closed reports whether the producer closed its output and all chunks have been read.
func (r *NodeReader) Closed() bool {
	return r.cursor.exhausted()
}
