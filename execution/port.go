package execution

import (
	"github.com/pkg/errors"
)

var errPushAfterClose = errors.New("push to a closed output")
var errDoubleClose = errors.New("output closed twice")

// outputPort is a single-producer multi-consumer append-only chunk buffer.
// Every subscriber reads it through its own cursor. The prefix read by all
// cursors is released.
type outputPort struct {
	chunks []Chunk
	// offset is the absolute index of chunks[0].
	offset  int
	closed  bool
	cursors []*cursor

	chunksOut int
	rowsOut   int
}

type cursor struct {
	port *outputPort
	next int
}

func (p *outputPort) subscribe() *cursor {
	c := &cursor{
		port: p,
		next: p.offset + len(p.chunks),
	}
	p.cursors = append(p.cursors, c)
	return c
}

func (p *outputPort) push(chunk Chunk) error {
	if p.closed {
		return errPushAfterClose
	}
	p.chunksOut++
	p.rowsOut += chunk.NumRows()
	if len(p.cursors) == 0 {
		p.offset++
		return nil
	}
	p.chunks = append(p.chunks, chunk)
	return nil
}

func (p *outputPort) close() error {
	if p.closed {
		return errDoubleClose
	}
	p.closed = true
	return nil
}

func (p *outputPort) release() {
	min := p.offset + len(p.chunks)
	for _, c := range p.cursors {
		if c.next < min {
			min = c.next
		}
	}
	released := min - p.offset
	if released == 0 {
		return
	}
	for i := 0; i < released; i++ {
		p.chunks[i] = Chunk{}
	}
	p.chunks = p.chunks[released:]
	p.offset = min
}

func (p *outputPort) buffered() int {
	return len(p.chunks)
}

// read returns all chunks pending for this cursor and advances it.
func (c *cursor) read() []Chunk {
	p := c.port
	end := p.offset + len(p.chunks)
	if c.next == end {
		return nil
	}
	out := make([]Chunk, end-c.next)
	copy(out, p.chunks[c.next-p.offset:])
	c.next = end
	p.release()
	return out
}

// readOne returns the next pending chunk for this cursor, if any.
func (c *cursor) readOne() (Chunk, bool) {
	p := c.port
	if c.next == p.offset+len(p.chunks) {
		return Chunk{}, false
	}
	chunk := p.chunks[c.next-p.offset]
	c.next++
	p.release()
	return chunk, true
}

func (c *cursor) pending() int {
	return c.port.offset + len(c.port.chunks) - c.next
}

// exhausted reports whether the producer closed its output and everything has been read.
func (c *cursor) exhausted() bool {
	return c.port.closed && c.pending() == 0
}
