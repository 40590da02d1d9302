package execution

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// NodeID is a handle to a node registered with an ExecutionService.
type NodeID int

type NodeKind int

const (
	KindSource NodeKind = iota
	KindAppender
	KindAccumulator
	KindHashJoin
)

func (k NodeKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindAppender:
		return "appender"
	case KindAccumulator:
		return "accumulator"
	case KindHashJoin:
		return "hash_join"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is a single operator of the dataflow graph.
//
// Advance is called repeatedly by the scheduler. It should read whatever input is
// available, push any output it can produce and return. It must never block waiting
// for input. Once all inputs are closed and all state is flushed, the node closes its
// output and reports Done.
type Node interface {
	Kind() NodeKind
	Inputs() int
	Advance(step *Step) error
	Done() bool
}

// SchemaResolver is implemented by nodes which can compute their output schema
// from the schemas of their inputs before running.
type SchemaResolver interface {
	OutputSchema(inputs []*Schema) (*Schema, error)
}

// Step is the view of the graph a node gets during a single Advance call.
// It only exposes the node's input cursors and its own output port.
type Step struct {
	ctx    context.Context
	logger zerolog.Logger
	slot   *nodeSlot

	progressed bool
}

func (s *Step) Context() context.Context {
	return s.ctx
}

func (s *Step) Logger() *zerolog.Logger {
	return &s.logger
}

// Pull returns all chunks which arrived on the given input since the last Pull.
func (s *Step) Pull(input int) []Chunk {
	chunks := s.slot.inputs[input].read()
	if len(chunks) > 0 {
		s.progressed = true
		s.slot.chunksIn += len(chunks)
	}
	return chunks
}

// InputClosed reports whether the given input is closed and fully read.
func (s *Step) InputClosed(input int) bool {
	return s.slot.inputs[input].exhausted()
}

func (s *Step) Push(chunk Chunk) error {
	if err := s.slot.output.push(chunk); err != nil {
		return err
	}
	s.progressed = true
	return nil
}

func (s *Step) Close() error {
	if err := s.slot.output.close(); err != nil {
		return err
	}
	s.progressed = true
	return nil
}

func (s *Step) OutputClosed() bool {
	return s.slot.output.closed
}

// MarkProgress records progress not visible through Pull, Push or Close,
// like a source reading from its provider.
func (s *Step) MarkProgress() {
	s.progressed = true
}

type nodeSlot struct {
	id        NodeID
	name      string
	node      Node
	inputs    []*cursor
	producers []NodeID
	output    *outputPort

	chunksIn int
	done     bool
}
