package nodes

import (
	"fmt"

	"github.com/pkg/errors"

	. "github.com/chunkflow/chunkflow/execution"
)

// Appender transforms a single chunk. It's called for every input chunk, including empty ones.
type Appender interface {
	Run(chunk Chunk) (Chunk, error)
}

// MapAppender adapts a plain function to the Appender interface.
type MapAppender func(chunk Chunk) (Chunk, error)

func (f MapAppender) Run(chunk Chunk) (Chunk, error) {
	return f(chunk)
}

// AppenderNode applies its Appender to each arriving chunk, in arrival order.
type AppenderNode struct {
	appender Appender
	// schemaFn optionally computes the output schema from the input schema before running.
	schemaFn    func(input Schema) (Schema, error)
	description map[string]string
	done        bool
}

func NewAppenderNode(appender Appender) *AppenderNode {
	return &AppenderNode{
		appender: appender,
	}
}

// WithSchema makes the node's output schema statically known, so that the graph can be validated before running.
func (n *AppenderNode) WithSchema(schemaFn func(input Schema) (Schema, error)) *AppenderNode {
	n.schemaFn = schemaFn
	return n
}

// WithDescription sets the properties shown when the graph is explained.
func (n *AppenderNode) WithDescription(description map[string]string) *AppenderNode {
	n.description = description
	return n
}

func (n *AppenderNode) Describe() map[string]string {
	return n.description
}

func (n *AppenderNode) Kind() NodeKind {
	return KindAppender
}

func (n *AppenderNode) Inputs() int {
	return 1
}

func (n *AppenderNode) Done() bool {
	return n.done
}

func (n *AppenderNode) OutputSchema(inputs []*Schema) (*Schema, error) {
	if n.schemaFn == nil {
		return nil, nil
	}
	schema, err := n.schemaFn(*inputs[0])
	if err != nil {
		return nil, err
	}
	return &schema, nil
}

func (n *AppenderNode) Advance(step *Step) error {
	if n.done {
		return nil
	}

	for _, chunk := range step.Pull(0) {
		out, err := n.run(chunk)
		if err != nil {
			return &ComputationError{Err: err}
		}
		if err := step.Push(out); err != nil {
			return errors.Wrap(err, "couldn't push chunk")
		}
	}

	if step.InputClosed(0) {
		if err := step.Close(); err != nil {
			return errors.Wrap(err, "couldn't close output")
		}
		n.done = true
	}
	return nil
}

func (n *AppenderNode) run(chunk Chunk) (out Chunk, err error) {
	defer func() {
		if msg := recover(); msg != nil {
			err = fmt.Errorf("appender panicked: %v", msg)
		}
	}()
	return n.appender.Run(chunk)
}
