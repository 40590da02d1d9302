package execution

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrEndOfStream = errors.New("end of stream")

var ErrColumnNotFound = errors.New("column not found")

// ErrGraphStalled is returned when a scheduling pass makes no progress while
// some node still waits for input. In a correctly wired graph closing the sources
// always drains everything downstream, so this points at a faulty node.
var ErrGraphStalled = errors.New("no node made progress while inputs remain open")

// ConfigurationError reports a malformed graph detected before any processing.
type ConfigurationError struct {
	Node string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("invalid graph configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid graph configuration of node %s: %v", e.Node, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ComputationError reports a node function faulting on a specific chunk.
type ComputationError struct {
	Node string
	Err  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("node %s failed: %v", e.Node, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// SourceReadError reports a failure of an external row provider.
type SourceReadError struct {
	Node  string
	Table string
	Err   error
}

func (e *SourceReadError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("source %s couldn't read: %v", e.Node, e.Err)
	}
	return fmt.Sprintf("source %s couldn't read table %s: %v", e.Node, e.Table, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

func configurationErrorf(node string, format string, args ...interface{}) error {
	return &ConfigurationError{Node: node, Err: errors.Errorf(format, args...)}
}
