package nodes

import (
	"io"
	"strconv"

	"github.com/pkg/errors"

	. "github.com/chunkflow/chunkflow/execution"
)

// Source reads at most one batch from its provider per advance.
type Source struct {
	table     string
	provider  RowProvider
	batchSize int
	pushed    bool
	done      bool
}

func NewSource(table string, provider RowProvider, batchSize int) *Source {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Source{
		table:     table,
		provider:  provider,
		batchSize: batchSize,
	}
}

func (s *Source) Kind() NodeKind {
	return KindSource
}

func (s *Source) Inputs() int {
	return 0
}

func (s *Source) Done() bool {
	return s.done
}

func (s *Source) OutputSchema(inputs []*Schema) (*Schema, error) {
	schema := s.provider.Schema()
	return &schema, nil
}

func (s *Source) Describe() map[string]string {
	return map[string]string{
		"table":      s.table,
		"batch_size": strconv.Itoa(s.batchSize),
	}
}

func (s *Source) Advance(step *Step) error {
	if s.done {
		return nil
	}

	chunk, err := s.provider.ReadBatch(step.Context(), s.batchSize)
	if errors.Is(err, ErrEndOfStream) {
		if err := s.closeProvider(); err != nil {
			return err
		}
		if !s.pushed {
			// Downstream nodes still learn the schema of an empty table.
			if err := step.Push(EmptyChunk(s.provider.Schema())); err != nil {
				return errors.Wrap(err, "couldn't push chunk")
			}
		}
		if err := step.Close(); err != nil {
			return errors.Wrap(err, "couldn't close output")
		}
		s.done = true
		step.Logger().Debug().Str("table", s.table).Msg("source exhausted")
		return nil
	} else if err != nil {
		_ = s.closeProvider()
		return &SourceReadError{Table: s.table, Err: err}
	}

	step.MarkProgress()
	if chunk.NumRows() == 0 {
		return nil
	}
	if err := step.Push(chunk); err != nil {
		return errors.Wrap(err, "couldn't push chunk")
	}
	s.pushed = true
	return nil
}

func (s *Source) closeProvider() error {
	closer, ok := s.provider.(io.Closer)
	if !ok {
		return nil
	}
	if err := closer.Close(); err != nil {
		return &SourceReadError{Table: s.table, Err: errors.Wrap(err, "couldn't close provider")}
	}
	return nil
}
