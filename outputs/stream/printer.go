package stream

import (
	"github.com/pkg/errors"

	. "github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/outputs/formats"
)

// OutputPrinter writes result rows as soon as they reach the reader.
type OutputPrinter struct {
	reader *NodeReader
	format formats.Format

	schemaSet bool
	err       error
}

func NewOutputPrinter(reader *NodeReader, format formats.Format) *OutputPrinter {
	return &OutputPrinter{
		reader: reader,
		format: format,
	}
}

// Observe is meant to be registered as a run observer. The first write error is kept and returned by Close.
func (o *OutputPrinter) Observe(RunStats) {
	if o.err != nil {
		return
	}
	o.err = o.drain()
}

func (o *OutputPrinter) drain() error {
	for {
		chunk, ok := o.reader.Next()
		if !ok {
			return nil
		}
		if !o.schemaSet {
			o.format.SetSchema(chunk.Schema())
			o.schemaSet = true
		}
		for row := 0; row < chunk.NumRows(); row++ {
			if err := o.format.Write(chunk.Row(row)); err != nil {
				return errors.Wrap(err, "couldn't write row")
			}
		}
	}
}

// Close writes any rows left and closes the format.
func (o *OutputPrinter) Close() error {
	if o.err == nil {
		o.err = o.drain()
	}
	if o.err != nil {
		return o.err
	}
	if err := o.format.Close(); err != nil {
		return errors.Wrap(err, "couldn't close output formatter")
	}
	return nil
}
