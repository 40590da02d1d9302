package batch

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uilive"

	. "github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/outputs/formats"
)

// OutputPrinter collects the result of a run and prints it as a whole once the run finishes.
// In live mode the current result is re-rendered in place while the run progresses.
type OutputPrinter struct {
	reader     *NodeReader
	orderBy    string
	descending bool
	limit      int

	format func(io.Writer) formats.Format
	live   bool
	// snapshots means every chunk replaces the previous result instead of extending it.
	snapshots bool

	out        io.Writer
	liveWriter *uilive.Writer
	lastUpdate time.Time
	chunks     []Chunk
}

func NewOutputPrinter(reader *NodeReader, orderBy string, descending bool, limit int, format func(io.Writer) formats.Format, live, snapshots bool, out io.Writer) *OutputPrinter {
	liveWriter := uilive.New()
	liveWriter.Out = out

	return &OutputPrinter{
		reader:     reader,
		orderBy:    orderBy,
		descending: descending,
		limit:      limit,
		format:     format,
		live:       live,
		snapshots:  snapshots,
		out:        out,
		liveWriter: liveWriter,
	}
}

// Observe is meant to be registered as a run observer.
func (o *OutputPrinter) Observe(stats RunStats) {
	o.collect()

	if o.live && time.Since(o.lastUpdate) > time.Second/4 {
		o.lastUpdate = time.Now()
		var buf bytes.Buffer
		if err := o.render(&buf); err != nil {
			fmt.Fprintf(&buf, "couldn't render result: %s\n", err)
		}
		fmt.Fprintf(&buf, "pass: %d\n", stats.Pass)

		buf.WriteTo(o.liveWriter)
		o.liveWriter.Flush()
	}
}

// Print writes the final result.
func (o *OutputPrinter) Print() error {
	o.collect()

	var buf bytes.Buffer
	if err := o.render(&buf); err != nil {
		return err
	}
	if o.live {
		buf.WriteTo(o.liveWriter)
		return o.liveWriter.Flush()
	}
	_, err := buf.WriteTo(o.out)
	return err
}

func (o *OutputPrinter) collect() {
	chunks := o.reader.Chunks()
	if len(chunks) == 0 {
		return
	}
	if o.snapshots {
		o.chunks = chunks[len(chunks)-1:]
		return
	}
	o.chunks = append(o.chunks, chunks...)
}

func (o *OutputPrinter) render(w io.Writer) error {
	if len(o.chunks) == 0 {
		return nil
	}
	result, err := Concat(o.chunks...)
	if err != nil {
		return fmt.Errorf("couldn't merge result chunks: %w", err)
	}
	if o.orderBy != "" {
		if result, err = result.SortBy(o.orderBy, o.descending); err != nil {
			return fmt.Errorf("couldn't order result: %w", err)
		}
	}
	if o.limit > 0 {
		result = result.Head(o.limit)
	}
	return formats.WriteChunks(o.format(w), result)
}
