package cmd

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uilive"
	"github.com/olekukonko/tablewriter"

	"github.com/chunkflow/chunkflow/execution"
)

type progressPrinter struct {
	liveWriter *uilive.Writer
	lastUpdate time.Time
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	liveWriter := uilive.New()
	liveWriter.Out = out
	return &progressPrinter{
		liveWriter: liveWriter,
	}
}

func (p *progressPrinter) Observe(stats execution.RunStats) {
	finished := true
	for _, node := range stats.Nodes {
		if !node.Done {
			finished = false
			break
		}
	}
	if !finished && time.Since(p.lastUpdate) < time.Second/4 {
		return
	}
	p.lastUpdate = time.Now()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "run %s, pass %d\n", stats.RunID, stats.Pass)
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"node", "kind", "chunks in", "chunks out", "rows out", "buffered", "done"})
	table.SetAutoFormatHeaders(false)
	for _, node := range stats.Nodes {
		table.Append([]string{
			node.Name,
			node.Kind.String(),
			fmt.Sprint(node.ChunksIn),
			fmt.Sprint(node.ChunksOut),
			fmt.Sprint(node.RowsOut),
			fmt.Sprint(node.Buffered),
			fmt.Sprint(node.Done),
		})
	}
	table.Render()

	buf.WriteTo(p.liveWriter)
	p.liveWriter.Flush()
}
