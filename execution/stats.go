package execution

// RunStats is a snapshot of the progress of a run after a scheduling pass.
type RunStats struct {
	RunID string
	Pass  int
	Nodes []NodeStats
}

type NodeStats struct {
	ID        NodeID
	Name      string
	Kind      NodeKind
	ChunksIn  int
	ChunksOut int
	RowsOut   int
	// Buffered is the number of chunks in the output not yet read by every subscriber.
	Buffered int
	Done     bool
}

func (s *ExecutionService) stats(pass int) RunStats {
	stats := RunStats{
		RunID: s.runID.String(),
		Pass:  pass,
		Nodes: make([]NodeStats, len(s.slots)),
	}
	for i, slot := range s.slots {
		stats.Nodes[i] = NodeStats{
			ID:        slot.id,
			Name:      slot.name,
			Kind:      slot.node.Kind(),
			ChunksIn:  slot.chunksIn,
			ChunksOut: slot.output.chunksOut,
			RowsOut:   slot.output.rowsOut,
			Buffered:  slot.output.buffered(),
			Done:      slot.done,
		}
	}
	return stats
}
