package execution

// NodeDescription describes a registered node for rendering the graph.
type NodeDescription struct {
	ID        NodeID
	Name      string
	Kind      NodeKind
	Producers []NodeID
	// Schema is nil when the output schema isn't known before running.
	Schema *Schema
	Reader bool
	// Properties holds node-specific settings, if the node implements Describer.
	Properties map[string]string
}

// Describer is implemented by nodes which expose their settings for explain output.
type Describer interface {
	Describe() map[string]string
}

// Describe lists the registered nodes in topological order.
func (s *ExecutionService) Describe() ([]NodeDescription, error) {
	order, err := s.topologicalOrder()
	if err != nil {
		return nil, err
	}
	schemas, err := s.resolveSchemas(order)
	if err != nil {
		return nil, err
	}

	out := make([]NodeDescription, len(order))
	for i, id := range order {
		slot := s.slots[id]
		producers := make([]NodeID, len(slot.producers))
		copy(producers, slot.producers)
		out[i] = NodeDescription{
			ID:        id,
			Name:      slot.name,
			Kind:      slot.node.Kind(),
			Producers: producers,
			Schema:    schemas[id],
			Reader:    s.reader != nil && s.readerOf == id,
		}
		if describer, ok := slot.node.(Describer); ok {
			out[i].Properties = describer.Describe()
		}
	}
	return out, nil
}
