package execution

import (
	"context"
	"crypto/rand"
	"fmt"
	"reflect"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type ServiceOption func(s *ExecutionService)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *ExecutionService) {
		s.logger = logger
	}
}

// WithObserver registers a callback invoked with the current statistics after every scheduling pass.
func WithObserver(observer func(stats RunStats)) ServiceOption {
	return func(s *ExecutionService) {
		s.observers = append(s.observers, observer)
	}
}

// ExecutionService owns the nodes of a single graph and drives it to completion.
// It's meant to be built, run once and discarded.
type ExecutionService struct {
	logger    zerolog.Logger
	observers []func(stats RunStats)

	slots      []*nodeSlot
	registered map[Node]NodeID
	reader     *NodeReader
	readerOf   NodeID

	started bool
	runID   ulid.ULID
}

func NewExecutionService(opts ...ServiceOption) *ExecutionService {
	s := &ExecutionService{
		logger:     zerolog.Nop(),
		registered: map[Node]NodeID{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe registers an observer after construction, e.g. one that needs the reader.
func (s *ExecutionService) Observe(observer func(stats RunStats)) error {
	if s.started {
		return configurationErrorf("", "can't add an observer to a started run")
	}
	s.observers = append(s.observers, observer)
	return nil
}

// Add registers a node under a generated name.
func (s *ExecutionService) Add(node Node) (NodeID, error) {
	return s.AddNamed("", node)
}

func (s *ExecutionService) AddNamed(name string, node Node) (NodeID, error) {
	if s.started {
		return 0, configurationErrorf(name, "can't add nodes after the run started")
	}
	if node == nil {
		return 0, configurationErrorf(name, "node is nil")
	}
	if !reflect.TypeOf(node).Comparable() {
		return 0, configurationErrorf(name, "node of type %T must be a pointer", node)
	}
	if id, ok := s.registered[node]; ok {
		return 0, configurationErrorf(s.slots[id].name, "node registered twice")
	}

	id := NodeID(len(s.slots))
	if name == "" {
		name = fmt.Sprintf("%s_%d", node.Kind(), id)
	}
	s.slots = append(s.slots, &nodeSlot{
		id:        id,
		name:      name,
		node:      node,
		inputs:    make([]*cursor, node.Inputs()),
		producers: make([]NodeID, node.Inputs()),
		output:    &outputPort{},
	})
	s.registered[node] = id
	return id, nil
}

// Subscribe connects the output of producer to the given input of consumer.
func (s *ExecutionService) Subscribe(consumer, producer NodeID, input int) error {
	if s.started {
		return configurationErrorf("", "can't subscribe after the run started")
	}
	consumerSlot, err := s.slot(consumer)
	if err != nil {
		return err
	}
	producerSlot, err := s.slot(producer)
	if err != nil {
		return err
	}
	if input < 0 || input >= len(consumerSlot.inputs) {
		return configurationErrorf(consumerSlot.name, "input %d out of range, node has %d inputs", input, len(consumerSlot.inputs))
	}
	if consumerSlot.inputs[input] != nil {
		return configurationErrorf(consumerSlot.name, "input %d already subscribed to %s", input, s.slots[consumerSlot.producers[input]].name)
	}

	consumerSlot.inputs[input] = producerSlot.output.subscribe()
	consumerSlot.producers[input] = producer
	return nil
}

// Reader registers the single output reader of the graph on the given node.
func (s *ExecutionService) Reader(producer NodeID) (*NodeReader, error) {
	if s.started {
		return nil, configurationErrorf("", "can't register a reader after the run started")
	}
	producerSlot, err := s.slot(producer)
	if err != nil {
		return nil, err
	}
	if s.reader != nil {
		return nil, configurationErrorf(producerSlot.name, "a reader is already registered on %s", s.slots[s.readerOf].name)
	}
	s.reader = &NodeReader{cursor: producerSlot.output.subscribe()}
	s.readerOf = producer
	return s.reader, nil
}

func (s *ExecutionService) slot(id NodeID) (*nodeSlot, error) {
	if int(id) < 0 || int(id) >= len(s.slots) {
		return nil, configurationErrorf("", "unknown node id %d", id)
	}
	return s.slots[id], nil
}

// Validate checks the graph without running it.
func (s *ExecutionService) Validate() error {
	_, err := s.validate()
	return err
}

func (s *ExecutionService) validate() ([]NodeID, error) {
	if len(s.slots) == 0 {
		return nil, configurationErrorf("", "graph has no nodes")
	}
	for _, slot := range s.slots {
		for i := range slot.inputs {
			if slot.inputs[i] == nil {
				return nil, configurationErrorf(slot.name, "input %d is not subscribed", i)
			}
		}
	}
	if s.reader == nil {
		return nil, configurationErrorf("", "no output reader registered")
	}
	order, err := s.topologicalOrder()
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveSchemas(order); err != nil {
		return nil, err
	}
	return order, nil
}

// topologicalOrder uses Kahn's algorithm, sources come first.
func (s *ExecutionService) topologicalOrder() ([]NodeID, error) {
	inDegree := make([]int, len(s.slots))
	dependents := make([][]NodeID, len(s.slots))
	for _, slot := range s.slots {
		for _, producer := range slot.producers {
			inDegree[slot.id]++
			dependents[producer] = append(dependents[producer], slot.id)
		}
	}

	var queue []NodeID
	for id := range inDegree {
		if inDegree[id] == 0 {
			queue = append(queue, NodeID(id))
		}
	}

	order := make([]NodeID, 0, len(s.slots))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, dependent := range dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(s.slots) {
		for id := range inDegree {
			if inDegree[id] > 0 {
				return nil, configurationErrorf(s.slots[id].name, "cycle detected, ordered %d of %d nodes", len(order), len(s.slots))
			}
		}
	}
	return order, nil
}

// resolveSchemas computes statically known output schemas, a nil entry means unknown.
func (s *ExecutionService) resolveSchemas(order []NodeID) ([]*Schema, error) {
	schemas := make([]*Schema, len(s.slots))
nodeLoop:
	for _, id := range order {
		slot := s.slots[id]
		resolver, ok := slot.node.(SchemaResolver)
		if !ok {
			continue
		}
		inputs := make([]*Schema, len(slot.producers))
		for i, producer := range slot.producers {
			if schemas[producer] == nil {
				continue nodeLoop
			}
			inputs[i] = schemas[producer]
		}
		schema, err := resolver.OutputSchema(inputs)
		if err != nil {
			return nil, &ConfigurationError{Node: slot.name, Err: err}
		}
		schemas[id] = schema
	}
	return schemas, nil
}

// Run drives the graph until the node feeding the reader closes its output.
func (s *ExecutionService) Run(ctx context.Context) error {
	if s.started {
		return configurationErrorf("", "execution service can only be run once")
	}
	s.started = true

	order, err := s.validate()
	if err != nil {
		return err
	}

	s.runID = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	logger := s.logger.With().Str("run_id", s.runID.String()).Logger()
	logger.Info().Int("nodes", len(s.slots)).Str("reader", s.slots[s.readerOf].name).Msg("starting run")
	start := time.Now()

	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Int("pass", pass).Msg("run canceled")
			return errors.Wrap(err, "run canceled")
		}

		progressed := false
		for _, id := range order {
			slot := s.slots[id]
			if slot.done {
				continue
			}
			step := &Step{
				ctx:    ctx,
				logger: logger.With().Str("node", slot.name).Logger(),
				slot:   slot,
			}
			if err := s.advance(slot, step); err != nil {
				logger.Error().Err(err).Str("node", slot.name).Int("pass", pass).Msg("node failed")
				return err
			}
			if step.progressed {
				progressed = true
			}
			if slot.node.Done() {
				slot.done = true
				progressed = true
				logger.Debug().Str("node", slot.name).Int("pass", pass).Msg("node done")
			}
		}

		if len(s.observers) > 0 {
			stats := s.stats(pass)
			for _, observer := range s.observers {
				observer(stats)
			}
		}

		if s.slots[s.readerOf].output.closed {
			logger.Info().Int("passes", pass).Dur("elapsed", time.Since(start)).Msg("run finished")
			return nil
		}
		if !progressed {
			for _, id := range order {
				if slot := s.slots[id]; !slot.done {
					logger.Error().Str("node", slot.name).Int("pass", pass).Msg("node stalled")
				}
			}
			return errors.Wrapf(ErrGraphStalled, "pass %d", pass)
		}
	}
}

func (s *ExecutionService) advance(slot *nodeSlot, step *Step) (err error) {
	defer func() {
		if msg := recover(); msg != nil {
			err = &ComputationError{Node: slot.name, Err: errors.Errorf("panic: %v", msg)}
		}
	}()

	if err := slot.node.Advance(step); err != nil {
		var configErr *ConfigurationError
		var computationErr *ComputationError
		var sourceErr *SourceReadError
		switch {
		case errors.As(err, &configErr):
			if configErr.Node == "" {
				configErr.Node = slot.name
			}
			return err
		case errors.As(err, &computationErr):
			if computationErr.Node == "" {
				computationErr.Node = slot.name
			}
			return err
		case errors.As(err, &sourceErr):
			if sourceErr.Node == "" {
				sourceErr.Node = slot.name
			}
			return err
		}
		return &ComputationError{Node: slot.name, Err: err}
	}
	return nil
}

// RunID returns the id of the run, it's zero before Run is called.
func (s *ExecutionService) RunID() ulid.ULID {
	return s.runID
}
