package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/chunkflow/chunkflow/config"
	"github.com/chunkflow/chunkflow/datasources"
	"github.com/chunkflow/chunkflow/execution"
)

// NodeConfig is a single node of a pipeline. Settings other than name, type and inputs depend on the node type.
type NodeConfig struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Inputs []string               `yaml:"inputs"`
	Config map[string]interface{} `yaml:",inline"`
}

// Pipeline is a declarative description of an execution graph.
type Pipeline struct {
	Tables []datasources.TableInput `yaml:"tables"`
	Nodes  []NodeConfig             `yaml:"nodes"`
	// Output names the node whose output is read, the last node by default.
	Output string `yaml:"output"`
}

type Options struct {
	BatchSize     int
	EmitSnapshots bool
}

// Read parses the pipeline file. Relative table paths are relative to the file.
func Read(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read pipeline file")
	}
	pipeline, err := Parse(data)
	if err != nil {
		return nil, err
	}
	config.ResolveTablePaths(filepath.Dir(path), pipeline.Tables)
	return pipeline, nil
}

func Parse(data []byte) (*Pipeline, error) {
	var pipeline Pipeline
	if err := yaml.Unmarshal(data, &pipeline); err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml pipeline")
	}
	if len(pipeline.Nodes) == 0 {
		return nil, errors.New("pipeline has no nodes")
	}
	return &pipeline, nil
}

func (p *Pipeline) outputName() string {
	if p.Output != "" {
		return p.Output
	}
	return p.Nodes[len(p.Nodes)-1].Name
}

// Build registers the pipeline's tables in the catalog and its nodes in the service,
// returning the reader of the output node.
func (p *Pipeline) Build(ctx context.Context, service *execution.ExecutionService, catalog *datasources.Catalog, options Options) (*execution.NodeReader, error) {
	if options.BatchSize <= 0 {
		options.BatchSize = execution.DefaultBatchSize
	}
	for _, table := range p.Tables {
		if err := catalog.Register(table); err != nil {
			return nil, &execution.ConfigurationError{Err: err}
		}
	}

	b := &builder{
		ctx:     ctx,
		catalog: catalog,
		options: options,
	}

	ids := make(map[string]execution.NodeID, len(p.Nodes))
	for _, nodeConfig := range p.Nodes {
		if nodeConfig.Name == "" {
			return nil, &execution.ConfigurationError{Err: errors.Errorf("%s node without a name", nodeConfig.Type)}
		}
		if _, ok := ids[nodeConfig.Name]; ok {
			return nil, &execution.ConfigurationError{Node: nodeConfig.Name, Err: errors.New("node name used twice")}
		}
		build, ok := nodeBuilders[nodeConfig.Type]
		if !ok {
			return nil, &execution.ConfigurationError{Node: nodeConfig.Name, Err: errors.Errorf("unknown node type '%s'", nodeConfig.Type)}
		}
		node, err := build(b, nodeConfig)
		if err != nil {
			return nil, wrapConfigurationError(nodeConfig.Name, err)
		}
		if node.Inputs() != len(nodeConfig.Inputs) {
			return nil, &execution.ConfigurationError{
				Node: nodeConfig.Name,
				Err:  errors.Errorf("%s node takes %d inputs, got %d", nodeConfig.Type, node.Inputs(), len(nodeConfig.Inputs)),
			}
		}
		id, err := service.AddNamed(nodeConfig.Name, node)
		if err != nil {
			return nil, err
		}
		ids[nodeConfig.Name] = id
	}

	for _, nodeConfig := range p.Nodes {
		for i, input := range nodeConfig.Inputs {
			producer, ok := ids[input]
			if !ok {
				return nil, &execution.ConfigurationError{Node: nodeConfig.Name, Err: errors.Errorf("unknown input node '%s'", input)}
			}
			if err := service.Subscribe(ids[nodeConfig.Name], producer, i); err != nil {
				return nil, err
			}
		}
	}

	output, ok := ids[p.outputName()]
	if !ok {
		return nil, &execution.ConfigurationError{Err: errors.Errorf("unknown output node '%s'", p.Output)}
	}
	return service.Reader(output)
}

// wrapConfigurationError attributes err to the node, keeping source errors as they are.
func wrapConfigurationError(node string, err error) error {
	var configErr *execution.ConfigurationError
	var sourceErr *execution.SourceReadError
	switch {
	case errors.As(err, &configErr):
		if configErr.Node == "" {
			configErr.Node = node
		}
		return err
	case errors.As(err, &sourceErr):
		return err
	}
	return &execution.ConfigurationError{Node: node, Err: err}
}
