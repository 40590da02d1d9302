package datasources

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chunkflow/chunkflow/datasources/csv"
	"github.com/chunkflow/chunkflow/datasources/json"
	"github.com/chunkflow/chunkflow/datasources/parquet"
	"github.com/chunkflow/chunkflow/datasources/postgres"
	"github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/execution/nodes"
)

const (
	FormatCSV      = "csv"
	FormatTbl      = "tbl"
	FormatJSON     = "json"
	FormatParquet  = "parquet"
	FormatPostgres = "postgres"
)

// TableInput describes where a table comes from.
type TableInput struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	// Delimiter of csv and tbl files, defaults to ',' and '|' respectively.
	Delimiter string `yaml:"delimiter"`
	// Header means the first csv row holds column names. Files without Columns always have one.
	Header bool `yaml:"header"`
	// Columns names the columns of files without a header row.
	Columns []string `yaml:"columns"`
	// InferenceRows is the number of csv and tbl rows column types are inferred from.
	// Zero means csv.DefaultInferenceRows, -1 the whole file.
	InferenceRows int              `yaml:"inferenceRows"`
	Postgres      *postgres.Config `yaml:"postgres"`
}

// FormatOrDefault returns the configured format, or the one implied by the file extension.
func (t TableInput) FormatOrDefault() string {
	if t.Format != "" {
		return t.Format
	}
	if t.Postgres != nil {
		return FormatPostgres
	}
	ext := strings.TrimPrefix(filepath.Ext(strings.TrimSuffix(t.Path, ".gz")), ".")
	switch ext {
	case "jsonl", "ndjson", "json":
		return FormatJSON
	case "tbl":
		return FormatTbl
	case "parquet":
		return FormatParquet
	}
	return FormatCSV
}

// Table is an opened table description.
type Table interface {
	Schema() execution.Schema
	Open(ctx context.Context, columns []string) (execution.RowProvider, error)
}

type tableFunc struct {
	schema execution.Schema
	open   func(ctx context.Context, columns []string) (execution.RowProvider, error)
}

func (t *tableFunc) Schema() execution.Schema {
	return t.schema
}

func (t *tableFunc) Open(ctx context.Context, columns []string) (execution.RowProvider, error) {
	return t.open(ctx, columns)
}

// Catalog resolves table names to row providers. Inferred tables are cached.
type Catalog struct {
	logger zerolog.Logger
	inputs map[string]TableInput
	tables *ristretto.Cache
}

func NewCatalog(logger zerolog.Logger, inputs ...TableInput) (*Catalog, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 128,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create table cache")
	}
	c := &Catalog{
		logger: logger,
		inputs: map[string]TableInput{},
		tables: cache,
	}
	for _, input := range inputs {
		if err := c.Register(input); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) Register(input TableInput) error {
	if input.Name == "" {
		return errors.New("table name can't be empty")
	}
	if _, ok := c.inputs[input.Name]; ok {
		return errors.Errorf("table %s registered twice", input.Name)
	}
	switch input.FormatOrDefault() {
	case FormatCSV, FormatTbl, FormatJSON, FormatParquet:
		if input.Path == "" {
			return errors.Errorf("table %s has no path", input.Name)
		}
	case FormatPostgres:
		if input.Postgres == nil {
			return errors.Errorf("table %s has no postgres config", input.Name)
		}
	default:
		return errors.Errorf("table %s has unknown format %s", input.Name, input.Format)
	}
	c.inputs[input.Name] = input
	return nil
}

func (c *Catalog) Tables() []TableInput {
	out := make([]TableInput, 0, len(c.inputs))
	for _, input := range c.inputs {
		out = append(out, input)
	}
	return out
}

// Table returns the description of the named table, inferring its schema on first use.
func (c *Catalog) Table(ctx context.Context, name string) (Table, error) {
	input, ok := c.inputs[name]
	if !ok {
		return nil, errors.Errorf("unknown table %s", name)
	}
	if cached, ok := c.tables.Get(name); ok {
		return cached.(Table), nil
	}

	table, err := c.create(ctx, input)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't describe table %s", name)
	}
	c.tables.Set(name, table, int64(len(table.Schema().Fields)))
	return table, nil
}

func (c *Catalog) create(ctx context.Context, input TableInput) (Table, error) {
	switch format := input.FormatOrDefault(); format {
	case FormatCSV, FormatTbl:
		options := csv.Options{
			ColumnNames:   input.Columns,
			Header:        input.Header,
			InferenceRows: input.InferenceRows,
		}
		if format == FormatTbl {
			options.Delimiter = '|'
			options.Header = false
		}
		if input.Delimiter != "" {
			delimiter, size := utf8.DecodeRuneInString(input.Delimiter)
			if size != len(input.Delimiter) {
				return nil, fmt.Errorf("delimiter must be a single character, got '%s'", input.Delimiter)
			}
			options.Delimiter = delimiter
		}
		table, err := csv.Creator(ctx, input.Path, options)
		if err != nil {
			return nil, err
		}
		return &tableFunc{
			schema: table.Schema(),
			open: func(ctx context.Context, columns []string) (execution.RowProvider, error) {
				return table.Open(ctx, columns)
			},
		}, nil

	case FormatJSON:
		table, err := json.Creator(ctx, input.Path)
		if err != nil {
			return nil, err
		}
		return &tableFunc{
			schema: table.Schema(),
			open: func(ctx context.Context, columns []string) (execution.RowProvider, error) {
				return table.Open(ctx, columns)
			},
		}, nil

	case FormatParquet:
		table, err := parquet.Creator(ctx, input.Path)
		if err != nil {
			return nil, err
		}
		return &tableFunc{
			schema: table.Schema(),
			open: func(ctx context.Context, columns []string) (execution.RowProvider, error) {
				return table.Open(ctx, columns)
			},
		}, nil

	case FormatPostgres:
		tableName := input.Path
		if tableName == "" {
			tableName = input.Name
		}
		table, err := postgres.Creator(ctx, input.Postgres, tableName, c.logger)
		if err != nil {
			return nil, err
		}
		return &tableFunc{
			schema: table.Schema(),
			open: func(ctx context.Context, columns []string) (execution.RowProvider, error) {
				return table.Open(ctx, columns)
			},
		}, nil
	}
	return nil, errors.Errorf("unknown format %s", input.Format)
}

// Open returns a provider of the named table, projected to the given columns.
func (c *Catalog) Open(ctx context.Context, name string, columns []string) (execution.RowProvider, error) {
	table, err := c.Table(ctx, name)
	if err != nil {
		return nil, &execution.SourceReadError{Node: name, Table: name, Err: err}
	}
	provider, err := table.Open(ctx, columns)
	if err != nil {
		return nil, &execution.SourceReadError{Node: name, Table: name, Err: err}
	}
	return provider, nil
}

// BuildSourceNode registers a source node reading the given columns of a table.
func BuildSourceNode(ctx context.Context, service *execution.ExecutionService, catalog *Catalog, table string, columns []string, batchSize int) (execution.NodeID, error) {
	provider, err := catalog.Open(ctx, table, columns)
	if err != nil {
		return 0, err
	}
	id, err := service.AddNamed(table, nodes.NewSource(table, provider, batchSize))
	if err != nil {
		return 0, err
	}
	return id, nil
}
