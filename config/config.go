package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/chunkflow/chunkflow/datasources"
	"github.com/chunkflow/chunkflow/execution"
)

var CacheDir = func() string {
	dir, err := homedir.Dir()
	if err != nil {
		log.Fatalf("couldn't get user home directory: %s", err)
	}
	return filepath.Join(dir, ".chunkflow")
}()

// DefaultPath is where the configuration is read from when no path is given.
func DefaultPath() string {
	return filepath.Join(CacheDir, "config.yml")
}

type ExecutionConfig struct {
	BatchSize     int  `yaml:"batchSize"`
	EmitSnapshots bool `yaml:"emitSnapshots"`
}

type OutputConfig struct {
	// Format is one of table, csv or json.
	Format string `yaml:"format"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File sends logs to ~/.chunkflow/logs.txt instead of stderr.
	File bool `yaml:"file"`
}

type Config struct {
	Tables    []datasources.TableInput `yaml:"tables"`
	Execution ExecutionConfig          `yaml:"execution"`
	Output    OutputConfig             `yaml:"output"`
	Logging   LoggingConfig            `yaml:"logging"`
}

func Default() *Config {
	return &Config{
		Execution: ExecutionConfig{
			BatchSize: execution.DefaultBatchSize,
		},
		Output: OutputConfig{
			Format: "table",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (config *Config) GetTable(name string) (datasources.TableInput, error) {
	for i := range config.Tables {
		if config.Tables[i].Name == name {
			return config.Tables[i], nil
		}
	}

	return datasources.TableInput{}, ErrNotFound
}

// ReadConfig reads the configuration at path, filling unset fields with defaults.
// An empty path reads DefaultPath, which is allowed to be missing.
func ReadConfig(path string) (*Config, error) {
	optional := false
	if path == "" {
		path = DefaultPath()
		optional = true
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't expand config path")
	}

	config := Default()

	f, err := os.Open(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return config, nil
		}
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(config); err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml configuration")
	}
	if config.Execution.BatchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", config.Execution.BatchSize)
	}

	ResolveTablePaths(filepath.Dir(path), config.Tables)

	return config, nil
}

// ResolveTablePaths makes relative file table paths relative to base.
func ResolveTablePaths(base string, tables []datasources.TableInput) {
	for i := range tables {
		if p := tables[i].Path; p != "" && tables[i].Postgres == nil {
			tables[i].Path = resolvePath(base, p)
		}
	}
}

func resolvePath(base, path string) string {
	expanded, err := homedir.Expand(path)
	if err == nil {
		path = expanded
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
