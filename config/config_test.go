package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/chunkflow/chunkflow/datasources"
	"github.com/chunkflow/chunkflow/datasources/postgres"
	"github.com/chunkflow/chunkflow/execution"
)

func TestReadConfig(t *testing.T) {
	got, err := ReadConfig("fixtures/example.yml")
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Tables: []datasources.TableInput{
			{
				Name:   "people",
				Path:   filepath.Join("fixtures", "data/people.csv"),
				Header: true,
			},
			{
				Name:    "lineitem",
				Path:    "/data/tpch/lineitem.tbl",
				Columns: []string{"l_orderkey", "l_partkey", "l_extendedprice"},
			},
			{
				Name: "events",
				Path: filepath.Join("fixtures", "data/events.jsonl"),
			},
			{
				Name: "users",
				Postgres: &postgres.Config{
					Host:     "localhost",
					Port:     5432,
					User:     "root",
					Password: "toor",
					Database: "mydb",
				},
			},
		},
		Execution: ExecutionConfig{
			BatchSize:     1024,
			EmitSnapshots: true,
		},
		Output: OutputConfig{
			Format: "csv",
		},
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "console",
		},
	}, got)

	table, err := got.GetTable("lineitem")
	require.NoError(t, err)
	assert.Equal(t, datasources.FormatTbl, table.FormatOrDefault())

	_, err = got.GetTable("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadConfig_Errors(t *testing.T) {
	_, err := ReadConfig("fixtures/missing.yml")
	assert.Error(t, err)

	_, err = ReadConfig("fixtures/negative_batch.yml")
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	config := Default()
	assert.Equal(t, execution.DefaultBatchSize, config.Execution.BatchSize)
	assert.Equal(t, "table", config.Output.Format)
	assert.Equal(t, filepath.Join(CacheDir, "config.yml"), DefaultPath())
}

func TestGetters(t *testing.T) {
	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(`
on: [k]
right:
  on: k2
  suffix: "_r"
limit: "10"
ratio: 0.5
descending: true
`), &raw))

	list, err := GetStringList(raw, "on")
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, list)

	list, err = GetStringList(raw, "right.on")
	require.NoError(t, err)
	assert.Equal(t, []string{"k2"}, list)

	suffix, err := GetString(raw, "right.suffix")
	require.NoError(t, err)
	assert.Equal(t, "_r", suffix)

	limit, err := GetInt(raw, "limit")
	require.NoError(t, err)
	assert.Equal(t, 10, limit)

	ratio, err := GetFloat64(raw, "ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.5, ratio)

	descending, err := GetBool(raw, "descending")
	require.NoError(t, err)
	assert.True(t, descending)

	right, err := GetMap(raw, "right")
	require.NoError(t, err)
	assert.Len(t, right, 2)

	missing, err := GetString(raw, "left.suffix", WithDefault("_l"))
	require.NoError(t, err)
	assert.Equal(t, "_l", missing)

	_, err = GetString(raw, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = GetBool(raw, "limit")
	assert.Error(t, err)

	_, err = GetString(raw, "on.nested")
	assert.Error(t, err)
}
