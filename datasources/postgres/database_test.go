package postgres

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/execution"
)

func TestTable_SelectQuery(t *testing.T) {
	table := &Table{
		table: "line items",
		columns: []column{
			{field: execution.Field{Name: "id", Type: chunkflow.Int}},
			{field: execution.Field{Name: "price", Type: chunkflow.Float}, cast: "::float8"},
			{field: execution.Field{Name: "name", Type: chunkflow.String}},
		},
	}

	query, fields, err := table.selectQuery([]string{"price", "id"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "price"::float8, "id" FROM "line items"`, query)
	assert.Equal(t, []execution.Field{
		{Name: "price", Type: chunkflow.Float},
		{Name: "id", Type: chunkflow.Int},
	}, fields)

	query, fields, err = table.selectQuery(nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "price"::float8, "name" FROM "line items"`, query)
	assert.Len(t, fields, 3)

	_, _, err = table.selectQuery([]string{"missing"})
	assert.True(t, errors.Is(err, execution.ErrColumnNotFound))
}

func TestGetType(t *testing.T) {
	tests := []struct {
		dataType string
		want     chunkflow.Type
		cast     string
	}{
		{"integer", chunkflow.Int, ""},
		{"numeric", chunkflow.Float, "::float8"},
		{"character varying", chunkflow.String, ""},
		{"date", chunkflow.Time, ""},
		{"jsonb", chunkflow.Null, ""},
	}
	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			got, cast := getType(tt.dataType)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.cast, cast)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, (&Config{}).Validate())
	assert.Error(t, (&Config{Host: "localhost"}).Validate())
	assert.NoError(t, (&Config{Host: "localhost", Database: "tpch"}).Validate())
}
