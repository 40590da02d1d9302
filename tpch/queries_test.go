package tpch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/datasources"
	"github.com/chunkflow/chunkflow/execution"
)

var testTables = map[string][]string{
	"part": {
		"1|n1|Manufacturer#1|Brand#12|t|5|SM BOX|1200.50|c|",
		"2|n2|Manufacturer#1|Brand#23|t|10|JUMBO JAR|1500.00|c|",
		"3|n3|Manufacturer#2|Brand#34|t|15|LG CASE|1300.00|c|",
		"4|n4|Manufacturer#1|Brand#12|t|7|SM BOX|2000.00|c|",
		"5|n5|Manufacturer#1|Brand#23|t|20|MED BAG|999.00|c|",
		"6|n6|Manufacturer#1|Brand#34|t|15|MED BAG|1100.25|c|",
	},
	"region": {
		"0|AFRICA|c|",
		"3|EUROPE|c|",
	},
	"nation": {
		"7|GERMANY|3|c|",
		"0|ALGERIA|0|c|",
		"6|FRANCE|3|c|",
	},
	"supplier": {
		"1|Supplier#1|a|7|p|10.00|c|",
		"2|Supplier#2|a|0|p|10.00|c|",
		"3|Supplier#3|a|6|p|10.00|c|",
	},
	"customer": {
		"1|Customer#1|a|7|p|711.56|BUILDING|c|",
		"2|Customer#2|a|0|p|121.65|AUTOMOBILE|c|",
		"3|Customer#3|a|6|p|7498.12|AUTOMOBILE|c|",
	},
	"orders": {
		"1|1|O|100.00|1993-10-05|1-URGENT|Clerk#1|0|c|",
		"2|2|O|200.00|1993-11-01|1-URGENT|Clerk#1|0|c|",
		"3|3|O|50.50|1994-02-01|1-URGENT|Clerk#1|0|c|",
		"4|1|O|25.00|1993-12-31|1-URGENT|Clerk#1|0|c|",
		"5|3|O|10.00|1993-09-30|1-URGENT|Clerk#1|0|c|",
	},
	"lineitem": {
		"1|1|1|1|5|1000.00|0.10|0.02|N|O|1993-10-10|1993-10-10|1993-10-10|DELIVER IN PERSON|AIR|c|",
		"1|6|1|2|25|500.00|0.00|0.02|N|O|1993-10-10|1993-10-10|1993-10-10|DELIVER IN PERSON|AIR|c|",
		"2|2|1|1|15|200.00|0.50|0.02|N|O|1993-11-10|1993-11-10|1993-11-10|DELIVER IN PERSON|AIR|c|",
		"3|3|1|1|1|300.00|0.10|0.02|N|O|1994-02-10|1994-02-10|1994-02-10|DELIVER IN PERSON|AIR|c|",
		"4|4|1|1|2|100.00|0.20|0.02|N|O|1994-01-10|1994-01-10|1994-01-10|NONE|AIR|c|",
	},
}

func writeTables(t *testing.T) string {
	dir := t.TempDir()
	for name, lines := range testTables {
		content := strings.Join(lines, "\n") + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".tbl"), []byte(content), 0644))
	}
	return dir
}

func runQuery(t *testing.T, dir, name string, batchSize int) execution.Chunk {
	ctx := context.Background()
	catalog, err := datasources.NewCatalog(zerolog.Nop(), TableInputs(dir)...)
	require.NoError(t, err)

	service := execution.NewExecutionService()
	reader, err := Queries[name](ctx, service, catalog, batchSize)
	require.NoError(t, err)
	require.NoError(t, service.Run(ctx))

	result, ok := reader.Last()
	require.True(t, ok)
	return result
}

func TestQueryA(t *testing.T) {
	result := runQuery(t, writeTables(t), "a", 2)

	assert.Equal(t, []string{"total"}, result.Schema().Names())
	require.Equal(t, 1, result.NumRows())
	assert.InDelta(t, 2300.75, result.Value(0, 0).Float, 1e-9)
}

func TestQueryB(t *testing.T) {
	result := runQuery(t, writeTables(t), "b", 2)

	assert.Equal(t, []string{"s_name", "total_order_value"}, result.Schema().Names())
	require.Equal(t, 2, result.NumRows())
	assert.Equal(t, chunkflow.NewString("Supplier#1"), result.Value(0, 0))
	assert.InDelta(t, 125.0, result.Value(0, 1).Float, 1e-9)
	assert.Equal(t, chunkflow.NewString("Supplier#3"), result.Value(1, 0))
	assert.InDelta(t, 60.5, result.Value(1, 1).Float, 1e-9)
}

func TestQueryC(t *testing.T) {
	dir := writeTables(t)
	for _, batchSize := range []int{1, 2, 1000} {
		result := runQuery(t, dir, "c", batchSize)

		assert.Equal(t, []string{"c_custkey", "c_name", "c_acctbal", "revenue"}, result.Schema().Names())
		require.Equal(t, 2, result.NumRows(), "batch size %d", batchSize)
		assert.Equal(t, chunkflow.NewInt(1), result.Value(0, 0))
		assert.Equal(t, chunkflow.NewString("Customer#1"), result.Value(0, 1))
		assert.InDelta(t, 1480.0, result.Value(0, 3).Float, 1e-9)
		assert.Equal(t, chunkflow.NewInt(2), result.Value(1, 0))
		assert.InDelta(t, 100.0, result.Value(1, 3).Float, 1e-9)
	}
}

func TestQueryD(t *testing.T) {
	result := runQuery(t, writeTables(t), "d", 3)

	assert.Equal(t, []string{"revenue"}, result.Schema().Names())
	require.Equal(t, 1, result.NumRows())
	assert.InDelta(t, 1500.0, result.Value(0, 0).Float, 1e-9)
}

func TestQuery_MissingData(t *testing.T) {
	ctx := context.Background()
	catalog, err := datasources.NewCatalog(zerolog.Nop(), TableInputs(t.TempDir())...)
	require.NoError(t, err)

	_, err = QueryA(ctx, execution.NewExecutionService(), catalog, 10)
	var sourceErr *execution.SourceReadError
	assert.True(t, errors.As(err, &sourceErr), "got %v", err)
}

func TestQueryNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "d"}, QueryNames())
}
