package tpch

import (
	"os"
	"path/filepath"

	"github.com/chunkflow/chunkflow/datasources"
)

// Columns lists the columns of the TPC-H tables, in the order dbgen writes them.
var Columns = map[string][]string{
	"part": {
		"p_partkey", "p_name", "p_mfgr", "p_brand", "p_type",
		"p_size", "p_container", "p_retailprice", "p_comment",
	},
	"supplier": {
		"s_suppkey", "s_name", "s_address", "s_nationkey",
		"s_phone", "s_acctbal", "s_comment",
	},
	"partsupp": {
		"ps_partkey", "ps_suppkey", "ps_availqty", "ps_supplycost", "ps_comment",
	},
	"customer": {
		"c_custkey", "c_name", "c_address", "c_nationkey",
		"c_phone", "c_acctbal", "c_mktsegment", "c_comment",
	},
	"orders": {
		"o_orderkey", "o_custkey", "o_orderstatus", "o_totalprice", "o_orderdate",
		"o_orderpriority", "o_clerk", "o_shippriority", "o_comment",
	},
	"lineitem": {
		"l_orderkey", "l_partkey", "l_suppkey", "l_linenumber",
		"l_quantity", "l_extendedprice", "l_discount", "l_tax",
		"l_returnflag", "l_linestatus", "l_shipdate", "l_commitdate",
		"l_receiptdate", "l_shipinstruct", "l_shipmode", "l_comment",
	},
	"nation": {
		"n_nationkey", "n_name", "n_regionkey", "n_comment",
	},
	"region": {
		"r_regionkey", "r_name", "r_comment",
	},
}

// TableInputs describes the <table>.tbl files of dataDir. Gzipped files are used when the plain one is missing.
func TableInputs(dataDir string) []datasources.TableInput {
	inputs := make([]datasources.TableInput, 0, len(Columns))
	for _, name := range TableNames() {
		path := filepath.Join(dataDir, name+".tbl")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if _, err := os.Stat(path + ".gz"); err == nil {
				path += ".gz"
			}
		}
		inputs = append(inputs, datasources.TableInput{
			Name:    name,
			Path:    path,
			Format:  datasources.FormatTbl,
			Columns: Columns[name],
		})
	}
	return inputs
}

func TableNames() []string {
	return []string{"part", "supplier", "partsupp", "customer", "orders", "lineitem", "nation", "region"}
}
