package tpch

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/chunkflow/chunkflow/chunkflow"
	"github.com/chunkflow/chunkflow/datasources"
	. "github.com/chunkflow/chunkflow/execution"
	"github.com/chunkflow/chunkflow/execution/nodes"
)

// Query registers the nodes of a query in the service and returns the reader of its result.
type Query func(ctx context.Context, service *ExecutionService, catalog *datasources.Catalog, batchSize int) (*NodeReader, error)

var Queries = map[string]Query{
	"a": QueryA,
	"b": QueryB,
	"c": QueryC,
	"d": QueryD,
}

func QueryNames() []string {
	names := make([]string, 0, len(Queries))
	for name := range Queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// graphBuilder registers nodes, remembering the first error so that wiring code stays linear.
type graphBuilder struct {
	ctx       context.Context
	service   *ExecutionService
	catalog   *datasources.Catalog
	batchSize int
	err       error
}

func (g *graphBuilder) source(table string, columns ...string) NodeID {
	if g.err != nil {
		return 0
	}
	id, err := datasources.BuildSourceNode(g.ctx, g.service, g.catalog, table, columns, g.batchSize)
	if err != nil {
		g.err = err
	}
	return id
}

func (g *graphBuilder) add(name string, node Node, err error, inputs ...NodeID) NodeID {
	if g.err != nil {
		return 0
	}
	if err != nil {
		g.err = errors.Wrapf(err, "couldn't build %s", name)
		return 0
	}
	id, err := g.service.AddNamed(name, node)
	if err != nil {
		g.err = err
		return 0
	}
	for i, input := range inputs {
		if err := g.service.Subscribe(id, input, i); err != nil {
			g.err = err
			return 0
		}
	}
	return id
}

func (g *graphBuilder) reader(id NodeID) (*NodeReader, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.service.Reader(id)
}

// QueryA sums the retail price of Manufacturer#1's expensive parts of a few sizes, not in jumbo jars.
func QueryA(ctx context.Context, service *ExecutionService, catalog *datasources.Catalog, batchSize int) (*NodeReader, error) {
	g := &graphBuilder{ctx: ctx, service: service, catalog: catalog, batchSize: batchSize}

	part := g.source("part", "p_retailprice", "p_size", "p_container", "p_mfgr")
	filtered := g.add("where", where(
		[]string{"p_retailprice", "p_container", "p_size", "p_mfgr"},
		func(v []chunkflow.Value) bool {
			price, ok := number(v[0])
			if !ok || price <= 1000 || v[1].IsNull() || equals(v[1], "JUMBO JAR") {
				return false
			}
			size, ok := number(v[2])
			if !ok || (size != 5 && size != 10 && size != 15 && size != 20) {
				return false
			}
			return equals(v[3], "Manufacturer#1")
		},
	), nil, part)
	total := g.add("total", asFloat("total", "p_retailprice"), nil, filtered)
	accumulator, err := nodes.NewGroupAccumulator().Build()
	summed := g.add("sum", accumulator, err, total)
	selected := g.add("select", project([][2]string{{"total", "total"}}, "", false), nil, summed)

	return g.reader(selected)
}

// QueryB sums the value of orders per European supplier, matching suppliers to orders by key.
func QueryB(ctx context.Context, service *ExecutionService, catalog *datasources.Catalog, batchSize int) (*NodeReader, error) {
	g := &graphBuilder{ctx: ctx, service: service, catalog: catalog, batchSize: batchSize}

	supplier := g.source("supplier", "s_suppkey", "s_nationkey", "s_name")
	orders := g.source("orders", "o_totalprice", "o_custkey")
	nation := g.source("nation", "n_nationkey", "n_regionkey")
	region := g.source("region", "r_regionkey", "r_name")

	join1, err := nodes.NewHashJoinBuilder().LeftOn("s_nationkey").RightOn("n_nationkey").Build()
	supplierNation := g.add("supplier_nation", join1, err, supplier, nation)
	join2, err := nodes.NewHashJoinBuilder().LeftOn("n_regionkey").RightOn("r_regionkey").Build()
	supplierRegion := g.add("supplier_region", join2, err, supplierNation, region)
	join3, err := nodes.NewHashJoinBuilder().LeftOn("s_suppkey").RightOn("o_custkey").Build()
	supplierOrders := g.add("supplier_orders", join3, err, supplierRegion, orders)

	europe := g.add("where", where([]string{"r_name"}, func(v []chunkflow.Value) bool {
		return equals(v[0], "EUROPE")
	}), nil, supplierOrders)

	accumulator, err := nodes.NewGroupAccumulator().
		GroupKey("s_name").
		Aggregate("o_totalprice", "sum").
		Build()
	grouped := g.add("group_by", accumulator, err, europe)
	selected := g.add("select", project(
		[][2]string{{"s_name", "s_name"}, {"o_totalprice_sum", "total_order_value"}},
		"total_order_value", true,
	), nil, grouped)

	return g.reader(selected)
}

var (
	qcFrom = time.Date(1993, 10, 1, 0, 0, 0, 0, time.UTC)
	qcTo   = time.Date(1994, 1, 1, 0, 0, 0, 0, time.UTC)
)

// QueryC computes the discounted revenue per customer of orders placed in the last quarter of 1993.
func QueryC(ctx context.Context, service *ExecutionService, catalog *datasources.Catalog, batchSize int) (*NodeReader, error) {
	g := &graphBuilder{ctx: ctx, service: service, catalog: catalog, batchSize: batchSize}

	lineitem := g.source("lineitem", "l_orderkey", "l_extendedprice", "l_discount")
	orders := g.source("orders", "o_orderkey", "o_custkey", "o_orderdate")
	customer := g.source("customer", "c_custkey", "c_name", "c_acctbal")

	quarter := g.add("where", where([]string{"o_orderdate"}, func(v []chunkflow.Value) bool {
		return dateInRange(v[0], qcFrom, qcTo)
	}), nil, orders)

	join1, err := nodes.NewHashJoinBuilder().LeftOn("c_custkey").RightOn("o_custkey").Build()
	customerOrders := g.add("customer_orders", join1, err, customer, quarter)
	join2, err := nodes.NewHashJoinBuilder().LeftOn("l_orderkey").RightOn("o_orderkey").Build()
	lineitemOrders := g.add("lineitem_orders", join2, err, lineitem, customerOrders)

	discounted := g.add("discount", revenue("discount", "l_extendedprice", "l_discount"), nil, lineitemOrders)
	accumulator, err := nodes.NewGroupAccumulator().
		GroupKey("c_custkey", "c_name", "c_acctbal").
		Aggregate("discount", "sum").
		Build()
	grouped := g.add("group_by", accumulator, err, discounted)
	selected := g.add("select", project(
		[][2]string{{"c_custkey", "c_custkey"}, {"c_name", "c_name"}, {"c_acctbal", "c_acctbal"}, {"discount_sum", "revenue"}},
		"revenue", true,
	), nil, grouped)

	return g.reader(selected)
}

// QueryD computes the discounted revenue of in-person deliveries of three brand, quantity and size brackets.
func QueryD(ctx context.Context, service *ExecutionService, catalog *datasources.Catalog, batchSize int) (*NodeReader, error) {
	g := &graphBuilder{ctx: ctx, service: service, catalog: catalog, batchSize: batchSize}

	lineitem := g.source("lineitem", "l_extendedprice", "l_discount", "l_partkey", "l_quantity", "l_shipinstruct")
	part := g.source("part", "p_partkey", "p_brand", "p_size")

	join, err := nodes.NewHashJoinBuilder().LeftOn("l_partkey").RightOn("p_partkey").Build()
	joined := g.add("lineitem_part", join, err, lineitem, part)

	filtered := g.add("where", where(
		[]string{"l_shipinstruct", "l_quantity", "p_brand", "p_size"},
		func(v []chunkflow.Value) bool {
			if !equals(v[0], "DELIVER IN PERSON") {
				return false
			}
			quantity, brand, size := v[1], v[2], v[3]
			return (equals(brand, "Brand#12") && between(quantity, 1, 11) && between(size, 1, 5)) ||
				(equals(brand, "Brand#23") && between(quantity, 10, 20) && between(size, 1, 10)) ||
				(equals(brand, "Brand#34") && between(quantity, 20, 30) && between(size, 1, 15))
		},
	), nil, joined)
	discounted := g.add("revenue", revenue("revenue", "l_extendedprice", "l_discount"), nil, filtered)
	accumulator, err := nodes.NewGroupAccumulator().Build()
	summed := g.add("sum", accumulator, err, discounted)
	selected := g.add("select", project([][2]string{{"revenue", "revenue"}}, "", false), nil, summed)

	return g.reader(selected)
}
