// Package dag provides the weighted delegation graph that the voting power
// computation runs on.
//
// # Overview
//
// Every node is an address and every edge is a delegation: the delegator
// assigns the fraction ratio/sum(ratios) of its power to the delegate.
// A node without outgoing edges is a sink - a voter or a holder that does not
// delegate.
//
// The graph is an explicit adjacency map over address keys rather than a web
// of node pointers, so cycle detection, cycle removal and ordering are plain
// graph algorithms that can be tested in isolation (see the transform
// subpackage).
//
// # Basic Usage
//
// Create a graph with [New] and add delegations with [DAG.SetEdge]. Nodes are
// created on demand:
//
//	g := dag.New()
//	g.SetEdge("A", "B", big.NewInt(20))
//	g.SetEdge("A", "C", big.NewInt(80))
//	g.SetEdge("B", "D", big.NewInt(100))
//
// Query the structure with [DAG.Children], [DAG.Parents], [DAG.Delegators] and
// [DAG.Delegates]. Use [DAG.Validate] to check that the graph is acyclic.
//
// # Determinism
//
// Go maps have no iteration order, so the graph records the order in which
// nodes and edges were inserted and every accessor returns data in that order.
// The JSON codec preserves document key order for the same reason: two runs
// over identical input always produce identical processing orders and
// identical rounding decisions.
//
// # JSON
//
// [DAG.MarshalJSON] writes the nested-object form used by the HTTP API and
// snapshot files, with ratios as decimal strings:
//
//	{"A": {"B": "20", "C": "80"}, "B": {"D": "100"}}
package dag
