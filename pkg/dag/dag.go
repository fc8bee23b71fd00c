package dag

import (
	"errors"
	"slices"

	"github.com/filecoin-project/go-state-types/big"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] and [DAG.SetEdge] when an
	// address is empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrNegativeRatio is returned by [DAG.SetEdge] when the ratio is unset
	// or below zero. Ratios are unnormalized weights and must be >= 0.
	ErrNegativeRatio = errors.New("ratio must be a non-negative integer")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	// Cycles are detected using depth-first search with white/gray/black
	// coloring. Self-delegation edges count as cycles.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Edge is a delegation from one address to another. Ratio is an unnormalized
// weight: the share of From's power that To receives is Ratio divided by the
// sum of all of From's outgoing ratios.
type Edge struct {
	From  string
	To    string
	Ratio big.Int
}

// DAG is a weighted delegation graph keyed by address.
//
// Despite the name it may contain cycles until it has been normalized with
// transform.BreakCycles; [DAG.Validate] reports whether it is acyclic.
// Nodes and each node's outgoing edges keep their insertion order, which is
// what makes every traversal over the graph deterministic.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    []string
	index    map[string]int
	outgoing map[string][]Edge   // delegator -> edges in insertion order
	incoming map[string][]string // delegate -> delegators in insertion order
}

// New creates an empty graph.
func New() *DAG {
	return &DAG{
		index:    make(map[string]int),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]string),
	}
}

// AddNode adds an address to the graph. Adding an existing node is a no-op.
// Returns ErrInvalidNodeID if the address is empty.
func (d *DAG) AddNode(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	d.addNode(id)
	return nil
}

func (d *DAG) addNode(id string) {
	if _, ok := d.index[id]; ok {
		return
	}
	d.index[id] = len(d.nodes)
	d.nodes = append(d.nodes, id)
}

// SetEdge adds the edge from→to with the given ratio, creating both nodes as
// needed. If the edge already exists its ratio is replaced and its position
// among from's edges is kept.
func (d *DAG) SetEdge(from, to string, ratio big.Int) error {
	if from == "" || to == "" {
		return ErrInvalidNodeID
	}
	if ratio.Int == nil || ratio.Sign() < 0 {
		return ErrNegativeRatio
	}
	d.addNode(from)
	d.addNode(to)

	for i, e := range d.outgoing[from] {
		if e.To == to {
			d.outgoing[from][i].Ratio = ratio
			return nil
		}
	}
	d.outgoing[from] = append(d.outgoing[from], Edge{From: from, To: to, Ratio: ratio})
	d.incoming[to] = append(d.incoming[to], from)
	return nil
}

// RemoveEdge removes the edge from→to if it exists.
// No error is returned if the edge does not exist.
func (d *DAG) RemoveEdge(from, to string) {
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(e Edge) bool { return e.To == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(s string) bool { return s == from })
	if len(d.outgoing[from]) == 0 {
		delete(d.outgoing, from)
	}
	if len(d.incoming[to]) == 0 {
		delete(d.incoming, to)
	}
}

// RemoveOutgoing removes every edge leaving id.
func (d *DAG) RemoveOutgoing(id string) int {
	edges := d.outgoing[id]
	for _, e := range edges {
		d.incoming[e.To] = slices.DeleteFunc(d.incoming[e.To], func(s string) bool { return s == id })
		if len(d.incoming[e.To]) == 0 {
			delete(d.incoming, e.To)
		}
	}
	delete(d.outgoing, id)
	return len(edges)
}

// RemoveNode removes id and every edge touching it.
func (d *DAG) RemoveNode(id string) {
	d.RemoveNodes([]string{id})
}

// RemoveNodes removes every listed node and the edges touching them, then
// reindexes the remaining nodes once. Unknown ids are ignored. Returns the
// number of nodes removed.
func (d *DAG) RemoveNodes(ids []string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := d.index[id]; !ok {
			continue
		}
		drop[id] = struct{}{}
		d.RemoveOutgoing(id)
		for _, from := range slices.Clone(d.incoming[id]) {
			d.RemoveEdge(from, id)
		}
	}
	if len(drop) == 0 {
		return 0
	}

	d.nodes = slices.DeleteFunc(d.nodes, func(s string) bool {
		_, ok := drop[s]
		return ok
	})
	clear(d.index)
	for i, n := range d.nodes {
		d.index[n] = i
	}
	return len(drop)
}

// HasNode reports whether id is in the graph.
func (d *DAG) HasNode(id string) bool {
	_, ok := d.index[id]
	return ok
}

// Nodes returns all addresses in insertion order.
func (d *DAG) Nodes() []string { return slices.Clone(d.nodes) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int {
	n := 0
	for _, edges := range d.outgoing {
		n += len(edges)
	}
	return n
}

// Edges returns every edge, grouped by delegator in node insertion order.
func (d *DAG) Edges() []Edge {
	var edges []Edge
	for _, id := range d.nodes {
		edges = append(edges, d.outgoing[id]...)
	}
	return edges
}

// Children returns the edges leaving id in insertion order.
// Returns nil if the node has no outgoing edges or doesn't exist. The returned
// slice should not be modified - use it as a read-only view.
func (d *DAG) Children(id string) []Edge { return d.outgoing[id] }

// Parents returns the delegators that have an edge to id.
// The returned slice should not be modified - use it as a read-only view.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Ratio returns the ratio of the edge from→to and whether it exists.
func (d *DAG) Ratio(from, to string) (big.Int, bool) {
	for _, e := range d.outgoing[from] {
		if e.To == to {
			return e.Ratio, true
		}
	}
	return big.Int{}, false
}

// Delegators returns the nodes with at least one outgoing edge, in insertion
// order.
func (d *DAG) Delegators() []string {
	var out []string
	for _, id := range d.nodes {
		if len(d.outgoing[id]) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Delegates returns the nodes with at least one incoming edge, in insertion
// order.
func (d *DAG) Delegates() []string {
	var out []string
	for _, id := range d.nodes {
		if len(d.incoming[id]) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Clone returns a deep copy of the graph structure. Ratios are shared, which
// is safe because they are never mutated in place.
func (d *DAG) Clone() *DAG {
	c := &DAG{
		nodes:    slices.Clone(d.nodes),
		index:    make(map[string]int, len(d.index)),
		outgoing: make(map[string][]Edge, len(d.outgoing)),
		incoming: make(map[string][]string, len(d.incoming)),
	}
	for k, v := range d.index {
		c.index[k] = v
	}
	for k, v := range d.outgoing {
		c.outgoing[k] = slices.Clone(v)
	}
	for k, v := range d.incoming {
		c.incoming[k] = slices.Clone(v)
	}
	return c
}

// Inverse returns a graph with every edge reversed, keeping ratios. Node
// order is preserved, and each node's reversed edges follow the order in
// which its delegators were inserted.
func (d *DAG) Inverse() *DAG {
	inv := New()
	for _, id := range d.nodes {
		inv.addNode(id)
	}
	for _, id := range d.nodes {
		for _, e := range d.outgoing[id] {
			_ = inv.SetEdge(e.To, e.From, e.Ratio)
		}
	}
	return inv
}

// Validate returns ErrGraphHasCycle if the graph has a directed cycle,
// including a self-delegation edge. Runs in O(N+E).
func (d *DAG) Validate() error {
	return d.detectCycles()
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, e := range d.outgoing[id] {
			switch color[e.To] {
			case white:
				dfs(e.To)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, id := range d.nodes {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
