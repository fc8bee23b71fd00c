package transform

import (
	"github.com/matzehuels/splitdelegation/pkg/dag"
	"github.com/matzehuels/splitdelegation/pkg/errors"
)

// Order returns every node of g in topological order, each delegator before
// all of its delegates.
//
// This is Kahn's algorithm with a FIFO queue seeded with the zero in-degree
// nodes in insertion order; delegates are released in edge order. Identical
// graphs therefore always produce identical orders.
//
// If some edge can never be resolved the graph still has a cycle. That is a
// broken invariant after Normalize, reported with CYCLE_DETECTED.
func Order(g *dag.DAG) ([]string, error) {
	nodes := g.Nodes()
	pending := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))
	for _, id := range nodes {
		pending[id] = g.InDegree(id)
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, e := range g.Children(id) {
			pending[e.To]--
			if pending[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}

	if len(order) != len(nodes) {
		var stuck []string
		for _, id := range nodes {
			if pending[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, errors.New(errors.ErrCodeCycleDetected,
			"%d of %d nodes unresolved after scheduling: %v", len(stuck), len(nodes), stuck)
	}
	return order, nil
}
