package transform

import (
	"slices"

	"github.com/matzehuels/splitdelegation/pkg/dag"
)

// BreakCycles removes edges until g is acyclic and returns how many were
// removed.
//
// Self-delegations are dropped first. The remaining graph is walked depth
// first, starting from each address in ascending order and visiting
// delegates in ascending order; an edge into a node still on the stack is a
// back edge and is removed. The walk does not depend on insertion order, so
// the same edge set always loses the same edges.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)

	removed := 0
	for _, id := range g.Nodes() {
		if _, ok := g.Ratio(id, id); ok {
			g.RemoveEdge(id, id)
			removed++
		}
	}

	color := make(map[string]int, g.NodeCount())
	var backEdges [][2]string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range sortedDelegates(g, node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, [2]string{node, child})
			}
		}
		color[node] = black
	}

	nodes := g.Nodes()
	slices.Sort(nodes)
	for _, n := range nodes {
		if color[n] == white {
			dfs(n)
		}
	}

	for _, e := range backEdges {
		g.RemoveEdge(e[0], e[1])
	}
	return removed + len(backEdges)
}

func sortedDelegates(g *dag.DAG, id string) []string {
	edges := g.Children(id)
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.To
	}
	slices.Sort(out)
	return out
}
