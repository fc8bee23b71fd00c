package transform

import "github.com/matzehuels/splitdelegation/pkg/dag"

// PruneEmpty removes nodes left without any edge, typically delegators whose
// only delegations were voided by FilterVoters or BreakCycles. Addresses that
// still receive delegations stay as sinks. Returns the number of nodes
// removed.
func PruneEmpty(g *dag.DAG) int {
	var empty []string
	for _, id := range g.Nodes() {
		if g.OutDegree(id) == 0 && g.InDegree(id) == 0 {
			empty = append(empty, id)
		}
	}
	return g.RemoveNodes(empty)
}
