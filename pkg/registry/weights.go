package registry

import "github.com/matzehuels/splitdelegation/pkg/dag"

// BuildWeights flattens a registry into a delegation graph.
//
// Accounts are added in ascending order and each delegation list keeps its
// order, so equal registries always give the same graph. Every account
// becomes a node, including those without delegations. If an account lists
// the same delegate twice, the later ratio wins.
func BuildWeights(r Registry) *dag.DAG {
	g := dag.New()
	for _, account := range r.Accounts() {
		_ = g.AddNode(account)
		for _, d := range r[account].Delegation {
			// Build validated every delegate and ratio already.
			_ = g.SetEdge(account, d.Delegate, d.Ratio)
		}
	}
	return g
}
