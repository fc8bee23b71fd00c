package transform

import "github.com/matzehuels/splitdelegation/pkg/dag"

// FilterVoters removes every outgoing edge of the given voters. An address
// that cast its own vote keeps its full power, so whatever it delegated no
// longer applies. Voters absent from g are ignored. Returns the number of
// edges removed.
func FilterVoters(g *dag.DAG, voters []string) int {
	removed := 0
	for _, v := range voters {
		removed += g.RemoveOutgoing(v)
	}
	return removed
}
