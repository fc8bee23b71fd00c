package transform

import "github.com/matzehuels/splitdelegation/pkg/dag"

// Stats reports what Normalize removed.
type Stats struct {
	VoterEdges int // edges dropped because their delegator voted directly
	CycleEdges int // self-delegations and back edges
	Pruned     int // nodes left without edges
}

// Normalize prepares g for scheduling, in place: voter override, cycle
// elimination, then pruning. A nil voters list skips the override.
func Normalize(g *dag.DAG, voters []string) Stats {
	var s Stats
	s.VoterEdges = FilterVoters(g, voters)
	s.CycleEdges = BreakCycles(g)
	s.Pruned = PruneEmpty(g)
	return s
}
