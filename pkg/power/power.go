// Package power propagates voting power along a delegation graph.
//
// [Compute] is the entry point: it normalizes a copy of the graph, schedules
// it, and runs two passes over the schedule, one apportioning power with
// [bag.Distribute] and one counting transitive delegators.
//
// Delegation conserves value: the voting power of all scored addresses sums
// to the sum of their scores.
package power

import (
	"maps"
	"slices"

	"github.com/filecoin-project/go-state-types/big"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/bag"
	"github.com/matzehuels/splitdelegation/pkg/dag"
	"github.com/matzehuels/splitdelegation/pkg/dag/transform"
	"github.com/matzehuels/splitdelegation/pkg/errors"
)

// Options tunes a computation.
type Options struct {
	// Voters are addresses that voted directly. Their delegations are
	// ignored so they keep their own power.
	Voters []string
}

// Result is the outcome of one computation.
type Result struct {
	// VotingPower holds the net power of every scored address.
	VotingPower map[string]big.Int
	// DelegatorCount holds transitive upstream delegator counts.
	DelegatorCount DelegatorCount
	// Order is the schedule the passes ran in.
	Order []string
	// Stats reports what normalization removed.
	Stats transform.Stats

	graph *dag.DAG
}

// Graph returns the normalized graph the result was computed on. It must
// not be modified.
func (r *Result) Graph() *dag.DAG { return r.graph }

// Power returns the voting power of addr, zero when it has no score.
func (r *Result) Power(addr string) big.Int {
	if v, ok := r.VotingPower[addr]; ok {
		return v
	}
	return big.Zero()
}

// For restricts the voting power to the given addresses. Addresses without
// a score map to zero.
func (r *Result) For(addresses []string) map[string]big.Int {
	out := make(map[string]big.Int, len(addresses))
	for _, a := range addresses {
		out[a] = r.Power(a)
	}
	return out
}

// Total returns the sum of all voting power.
func (r *Result) Total() big.Int {
	return amount.Sum(slices.Collect(maps.Values(r.VotingPower))...)
}

// Compute returns the voting power and delegator counts for g and scores.
// g is not modified.
//
// Fails with INVALID_SCORE when a score is unset or negative, MISSING_SCORE
// when a node of the normalized graph has no score, and CYCLE_DETECTED when
// normalization left a cycle behind, which signals a bug rather than bad
// input. No partial result is returned.
func Compute(g *dag.DAG, scores amount.Scores, opts Options) (*Result, error) {
	for _, addr := range scores.Addresses() {
		v := scores[addr]
		if amount.IsNil(v) || amount.IsNegative(v) {
			return nil, errors.New(errors.ErrCodeInvalidScore, "score for %s is %s", addr, amount.String(v))
		}
	}

	w := g.Clone()
	stats := transform.Normalize(w, opts.Voters)

	var missing []string
	for _, id := range w.Nodes() {
		if !scores.Has(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrCodeMissingScore, "%d addresses have no score, first %s", len(missing), missing[0])
	}

	order, err := transform.Order(w)
	if err != nil {
		return nil, err
	}

	return &Result{
		VotingPower:    Propagate(w, order, scores).Net(),
		DelegatorCount: CountDelegators(w, order),
		Order:          order,
		Stats:          stats,
		graph:          w,
	}, nil
}

// Flow is the power that reached and left each address during propagation.
type Flow struct {
	In  map[string]big.Int
	Out map[string]big.Int
}

// Net returns In minus Out for every address.
func (f Flow) Net() map[string]big.Int {
	out := make(map[string]big.Int, len(f.In))
	for addr, in := range f.In {
		out[addr] = big.Sub(in, f.Out[addr])
	}
	return out
}

// Propagate runs the apportioning pass over order. In starts as a copy of
// the scores; each delegator then splits everything it holds across its
// delegates in proportion to their ratios. Addresses in g without a score
// start from zero.
func Propagate(g *dag.DAG, order []string, scores amount.Scores) Flow {
	f := Flow{
		In:  make(map[string]big.Int, len(scores)),
		Out: make(map[string]big.Int, len(scores)),
	}
	for addr, v := range scores {
		f.In[addr] = v
		f.Out[addr] = big.Zero()
	}
	get := func(m map[string]big.Int, addr string) big.Int {
		if v, ok := m[addr]; ok {
			return v
		}
		return big.Zero()
	}

	for _, node := range order {
		edges := g.Children(node)
		if len(edges) == 0 {
			continue
		}
		for _, s := range bag.Distribute(get(f.In, node), Recipients(edges)) {
			f.Out[node] = big.Add(get(f.Out, node), s.Amount)
			f.In[s.Address] = big.Add(get(f.In, s.Address), s.Amount)
		}
		if _, ok := f.In[node]; !ok {
			f.In[node] = big.Zero()
		}
	}
	for addr := range f.In {
		if _, ok := f.Out[addr]; !ok {
			f.Out[addr] = big.Zero()
		}
	}
	return f
}

// Recipients converts a delegator's edges into distribution recipients.
func Recipients(edges []dag.Edge) []bag.Recipient {
	out := make([]bag.Recipient, len(edges))
	for i, e := range edges {
		out[i] = bag.Recipient{Address: e.To, Ratio: e.Ratio}
	}
	return out
}
