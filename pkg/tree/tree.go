// Package tree decomposes an address's power by where it goes and where it
// comes from.
//
// [Delegates] walks downstream: for each delegate of the root it reports the
// share of the root's available power the delegate receives, then recurses
// into the delegate. [Delegators] is the mirror image and walks upstream.
//
// Available power is an address's own score plus everything its delegators
// pass on to it, exactly as [power.Propagate] computes it, so the numbers in
// a tree agree with the voting power computation. Shares and basis-point
// weights come from [bag.Distribute] and add up exactly.
package tree

import (
	"encoding/json"

	"github.com/filecoin-project/go-state-types/big"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/bag"
	"github.com/matzehuels/splitdelegation/pkg/dag"
	"github.com/matzehuels/splitdelegation/pkg/dag/transform"
	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/power"
)

// DefaultMaxDepth bounds recursion when Options.MaxDepth is zero.
const DefaultMaxDepth = 256

// Options tunes tree construction.
type Options struct {
	MaxDepth int
}

// Node is one delegate of its parent in a delegate tree.
type Node struct {
	Delegate       string
	Weight         int64 // basis points of the parent's delegation
	DelegatedPower big.Int
	Children       []Node
}

// DelegatorNode is one delegator of its parent in a delegator tree.
type DelegatorNode struct {
	Delegator      string
	Weight         int64 // basis points of this delegator's own delegation
	DelegatedPower big.Int
	Parents        []DelegatorNode
}

type builder struct {
	g        *dag.DAG
	inv      *dag.DAG // g reversed, built by Delegators
	in       map[string]big.Int
	maxDepth int
}

func newBuilder(g *dag.DAG, scores amount.Scores, opts Options) (*builder, error) {
	for _, addr := range scores.Addresses() {
		if v := scores[addr]; amount.IsNil(v) || amount.IsNegative(v) {
			return nil, errors.New(errors.ErrCodeInvalidScore, "score for %s is %s", addr, amount.String(v))
		}
	}
	w := g.Clone()
	transform.BreakCycles(w)
	order, err := transform.Order(w)
	if err != nil {
		return nil, err
	}
	b := &builder{
		g:        w,
		in:       power.Propagate(w, order, scores).In,
		maxDepth: opts.MaxDepth,
	}
	if b.maxDepth <= 0 {
		b.maxDepth = DefaultMaxDepth
	}
	return b, nil
}

func (b *builder) available(addr string) big.Int {
	if v, ok := b.in[addr]; ok {
		return v
	}
	return big.Zero()
}

// split returns the basis-point weight and the share of addr's available
// power for each of its edges, in edge order. Both are zero when all ratios
// are zero.
func (b *builder) split(addr string) (weights []int64, shares []big.Int) {
	edges := b.g.Children(addr)
	recipients := power.Recipients(edges)
	weights = make([]int64, len(edges))
	shares = make([]big.Int, len(edges))
	bps := bag.BasisPoints(recipients)
	dist := bag.Distribute(b.available(addr), recipients)
	for i := range edges {
		shares[i] = big.Zero()
		if bps != nil {
			weights[i] = bps[i].Amount.Int64()
			shares[i] = dist[i].Amount
		}
	}
	return weights, shares
}

// Delegates returns the delegate tree rooted at address. Self-delegations
// and cycles are removed first, the same way voting power is computed;
// addresses without a score count as zero. An address that delegates to
// no one yields an empty tree.
//
// Fails with DEPTH_EXCEEDED when the tree is deeper than Options.MaxDepth.
func Delegates(g *dag.DAG, scores amount.Scores, address string, opts Options) ([]Node, error) {
	b, err := newBuilder(g, scores, opts)
	if err != nil {
		return nil, err
	}
	return b.delegates(address, 1)
}

func (b *builder) delegates(addr string, depth int) ([]Node, error) {
	edges := b.g.Children(addr)
	if len(edges) == 0 {
		return []Node{}, nil
	}
	if depth > b.maxDepth {
		return nil, errors.New(errors.ErrCodeDepthExceeded, "delegate tree deeper than %d at %s", b.maxDepth, addr)
	}

	weights, shares := b.split(addr)
	nodes := make([]Node, len(edges))
	for i, e := range edges {
		children, err := b.delegates(e.To, depth+1)
		if err != nil {
			return nil, err
		}
		nodes[i] = Node{
			Delegate:       e.To,
			Weight:         weights[i],
			DelegatedPower: shares[i],
			Children:       children,
		}
	}
	return nodes, nil
}

// Delegators returns the delegator tree rooted at address: every account
// delegating to it, with the power that reached address from it, and
// recursively their own delegators. Delegators are listed in graph node
// order.
func Delegators(g *dag.DAG, scores amount.Scores, address string, opts Options) ([]DelegatorNode, error) {
	b, err := newBuilder(g, scores, opts)
	if err != nil {
		return nil, err
	}
	b.inv = b.g.Inverse()
	return b.delegators(address, 1)
}

func (b *builder) delegators(addr string, depth int) ([]DelegatorNode, error) {
	upstream := b.inv.Children(addr)
	if len(upstream) == 0 {
		return []DelegatorNode{}, nil
	}
	if depth > b.maxDepth {
		return nil, errors.New(errors.ErrCodeDepthExceeded, "delegator tree deeper than %d at %s", b.maxDepth, addr)
	}

	nodes := make([]DelegatorNode, len(upstream))
	for i, rev := range upstream {
		from := rev.To
		weights, shares := b.split(from)
		for j, e := range b.g.Children(from) {
			if e.To == addr {
				nodes[i] = DelegatorNode{Delegator: from, Weight: weights[j], DelegatedPower: shares[j]}
				break
			}
		}
		parents, err := b.delegators(from, depth+1)
		if err != nil {
			return nil, err
		}
		nodes[i].Parents = parents
	}
	return nodes, nil
}

// Total returns the power a delegate tree level hands out.
func Total(nodes []Node) big.Int {
	total := big.Zero()
	for _, n := range nodes {
		total = big.Add(total, n.DelegatedPower)
	}
	return total
}

type nodeJSON struct {
	Delegate       string          `json:"delegate"`
	Weight         int64           `json:"weight"`
	DelegatedPower json.RawMessage `json:"delegatedPower"`
	Children       []Node          `json:"children"`
}

// MarshalJSON implements json.Marshaler with power as a decimal string.
func (n Node) MarshalJSON() ([]byte, error) {
	children := n.Children
	if children == nil {
		children = []Node{}
	}
	return json.Marshal(nodeJSON{
		Delegate:       n.Delegate,
		Weight:         n.Weight,
		DelegatedPower: amount.Encode(n.DelegatedPower),
		Children:       children,
	})
}

type delegatorNodeJSON struct {
	Delegator      string          `json:"delegator"`
	Weight         int64           `json:"weight"`
	DelegatedPower json.RawMessage `json:"delegatedPower"`
	Parents        []DelegatorNode `json:"parents"`
}

// MarshalJSON implements json.Marshaler with power as a decimal string.
func (n DelegatorNode) MarshalJSON() ([]byte, error) {
	parents := n.Parents
	if parents == nil {
		parents = []DelegatorNode{}
	}
	return json.Marshal(delegatorNodeJSON{
		Delegator:      n.Delegator,
		Weight:         n.Weight,
		DelegatedPower: amount.Encode(n.DelegatedPower),
		Parents:        parents,
	})
}
