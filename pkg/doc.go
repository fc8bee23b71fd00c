// Package pkg provides the libraries behind splitdelegation, a voting power
// engine for split delegation on Snapshot spaces.
//
// # Overview
//
// An account may split its voting power across several delegates, each
// receiving a share proportional to a ratio. Delegates may in turn delegate
// onward. Given a log of delegation actions and a table of base scores, the
// libraries compute the final voting power of every address.
//
// The pkg directory is organized into three areas:
//
//  1. Computation - [registry], [dag], [dag/transform], [bag], [power],
//     [tree] and [stats]. Pure functions over values; no I/O.
//  2. Inputs and outputs - [io], [source], [address], [amount] and [render].
//  3. Orchestration - [pipeline], with [cache], [storage], [httputil] and
//     [observability] as its infrastructure, configured by [config].
//
// # Architecture
//
// The data flow through a computation:
//
//	Action log (file or subgraph)
//	         ↓
//	    [registry] package (replay actions into a registry at a timestamp)
//	         ↓
//	    [dag] package (weighted delegation graph)
//	         ↓
//	    [dag/transform] package (voter filter, cycle break, prune, order)
//	         ↓
//	    [power] package (distribute scores with [bag], count delegators)
//	         ↓
//	    [tree] and [stats] packages (per-address views, rankings)
//
// # Quick Start
//
//	reg, err := registry.Build(actions, when)
//	if err != nil {
//	    return err
//	}
//	res, err := power.Compute(registry.BuildWeights(reg), scores, power.Options{})
//	if err != nil {
//	    return err
//	}
//	top := stats.Rank(stats.Delegates(res), stats.ByPower, 10, 0)
//
// Most callers go through [pipeline.Runner], which adds loading, caching and
// persistence:
//
//	runner := pipeline.NewRunner(src, cache.NewNullCache(), nil, logger)
//	defer runner.Close()
//	res, err := runner.Execute(ctx, pipeline.Options{Space: "safe.eth"})
//
// # Amounts
//
// Scores and voting power are arbitrary precision integers. Shares are
// floored and the leftover units go to the largest remainders, so the sum of
// voting power always equals the sum of the input scores.
//
// [registry]: github.com/matzehuels/splitdelegation/pkg/registry
// [dag]: github.com/matzehuels/splitdelegation/pkg/dag
// [dag/transform]: github.com/matzehuels/splitdelegation/pkg/dag/transform
// [bag]: github.com/matzehuels/splitdelegation/pkg/bag
// [power]: github.com/matzehuels/splitdelegation/pkg/power
// [tree]: github.com/matzehuels/splitdelegation/pkg/tree
// [stats]: github.com/matzehuels/splitdelegation/pkg/stats
// [io]: github.com/matzehuels/splitdelegation/pkg/io
// [source]: github.com/matzehuels/splitdelegation/pkg/source
// [address]: github.com/matzehuels/splitdelegation/pkg/address
// [amount]: github.com/matzehuels/splitdelegation/pkg/amount
// [render]: github.com/matzehuels/splitdelegation/pkg/render
// [pipeline]: github.com/matzehuels/splitdelegation/pkg/pipeline
// [pipeline.Runner]: github.com/matzehuels/splitdelegation/pkg/pipeline#Runner
// [cache]: github.com/matzehuels/splitdelegation/pkg/cache
// [storage]: github.com/matzehuels/splitdelegation/pkg/storage
// [httputil]: github.com/matzehuels/splitdelegation/pkg/httputil
// [observability]: github.com/matzehuels/splitdelegation/pkg/observability
// [config]: github.com/matzehuels/splitdelegation/pkg/config
package pkg
