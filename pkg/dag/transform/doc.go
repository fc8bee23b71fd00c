// Package transform normalizes a delegation graph and schedules it.
//
// # Overview
//
// A graph built straight from a registry may contain self-delegations,
// cycles and delegations made by addresses that voted themselves. Before
// power can be propagated the graph is brought into a canonical form:
//
//   - [FilterVoters] drops every outgoing edge of an address that voted
//   - [BreakCycles] drops self-delegations and back edges until the graph is acyclic
//   - [PruneEmpty] removes nodes left without edges
//
// [Normalize] applies the three steps in that order.
//
// # Scheduling
//
// [Order] linearizes a normalized graph with Kahn's algorithm. Every
// delegator appears before each of its delegates, so a single pass over the
// order sees a node only after all of its incoming power has arrived.
//
// All transforms mutate their argument. Clone the graph first when the
// caller's copy must stay intact.
package transform
