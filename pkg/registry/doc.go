// Package registry folds the delegation action log into per-account state.
//
// # Actions
//
// Every [Action] names an account, the venue it was emitted from (chain ID
// and registry contract) and exactly one payload:
//
//   - [Set] replaces the delegation list and expiration, and moves the
//     account to the action's venue
//   - [Clear] replaces the delegation list and expiration
//   - [Expire] replaces the expiration only
//   - [Opt] changes whether the account accepts delegations
//
// # Venues
//
// An account is anchored to one venue at a time. Only a Set can move it;
// Clear, Expire and Opt emitted from another venue are silently ignored.
// The first action seen for an account anchors it, whatever its kind.
//
// # Finalization
//
// [Build] finalizes the replayed state against a reference time. Expired
// entries report an empty delegation list but keep their stored expiration,
// and every delegation to an opted-out account is dropped, no matter which
// venue the opt-out came from.
//
// [BuildWeights] turns the finalized registry into a [dag.DAG] ready for
// normalization.
package registry
