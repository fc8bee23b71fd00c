// Package pipeline runs the voting power computation end to end.
//
// This package implements the load → registry → weights → compute pipeline
// used by the CLI and the API server. By centralizing this logic, both entry
// points share the same caching, logging and instrumentation.
//
// # Architecture
//
//  1. Load: fetch the snapshot of a space (action log, scores, evaluation time)
//  2. Registry: replay the action log into per-account delegation state
//  3. Weights: flatten the registry into a weighted delegation graph
//  4. Compute: normalize the graph and propagate voting power
//
// Results are cached under a key derived from the space, the content hash of
// the snapshot and the voter list, and optionally persisted to a
// storage.Store.
//
// # Usage
//
//	runner := pipeline.NewRunner(local.NewDir("snapshots"), cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Space: "safe.eth"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Power.VotingPower)
package pipeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/splitdelegation/pkg/dag"
	"github.com/matzehuels/splitdelegation/pkg/dag/transform"
	"github.com/matzehuels/splitdelegation/pkg/io"
	"github.com/matzehuels/splitdelegation/pkg/power"
)

// Format constants for graph renderings.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configures one pipeline run.
type Options struct {
	Space string `json:"space"`

	// Voters restricts the reported power to these addresses.
	Voters []string `json:"voters,omitempty"`

	// DelegationOverride lets voters keep their own power: their outgoing
	// delegations are removed before power is propagated. Nil means true.
	DelegationOverride *bool `json:"delegationOverride,omitempty"`

	// Refresh bypasses the result cache.
	Refresh bool `json:"refresh,omitempty"`
}

// Override reports the effective DelegationOverride setting.
func (o Options) Override() bool {
	return o.DelegationOverride == nil || *o.DelegationOverride
}

// ComputeVoters returns the voter list passed to power.Compute: the voters
// when delegation override is on, nil otherwise.
func (o Options) ComputeVoters() []string {
	if !o.Override() || len(o.Voters) == 0 {
		return nil
	}
	v := slices.Clone(o.Voters)
	slices.Sort(v)
	return slices.Compact(v)
}

// Validate checks required fields.
func (o Options) Validate() error {
	if o.Space == "" {
		return fmt.Errorf("space is required")
	}
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Snapshot *io.Snapshot

	// SnapshotHash is the content hash of the snapshot.
	SnapshotHash string

	// Graph is the delegation graph before normalization.
	Graph *dag.DAG

	Power *power.Result

	// Voters is the voter list the power was computed for.
	Voters []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	LoadTime    time.Duration
	ComputeTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	ResultHit bool
}

// Normalized returns the graph power was propagated over. Results decoded
// from the cache carry no graph, so it is rebuilt from Graph.
func (r *Result) Normalized() *dag.DAG {
	if g := r.Power.Graph(); g != nil {
		return g
	}
	g := r.Graph.Clone()
	transform.Normalize(g, r.Voters)
	return g
}
