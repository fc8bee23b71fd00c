// Package source defines where snapshots come from.
//
// A [Loader] turns a space name into a [io.Snapshot]. Implementations live in
// subpackages: local reads snapshot files from a directory, subgraph fetches
// the delegation action log from a GraphQL endpoint and takes scores from
// another loader.
package source

import (
	"context"
	"fmt"

	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/io"
)

// Loader loads the snapshot of one space.
//
// Load returns a NOT_FOUND error when the space is unknown to the loader.
type Loader interface {
	Load(ctx context.Context, space string) (*io.Snapshot, error)
	// Name identifies the loader in logs and metrics.
	Name() string
}

// Static serves snapshots held in memory. It is used by tests and by the
// CLI when a snapshot file is given on the command line.
type Static map[string]*io.Snapshot

// Load returns a copy of the snapshot header sharing actions and scores.
func (s Static) Load(_ context.Context, space string) (*io.Snapshot, error) {
	snap, ok := s[space]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "space %s", space)
	}
	out := *snap
	if out.Space == "" {
		out.Space = space
	}
	return &out, nil
}

// Name implements Loader.
func (s Static) Name() string { return fmt.Sprintf("static(%d)", len(s)) }
