// Package local loads snapshots from files on disk.
package local

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/io"
	"github.com/matzehuels/splitdelegation/pkg/source"
)

// Dir loads "<space>.json" snapshot files from a directory.
type Dir struct {
	path string
}

// NewDir returns a loader for the snapshot directory at path.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Name implements source.Loader.
func (d *Dir) Name() string { return "dir:" + d.path }

// Load reads the snapshot file of space. The space field of the file may be
// empty; it is filled in from the file name.
func (d *Dir) Load(ctx context.Context, space string) (*io.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if space == "" || strings.ContainsAny(space, `/\`) || space == "." || space == ".." {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid space name %q", space)
	}
	path := filepath.Join(d.path, space+".json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNotFound, "no snapshot for space %s", space)
	}
	snap, err := io.ImportJSON(path)
	if err != nil {
		return nil, err
	}
	if snap.Space == "" {
		snap.Space = space
	}
	return snap, nil
}

// Spaces lists the spaces that have a snapshot file, in name order.
func (d *Dir) Spaces() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	var spaces []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".json"); ok && !e.IsDir() {
			spaces = append(spaces, name)
		}
	}
	slices.Sort(spaces)
	return spaces, nil
}

var _ source.Loader = (*Dir)(nil)
