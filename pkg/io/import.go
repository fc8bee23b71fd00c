package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/splitdelegation/pkg/address"
	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/dag"
	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/registry"
)

// ReadJSON decodes a snapshot from r.
//
// ReadJSON returns an INVALID_INPUT error if the JSON is malformed and a
// MALFORMED_ACTION error if an action cannot be decoded. It does not close r.
func ReadJSON(r io.Reader) (*Snapshot, error) {
	var data snapshotJSON
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode snapshot")
	}

	scores := make(amount.Scores, len(data.Scores))
	for addr, v := range data.Scores {
		if amount.IsNegative(v) {
			return nil, errors.New(errors.ErrCodeInvalidScore, "negative score for %s", addr)
		}
		norm := address.Normalize(addr)
		if _, dup := scores[norm]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate score for %s", norm)
		}
		scores[norm] = v
	}
	return &Snapshot{
		Space:   data.Space,
		When:    data.When,
		Actions: data.Actions,
		Weights: data.Weights,
		Scores:  scores,
	}, nil
}

// ImportJSON reads a snapshot file at path.
//
// The error wraps the underlying cause with the file path for context.
func ImportJSON(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	s, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Graph returns the delegation graph the snapshot describes. Precomputed
// weights are cloned; otherwise the registry is replayed at s.When.
func (s *Snapshot) Graph() (*dag.DAG, error) {
	if s.Weights != nil {
		return s.Weights.Clone(), nil
	}
	reg, err := registry.Build(s.Actions, s.When)
	if err != nil {
		return nil, err
	}
	return registry.BuildWeights(reg), nil
}
