package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/cache"
	"github.com/matzehuels/splitdelegation/pkg/dag"
	"github.com/matzehuels/splitdelegation/pkg/registry"
)

// Snapshot is the input of one computation.
type Snapshot struct {
	Space   string
	When    int64
	Actions []registry.Action
	// Weights, when set, replaces the graph derived from Actions.
	Weights *dag.DAG
	Scores  amount.Scores
}

type snapshotJSON struct {
	Space   string            `json:"space"`
	When    int64             `json:"when"`
	Actions []registry.Action `json:"actions,omitempty"`
	Weights *dag.DAG          `json:"weights,omitempty"`
	Scores  amount.Scores     `json:"scores"`
}

func (s *Snapshot) toJSON() snapshotJSON {
	scores := s.Scores
	if scores == nil {
		scores = amount.Scores{}
	}
	return snapshotJSON{
		Space:   s.Space,
		When:    s.When,
		Actions: s.Actions,
		Weights: s.Weights,
		Scores:  scores,
	}
}

// WriteJSON encodes s as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.toJSON()); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes s to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(s *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(s, f)
}

// Hash returns the SHA-256 of the compact canonical encoding of s. Score
// keys are sorted by encoding/json, so the hash does not depend on map
// iteration order.
func (s *Snapshot) Hash() (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(s.toJSON()); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return cache.Hash(buf.Bytes()), nil
}
