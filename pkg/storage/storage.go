// Package storage keeps computed voting power results.
//
// The cache holds results for as long as their TTL allows; the store is the
// durable record of every recomputation the server ran, so that the API can
// serve the latest result of a space immediately after a restart and so that
// past results can be audited.
//
// Backends:
//   - [MemoryStore]: in-process, for tests and the CLI
//   - [FileStore]: JSON files in a directory
//   - [MongoStore]: a MongoDB collection, for multi-instance deployments
//
// # Usage
//
//	rec, err := storage.NewRecord(snap.Space, hash, snap.When, result)
//	if err != nil {
//	    return err
//	}
//	if err := store.Save(ctx, rec); err != nil {
//	    return err
//	}
//
//	latest, err := store.Latest(ctx, "safe.eth")
//	if latest == nil {
//	    // nothing computed yet
//	}
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/splitdelegation/pkg/power"
)

// Record is one stored computation.
type Record struct {
	ID           string          `json:"id" bson:"_id"`
	Space        string          `json:"space" bson:"space"`
	SnapshotHash string          `json:"snapshotHash" bson:"snapshot_hash"`
	When         int64           `json:"when" bson:"when"`
	CreatedAt    time.Time       `json:"createdAt" bson:"created_at"`
	Result       json.RawMessage `json:"result" bson:"result"`
}

// NewRecord encodes res into a record with a fresh random ID.
func NewRecord(space, snapshotHash string, when int64, res *power.Result) (*Record, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &Record{
		ID:           uuid.NewString(),
		Space:        space,
		SnapshotHash: snapshotHash,
		When:         when,
		CreatedAt:    time.Now().UTC(),
		Result:       data,
	}, nil
}

// Decode returns the stored result. The graph of a decoded result is nil.
func (r *Record) Decode() (*power.Result, error) {
	var res power.Result
	if err := json.Unmarshal(r.Result, &res); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", r.ID, err)
	}
	return &res, nil
}

// Store is the interface for result storage backends.
type Store interface {
	// Save stores a record. Saving an existing ID replaces it.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID.
	// Returns nil, nil if the record doesn't exist.
	Get(ctx context.Context, id string) (*Record, error)

	// Latest returns the most recent record of a space.
	// Returns nil, nil if the space has no records.
	Latest(ctx context.Context, space string) (*Record, error)

	// List returns up to limit records of a space, newest first.
	List(ctx context.Context, space string, limit int) ([]*Record, error)

	Close() error
}

// newer orders records newest first, breaking ties by ID.
func newer(a, b *Record) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
