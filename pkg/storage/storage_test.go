package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/dag"
	"github.com/matzehuels/splitdelegation/pkg/power"
)

func result(t *testing.T) *power.Result {
	t.Helper()
	g := dag.New()
	require.NoError(t, g.SetEdge("A", "B", amount.MustParse("1")))
	res, err := power.Compute(g, amount.Scores{
		"A": amount.MustParse("7"),
		"B": amount.MustParse("3"),
	}, power.Options{})
	require.NoError(t, err)
	return res
}

func record(t *testing.T, space string, at time.Time) *Record {
	t.Helper()
	rec, err := NewRecord(space, "hash-"+space, 42, result(t))
	require.NoError(t, err)
	rec.CreatedAt = at
	return rec
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	latest, err := s.Latest(ctx, "safe.eth")
	require.NoError(t, err)
	assert.Nil(t, latest)

	old := record(t, "safe.eth", base)
	recent := record(t, "safe.eth", base.Add(time.Hour))
	other := record(t, "other.eth", base.Add(2*time.Hour))
	for _, r := range []*Record{old, recent, other} {
		require.NoError(t, s.Save(ctx, r))
	}

	got, err := s.Get(ctx, old.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, old.Space, got.Space)
	assert.Equal(t, int64(42), got.When)

	missing, err := s.Get(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)

	latest, err = s.Latest(ctx, "safe.eth")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, recent.ID, latest.ID)

	list, err := s.List(ctx, "safe.eth", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, recent.ID, list[0].ID)
	assert.Equal(t, old.ID, list[1].ID)

	list, err = s.List(ctx, "safe.eth", 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	res, err := latest.Decode()
	require.NoError(t, err)
	assert.Equal(t, "10", res.VotingPower["B"].String())
	assert.Equal(t, 1, res.DelegatorCount.All)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	testStore(t, s)
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rec := record(t, "x", time.Now())
	require.NoError(t, s.Save(ctx, rec))
	rec.Space = "mutated"

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Space)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	testStore(t, s)
}

func TestFileStoreRejectsPathIDs(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	rec := record(t, "x", time.Now())
	rec.ID = "../escape"
	assert.Error(t, s.Save(context.Background(), rec))
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("SPLITDELEGATION_MONGO_URI")
	if uri == "" {
		t.Skip("SPLITDELEGATION_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoOptions{
		URI:        uri,
		Database:   "splitdelegation_test",
		Collection: "results_" + time.Now().Format("150405.000000"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	t.Cleanup(func() { _ = s.coll.Drop(context.Background()) })
	testStore(t, s)
}

func TestNewRecord(t *testing.T) {
	a, err := NewRecord("x", "h", 1, result(t))
	require.NoError(t, err)
	b, err := NewRecord("x", "h", 1, result(t))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.JSONEq(t, string(a.Result), string(b.Result))
}
