package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/cache"
	"github.com/matzehuels/splitdelegation/pkg/dag"
	sderrors "github.com/matzehuels/splitdelegation/pkg/errors"
	sdio "github.com/matzehuels/splitdelegation/pkg/io"
	"github.com/matzehuels/splitdelegation/pkg/registry"
	"github.com/matzehuels/splitdelegation/pkg/source"
	"github.com/matzehuels/splitdelegation/pkg/storage"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsVoters(t *testing.T) {
	off := false
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"no voters", Options{}, nil},
		{"default override", Options{Voters: []string{"B", "A", "B"}}, []string{"A", "B"}},
		{"override off", Options{Voters: []string{"A"}, DelegationOverride: &off}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.ComputeVoters())
		})
	}
}

func chain(t *testing.T) *sdio.Snapshot {
	t.Helper()
	set := func(account string, dels ...registry.Delegation) registry.Action {
		return registry.Action{Account: account, ChainID: 1, Registry: "R",
			Payload: registry.Set{Delegation: dels}}
	}
	del := func(to string, ratio int64) registry.Delegation {
		return registry.Delegation{Delegate: to, Ratio: big.NewInt(ratio)}
	}
	return &sdio.Snapshot{
		Space: "safe.eth",
		When:  2024,
		Actions: []registry.Action{
			set("A", del("B", 20), del("C", 80)),
			set("B", del("D", 100)),
		},
		Scores: amount.Scores{
			"A": big.NewInt(1000),
			"B": big.NewInt(100),
			"C": big.NewInt(20),
			"D": big.NewInt(30),
		},
	}
}

func newRunner(t *testing.T, snaps source.Static, c cache.Cache) *Runner {
	t.Helper()
	return NewRunner(snaps, c, nil, log.New(io.Discard))
}

func TestExecute(t *testing.T) {
	r := newRunner(t, source.Static{"safe.eth": chain(t)}, nil)

	res, err := r.Execute(context.Background(), Options{Space: "safe.eth"})
	require.NoError(t, err)

	got := map[string]string{}
	for k, v := range res.Power.VotingPower {
		got[k] = v.String()
	}
	assert.Equal(t, map[string]string{"A": "0", "B": "0", "C": "820", "D": "330"}, got)
	assert.Equal(t, 4, res.Stats.NodeCount)
	assert.Equal(t, 3, res.Stats.EdgeCount)
	assert.Len(t, res.SnapshotHash, 64)
	assert.False(t, res.CacheInfo.ResultHit)
}

func TestExecuteVoters(t *testing.T) {
	r := newRunner(t, source.Static{"safe.eth": chain(t)}, nil)
	ctx := context.Background()

	res, err := r.Execute(ctx, Options{Space: "safe.eth", Voters: []string{"B"}})
	require.NoError(t, err)
	assert.Equal(t, "300", res.Power.Power("B").String(), "B keeps its own and A's share")

	off := false
	res, err = r.Execute(ctx, Options{Space: "safe.eth", Voters: []string{"B"}, DelegationOverride: &off})
	require.NoError(t, err)
	assert.Equal(t, "0", res.Power.Power("B").String())
}

func TestExecuteCache(t *testing.T) {
	c, err := cache.NewMemoryCache(8)
	require.NoError(t, err)
	r := newRunner(t, source.Static{"safe.eth": chain(t)}, c)
	ctx := context.Background()

	first, err := r.Execute(ctx, Options{Space: "safe.eth"})
	require.NoError(t, err)
	second, err := r.Execute(ctx, Options{Space: "safe.eth"})
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.ResultHit)
	assert.True(t, second.CacheInfo.ResultHit)
	assert.Equal(t, first.Power.Power("D").String(), second.Power.Power("D").String())
	assert.Equal(t, first.Power.DelegatorCount.All, second.Power.DelegatorCount.All)

	// A cached result has no graph; Normalized rebuilds it.
	assert.Nil(t, second.Power.Graph())
	assert.Equal(t, first.Normalized().Nodes(), second.Normalized().Nodes())

	refreshed, err := r.Execute(ctx, Options{Space: "safe.eth", Refresh: true})
	require.NoError(t, err)
	assert.False(t, refreshed.CacheInfo.ResultHit)

	voters, err := r.Execute(ctx, Options{Space: "safe.eth", Voters: []string{"B"}})
	require.NoError(t, err)
	assert.False(t, voters.CacheInfo.ResultHit, "voter lists are part of the key")
}

func TestExecuteStore(t *testing.T) {
	r := newRunner(t, source.Static{"safe.eth": chain(t)}, nil)
	store := storage.NewMemoryStore()
	r.Store = store

	res, err := r.Execute(context.Background(), Options{Space: "safe.eth"})
	require.NoError(t, err)

	rec, err := store.Latest(context.Background(), "safe.eth")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, res.SnapshotHash, rec.SnapshotHash)
	assert.Equal(t, int64(2024), rec.When)
}

func TestExecuteErrors(t *testing.T) {
	missing := chain(t)
	delete(missing.Scores, "D")

	r := newRunner(t, source.Static{"missing": missing}, nil)
	ctx := context.Background()

	_, err := r.Execute(ctx, Options{})
	assert.True(t, sderrors.Is(err, sderrors.ErrCodeInvalidInput), "error = %v", err)

	_, err = r.Execute(ctx, Options{Space: "unknown"})
	assert.True(t, sderrors.Is(err, sderrors.ErrCodeNotFound), "error = %v", err)

	_, err = r.Execute(ctx, Options{Space: "missing"})
	assert.True(t, sderrors.Is(err, sderrors.ErrCodeMissingScore), "error = %v", err)
}

func TestExecuteAll(t *testing.T) {
	other := chain(t)
	other.Space = "other.eth"
	r := newRunner(t, source.Static{"safe.eth": chain(t), "other.eth": other}, nil)

	results, err := r.ExecuteAll(context.Background(), []string{"safe.eth", "other.eth"}, Options{}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "330", results["other.eth"].Power.Power("D").String())

	_, err = r.ExecuteAll(context.Background(), []string{"safe.eth", "nope"}, Options{}, 0)
	assert.True(t, sderrors.Is(err, sderrors.ErrCodeNotFound), "error = %v", err)
}

func TestRenderDOT(t *testing.T) {
	r := newRunner(t, source.Static{"safe.eth": chain(t)}, nil)
	res, err := r.Execute(context.Background(), Options{Space: "safe.eth"})
	require.NoError(t, err)

	out, err := Render(context.Background(), res, RenderOptions{Formats: []string{FormatDOT}})
	require.NoError(t, err)
	dot := string(out[FormatDOT])
	assert.True(t, strings.HasPrefix(dot, "digraph G"))
	assert.Contains(t, dot, `"A" -> "C" [label="80%"]`)
	assert.Contains(t, dot, `label="D\n330"`)

	_, err = Render(context.Background(), res, RenderOptions{Formats: []string{"gif"}})
	assert.Error(t, err)
}

type failingCache struct{ cache.Cache }

func (failingCache) Close() error { return errors.New("cache boom") }

type failingStore struct{ storage.Store }

func (failingStore) Close() error { return errors.New("store boom") }

func TestClose(t *testing.T) {
	r := NewRunner(nil, failingCache{}, nil, nil)
	r.Store = failingStore{}

	err := r.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache boom")
	assert.Contains(t, err.Error(), "store boom")

	ok := NewRunner(nil, nil, nil, nil)
	assert.NoError(t, ok.Close())
}

func TestNormalizedWithoutCache(t *testing.T) {
	g := dag.New()
	require.NoError(t, g.SetEdge("A", "B", big.NewInt(1)))
	require.NoError(t, g.SetEdge("B", "A", big.NewInt(1)))

	snap := &sdio.Snapshot{Space: "loop", Weights: g, Scores: amount.Scores{
		"A": big.NewInt(1), "B": big.NewInt(1),
	}}
	r := newRunner(t, source.Static{"loop": snap}, nil)
	res, err := r.Execute(context.Background(), Options{Space: "loop"})
	require.NoError(t, err)
	assert.NoError(t, res.Normalized().Validate())
	assert.Equal(t, "2", res.Power.Total().String())
}
