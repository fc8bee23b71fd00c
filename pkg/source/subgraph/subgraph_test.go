package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/cache"
	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/io"
	"github.com/matzehuels/splitdelegation/pkg/registry"
	"github.com/matzehuels/splitdelegation/pkg/source"
)

var allActions = []map[string]any{
	{"account": "A", "chainId": "1", "registry": "R", "kind": "set",
		"delegation": []map[string]string{{"delegate": "B", "ratio": "20"}, {"delegate": "C", "ratio": "80"}},
		"expiration": "0", "optOut": false},
	{"account": "B", "chainId": "1", "registry": "R", "kind": "set",
		"delegation": []map[string]string{{"delegate": "D", "ratio": "100"}},
		"expiration": "0", "optOut": false},
	{"account": "C", "chainId": "100", "registry": "R", "kind": "opt",
		"delegation": []map[string]string{}, "expiration": "0", "optOut": true},
}

type indexer struct {
	requests  atomic.Int32
	failFirst int32
	// failBody is written with the 503 of a failed request.
	failBody []map[string]any
	actions  []map[string]any
}

func (ix *indexer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := ix.requests.Add(1)
	if n <= ix.failFirst {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		if ix.failBody != nil {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"delegationActions": ix.failBody},
			})
		}
		return
	}
	var req struct {
		Variables struct {
			Space string `json:"space"`
			First int    `json:"first"`
			Skip  int    `json:"skip"`
		} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lo := min(req.Variables.Skip, len(ix.actions))
	hi := min(lo+req.Variables.First, len(ix.actions))
	page := ix.actions[lo:hi]
	if req.Variables.Space != "safe.eth" {
		page = nil
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{"delegationActions": page},
	})
}

func scores() source.Static {
	return source.Static{"safe.eth": &io.Snapshot{Scores: amount.Scores{
		"A": amount.MustParse("1000"),
		"D": amount.MustParse("30"),
	}}}
}

func newSource(t *testing.T, url string, opts Options) *Source {
	t.Helper()
	opts.Endpoint = url
	if opts.Scores == nil {
		opts.Scores = scores()
	}
	opts.RetryDelay = time.Millisecond
	opts.Now = func() time.Time { return time.Unix(2024, 0) }
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestLoad(t *testing.T) {
	ix := &indexer{actions: allActions}
	srv := httptest.NewServer(ix)
	defer srv.Close()

	s := newSource(t, srv.URL, Options{PageSize: 2})
	snap, err := s.Load(context.Background(), "safe.eth")
	require.NoError(t, err)

	assert.Equal(t, "safe.eth", snap.Space)
	assert.Equal(t, int64(2024), snap.When)
	require.Len(t, snap.Actions, 3)
	assert.Equal(t, int32(2), ix.requests.Load(), "3 actions at 2 per page")

	set := snap.Actions[0].Payload.(registry.Set)
	assert.Equal(t, "C", set.Delegation[1].Delegate)
	assert.Equal(t, "80", set.Delegation[1].Ratio.String())
	assert.Equal(t, int64(100), snap.Actions[2].ChainID)
	assert.Equal(t, registry.Opt{OptOut: true}, snap.Actions[2].Payload)
	assert.Equal(t, "1000", snap.Scores["A"].String())

	g, err := snap.Graph()
	require.NoError(t, err)
	assert.Equal(t, 3, g.EdgeCount())
}

func TestLoadRetriesTransientFailures(t *testing.T) {
	ix := &indexer{actions: allActions, failFirst: 2}
	srv := httptest.NewServer(ix)
	defer srv.Close()

	s := newSource(t, srv.URL, Options{Attempts: 3})
	actions, err := s.Actions(context.Background(), "safe.eth")
	require.NoError(t, err)
	assert.Len(t, actions, 3)
	assert.Equal(t, int32(3), ix.requests.Load())
}

func TestLoadDiscardsFailedAttempt(t *testing.T) {
	stale := []map[string]any{{"account": "Z", "chainId": "1", "registry": "R", "kind": "set",
		"delegation": []map[string]string{{"delegate": "Y", "ratio": "1"}}, "expiration": "0", "optOut": false}}
	ix := &indexer{actions: allActions[:1], failFirst: 1, failBody: stale}
	srv := httptest.NewServer(ix)
	defer srv.Close()

	actions, err := newSource(t, srv.URL, Options{Attempts: 2}).Actions(context.Background(), "safe.eth")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "A", actions[0].Account)
}

func TestLoadGivesUp(t *testing.T) {
	ix := &indexer{actions: allActions, failFirst: 100}
	srv := httptest.NewServer(ix)
	defer srv.Close()

	s := newSource(t, srv.URL, Options{Attempts: 2})
	_, err := s.Actions(context.Background(), "safe.eth")
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork), "error = %v", err)
	assert.Equal(t, int32(2), ix.requests.Load())
}

func TestLoadMalformedAction(t *testing.T) {
	bad := []map[string]any{{"account": "A", "chainId": "1", "registry": "R", "kind": "burn",
		"delegation": []map[string]string{}, "expiration": "0", "optOut": false}}
	srv := httptest.NewServer(&indexer{actions: bad})
	defer srv.Close()

	_, err := newSource(t, srv.URL, Options{}).Actions(context.Background(), "safe.eth")
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedAction), "error = %v", err)
}

func TestLoadMissingScores(t *testing.T) {
	srv := httptest.NewServer(&indexer{actions: allActions})
	defer srv.Close()

	_, err := newSource(t, srv.URL, Options{}).Load(context.Background(), "other.eth")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "error = %v", err)
}

func TestActionsCached(t *testing.T) {
	ix := &indexer{actions: allActions}
	srv := httptest.NewServer(ix)
	defer srv.Close()

	c, err := cache.NewMemoryCache(16)
	require.NoError(t, err)
	s := newSource(t, srv.URL, Options{Cache: c})

	ctx := context.Background()
	first, err := s.Actions(ctx, "safe.eth")
	require.NoError(t, err)
	second, err := s.Actions(ctx, "safe.eth")
	require.NoError(t, err)

	assert.Equal(t, int32(1), ix.requests.Load())
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, first[0].Account, second[0].Account)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{Scores: scores()})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	_, err = New(Options{Endpoint: "http://localhost"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}
