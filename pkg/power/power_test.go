package power

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/dag"
	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/registry"
)

type edge struct {
	from, to string
	ratio    int64
}

func graph(t *testing.T, edges ...edge) *dag.DAG {
	t.Helper()
	g := dag.New()
	for _, e := range edges {
		require.NoError(t, g.SetEdge(e.from, e.to, big.NewInt(e.ratio)))
	}
	return g
}

func scores(kv map[string]int64) amount.Scores {
	s := make(amount.Scores, len(kv))
	for k, v := range kv {
		s[k] = big.NewInt(v)
	}
	return s
}

func strings(m map[string]big.Int) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.String()
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		edges  []edge
		scores map[string]int64
		voters []string
		want   map[string]string
	}{
		{
			name:   "chain",
			edges:  []edge{{"A", "B", 20}, {"A", "C", 80}, {"B", "D", 100}},
			scores: map[string]int64{"A": 1000, "B": 100, "C": 20, "D": 30},
			want:   map[string]string{"A": "0", "B": "0", "C": "820", "D": "330"},
		},
		{
			name:   "fan out",
			edges:  []edge{{"A", "B", 20}, {"A", "C", 80}},
			scores: map[string]int64{"A": 1000, "B": 0, "C": 0, "D": 30},
			want:   map[string]string{"A": "0", "B": "200", "C": "800", "D": "30"},
		},
		{
			name:   "empty graph",
			scores: map[string]int64{"A": 50, "B": 60},
			want:   map[string]string{"A": "50", "B": "60"},
		},
		{
			name:   "voter keeps own power",
			edges:  []edge{{"A", "B", 1}, {"C", "B", 1}},
			scores: map[string]int64{"A": 10, "B": 0, "C": 5},
			voters: []string{"A"},
			want:   map[string]string{"A": "10", "B": "5", "C": "0"},
		},
		{
			name:   "cycle is broken",
			edges:  []edge{{"A", "B", 1}, {"B", "A", 1}},
			scores: map[string]int64{"A": 10, "B": 20},
			want:   map[string]string{"A": "0", "B": "30"},
		},
		{
			name:   "self delegation is void",
			edges:  []edge{{"A", "A", 1}},
			scores: map[string]int64{"A": 10},
			want:   map[string]string{"A": "10"},
		},
		{
			name:   "rounding residual",
			edges:  []edge{{"A", "B", 1}, {"A", "C", 1}, {"A", "D", 1}},
			scores: map[string]int64{"A": 100, "B": 0, "C": 0, "D": 0},
			want:   map[string]string{"A": "0", "B": "34", "C": "33", "D": "33"},
		},
		{
			name:   "zero ratios keep power",
			edges:  []edge{{"A", "B", 0}},
			scores: map[string]int64{"A": 7, "B": 1},
			want:   map[string]string{"A": "7", "B": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph(t, tt.edges...)
			res, err := Compute(g, scores(tt.scores), Options{Voters: tt.voters})
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings(res.VotingPower))
		})
	}
}

func TestComputeDelegatorCount(t *testing.T) {
	g := graph(t, edge{"A", "B", 20}, edge{"A", "C", 80}, edge{"B", "D", 100}, edge{"C", "D", 1})
	res, err := Compute(g, scores(map[string]int64{"A": 1, "B": 1, "C": 1, "D": 1}), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.DelegatorCount.All)
	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 1, "D": 4}, res.DelegatorCount.Counts)
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	g := graph(t, edge{"A", "B", 1}, edge{"B", "A", 1}, edge{"V", "A", 1})
	_, err := Compute(g, scores(map[string]int64{"A": 1, "B": 1, "V": 1}), Options{Voters: []string{"V"}})
	require.NoError(t, err)

	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, 3, g.NodeCount())
}

func TestComputeErrors(t *testing.T) {
	t.Run("missing score", func(t *testing.T) {
		g := graph(t, edge{"A", "B", 1})
		res, err := Compute(g, scores(map[string]int64{"A": 1}), Options{})
		assert.True(t, errors.Is(err, errors.ErrCodeMissingScore), "error = %v", err)
		assert.Nil(t, res)
	})

	t.Run("negative score", func(t *testing.T) {
		res, err := Compute(dag.New(), scores(map[string]int64{"A": -1}), Options{})
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidScore), "error = %v", err)
		assert.Nil(t, res)
	})

	t.Run("pruned delegator needs no score", func(t *testing.T) {
		g := graph(t, edge{"V", "A", 1})
		_, err := Compute(g, scores(map[string]int64{"V": 1}), Options{Voters: []string{"V"}})
		assert.NoError(t, err)
	})
}

func TestComputeConservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := range 50 {
		n := 2 + rng.IntN(12)
		addr := func(i int) string { return fmt.Sprintf("0x%02d", i) }

		g := dag.New()
		s := amount.Scores{}
		total := big.Zero()
		for i := range n {
			v := big.Mul(big.NewInt(rng.Int64N(1_000_000)), amount.MustParse("1000000000000000000"))
			s[addr(i)] = v
			total = big.Add(total, v)
			_ = g.AddNode(addr(i))
		}
		for range rng.IntN(n * 3) {
			_ = g.SetEdge(addr(rng.IntN(n)), addr(rng.IntN(n)), big.NewInt(rng.Int64N(10_000)))
		}

		res, err := Compute(g, s, Options{})
		require.NoError(t, err, "round %d", round)
		assert.Equal(t, total.String(), res.Total().String(), "round %d", round)
		for a, v := range res.VotingPower {
			assert.False(t, amount.IsNegative(v), "round %d: %s has %s", round, a, v)
		}
		for a, c := range res.DelegatorCount.Counts {
			assert.GreaterOrEqual(t, c, 0, "round %d: %s", round, a)
		}
	}
}

func TestComputeMostlyIdleRegistry(t *testing.T) {
	// Cleared, expired and opted-out accounts stay in the registry with
	// empty delegation lists.
	const n = 40_000
	reg := make(registry.Registry, n+1)
	s := make(amount.Scores, n+2)
	for i := range n {
		addr := fmt.Sprintf("0x%06x", i)
		reg[addr] = registry.Entry{}
		s[addr] = big.NewInt(1)
	}
	reg["0xa"] = registry.Entry{Delegation: []registry.Delegation{{Delegate: "0xb", Ratio: big.NewInt(1)}}}
	s["0xa"] = big.NewInt(5)
	s["0xb"] = big.NewInt(0)

	start := time.Now()
	res, err := Compute(registry.BuildWeights(reg), s, Options{})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "5", res.Power("0xb").String())
	assert.Equal(t, "1", res.Power("0x000007").String())
	assert.Equal(t, fmt.Sprint(n+5), res.Total().String())
	assert.Less(t, elapsed, 5*time.Second)
}

func TestResultFor(t *testing.T) {
	g := graph(t, edge{"A", "B", 1})
	res, err := Compute(g, scores(map[string]int64{"A": 4, "B": 1}), Options{})
	require.NoError(t, err)

	got := res.For([]string{"B", "Z"})
	assert.Equal(t, map[string]string{"B": "5", "Z": "0"}, strings(got))
}

func TestResultJSON(t *testing.T) {
	g := graph(t, edge{"A", "B", 20}, edge{"A", "C", 80})
	res, err := Compute(g, scores(map[string]int64{"A": 1000, "B": 0, "C": 0}), Options{})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"votingPower": {"A": "0", "B": "200", "C": "800"},
		"delegatorCount": {"all": 1, "A": 0, "B": 1, "C": 1},
		"order": ["A", "B", "C"]
	}`, string(data))

	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, strings(res.VotingPower), strings(back.VotingPower))
	assert.Equal(t, res.DelegatorCount, back.DelegatorCount)
	assert.Nil(t, back.Graph())
}
