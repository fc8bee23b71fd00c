package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	sdio "github.com/matzehuels/splitdelegation/pkg/io"
	"github.com/matzehuels/splitdelegation/pkg/registry"
	"github.com/matzehuels/splitdelegation/pkg/stats"
	"github.com/matzehuels/splitdelegation/pkg/tree"
)

// writeSnapshot writes A -> {B 20%, C 80%}, B -> D and returns its path.
func writeSnapshot(t *testing.T) string {
	t.Helper()
	del := func(to string, ratio int64) registry.Delegation {
		return registry.Delegation{Delegate: to, Ratio: big.NewInt(ratio)}
	}
	set := func(account string, dels ...registry.Delegation) registry.Action {
		return registry.Action{Account: account, ChainID: 1, Registry: "R", Payload: registry.Set{Delegation: dels}}
	}
	snap := &sdio.Snapshot{
		Space: "safe.eth",
		When:  1700000000,
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
	path := filepath.Join(t.TempDir(), "safe.eth.json")
	require.NoError(t, sdio.ExportJSON(snap, path))
	return path
}

// run executes the root command with args and returns what it wrote to
// its output stream.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestComputeJSON(t *testing.T) {
	file := writeSnapshot(t)

	out, err := run(t, "compute", "--file", file, "--json", "--no-cache")
	require.NoError(t, err)

	var doc struct {
		Space       string            `json:"space"`
		When        int64             `json:"when"`
		VotingPower map[string]string `json:"votingPower"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "safe.eth", doc.Space)
	assert.Equal(t, int64(1700000000), doc.When)
	assert.Equal(t, map[string]string{"A": "0", "B": "0", "C": "820", "D": "330"}, doc.VotingPower)
}

func TestComputeVoters(t *testing.T) {
	file := writeSnapshot(t)

	out, err := run(t, "compute", "--file", file, "--json", "--voters", "B")
	require.NoError(t, err)
	assert.Contains(t, out, `"B": "300"`)
	assert.NotContains(t, out, `"C"`)

	out, err = run(t, "compute", "--file", file, "--json", "--voters", "B", "--no-override")
	require.NoError(t, err)
	assert.Contains(t, out, `"B": "0"`)
}

func TestComputeOutputFile(t *testing.T) {
	file := writeSnapshot(t)
	dest := filepath.Join(t.TempDir(), "power.json")

	_, err := run(t, "compute", "--file", file, "-o", dest, "--no-cache")
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"C": "820"`)
}

func TestComputeRequiresInput(t *testing.T) {
	_, err := run(t, "compute")
	assert.Error(t, err)
}

func TestTopJSON(t *testing.T) {
	file := writeSnapshot(t)

	out, err := run(t, "top", "--file", file, "--json", "--order-by", "count", "--no-cache")
	require.NoError(t, err)
	var ranked []stats.Stat
	require.NoError(t, json.Unmarshal([]byte(out), &ranked))
	require.Len(t, ranked, 3)
	assert.Equal(t, "D", ranked[0].Address)
	assert.Equal(t, 2, ranked[0].DelegatorCount)

	_, err = run(t, "top", "--file", file, "--order-by", "name")
	assert.Error(t, err)
}

func TestTreeJSON(t *testing.T) {
	file := writeSnapshot(t)

	out, err := run(t, "tree", "--file", file, "A", "--json", "--no-cache")
	require.NoError(t, err)
	var nodes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "B", nodes[0]["delegate"])
	assert.Equal(t, "200", nodes[0]["delegatedPower"])
	assert.Equal(t, "C", nodes[1]["delegate"])
	assert.Equal(t, "800", nodes[1]["delegatedPower"])

	out, err = run(t, "tree", "--file", file, "D", "--delegators", "--json", "--no-cache")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "B", nodes[0]["delegator"])

	_, err = run(t, "tree", "A")
	assert.Error(t, err, "a single argument needs --file")
}

func TestTreeText(t *testing.T) {
	file := writeSnapshot(t)

	out, err := run(t, "tree", "--file", file, "A", "--no-cache")
	require.NoError(t, err)
	for _, want := range []string{"A", "B", "C", "D", "20.00%", "80.00%"} {
		assert.Contains(t, out, want)
	}
}

func TestRegistryJSON(t *testing.T) {
	file := writeSnapshot(t)

	out, err := run(t, "registry", "--file", file, "--json")
	require.NoError(t, err)
	var doc map[string]struct {
		Delegation []struct {
			Delegate string `json:"delegate"`
		} `json:"delegation"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Contains(t, doc, "A")
	require.Contains(t, doc, "B")
	assert.Len(t, doc["A"].Delegation, 2)
	assert.Equal(t, "D", doc["B"].Delegation[0].Delegate)
}

func TestGraphDOT(t *testing.T) {
	file := writeSnapshot(t)
	dest := filepath.Join(t.TempDir(), "out", "graph.dot")

	_, err := run(t, "graph", "--file", file, "-f", "dot", "-o", dest, "--no-cache")
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "digraph"))

	_, err = run(t, "graph", "--file", file, "-f", "gif")
	assert.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[server]")
	assert.Contains(t, out, "[compute]")
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, space, format string
		single                bool
		want                  string
	}{
		{"", "safe.eth", "svg", true, "safe.eth.svg"},
		{"out/g.svg", "safe.eth", "svg", true, "out/g.svg"},
		{"out/g", "safe.eth", "svg", true, "out/g.svg"},
		{"out/g", "safe.eth", "dot", false, "out/g.dot"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.output, tt.space, tt.format, tt.single); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %v) = %q, want %q", tt.output, tt.space, tt.format, tt.single, got, tt.want)
		}
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "12.34%", formatBasisPoints(1234))
	assert.Equal(t, "100.00%", formatBasisPoints(10000))
	assert.Equal(t, "0.05%", formatBasisPoints(5))
	assert.Equal(t, "1,234,567", formatPower(big.NewInt(1234567)))
	assert.Equal(t, "0", formatPower(big.Int{}))
	assert.Equal(t, []string{"a", "b"}, parseList(" a, ,b,"))
	assert.Equal(t, []string{"svg"}, parseFormats(""))
}

func TestSortedByPower(t *testing.T) {
	vp := amount.Scores{"A": big.NewInt(5), "B": big.NewInt(9), "C": big.NewInt(5)}
	assert.Equal(t, []string{"B", "A", "C"}, sortedByPower(vp))
}

func TestDelegateListModel(t *testing.T) {
	ranked := []stats.Stat{
		{Address: "C", VotingPower: big.NewInt(820), DelegatorCount: 1},
		{Address: "D", VotingPower: big.NewInt(330), DelegatorCount: 2},
	}
	var m tea.Model = NewDelegateListModel(ranked, 0)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}) // clamps at the end
	assert.Equal(t, 1, m.(DelegateListModel).Cursor)
	assert.Contains(t, m.View(), "Select Delegate")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.NotNil(t, m.(DelegateListModel).Selected)
	assert.Equal(t, "D", m.(DelegateListModel).Selected.Address)
}

func TestDelegateTreeRendering(t *testing.T) {
	nodes := []tree.Node{
		{Delegate: "B", Weight: 2000, DelegatedPower: big.NewInt(200), Children: []tree.Node{
			{Delegate: "D", Weight: 10000, DelegatedPower: big.NewInt(300)},
		}},
	}
	out := delegateTree("A", big.NewInt(1000), nodes).String()
	for _, want := range []string{"A", "B", "D", "20.00%", "100.00%", "1,000"} {
		assert.Contains(t, out, want)
	}
}

func TestComputeSnapshotsDir(t *testing.T) {
	out, err := run(t, "--snapshots", filepath.Join("..", "..", "examples", "snapshots"), "compute", "demo.eth", "--json", "--no-cache")
	require.NoError(t, err)
	assert.Contains(t, out, `"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB": "820"`)
	assert.Contains(t, out, `"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb": "330"`)

	_, err = run(t, "--snapshots", t.TempDir(), "compute", "demo.eth", "--no-cache")
	assert.Error(t, err)
}

func TestCompletionScript(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := run(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, "splitdelegation")
		})
	}

	_, err := run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestCompleteSpaces(t *testing.T) {
	dir := filepath.Dir(writeSnapshot(t))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uni.eth.json"), []byte("{}"), 0o644))

	out, err := run(t, "__complete", "top", "--snapshots="+dir, "sa")
	require.NoError(t, err)
	assert.Contains(t, out, "safe.eth")
	assert.NotContains(t, out, "uni.eth")

	out, err = run(t, "__complete", "compute", "--snapshots="+dir, "safe.eth", "")
	require.NoError(t, err)
	assert.Contains(t, out, "uni.eth")
	assert.NotContains(t, out, "safe.eth\n")

	out, err = run(t, "__complete", "top", "--snapshots="+dir, "safe.eth", "")
	require.NoError(t, err)
	assert.NotContains(t, out, "uni.eth")
}
