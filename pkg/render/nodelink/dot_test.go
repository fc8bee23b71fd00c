package nodelink

import (
	"strings"
	"testing"

	"github.com/filecoin-project/go-state-types/big"

	"github.com/matzehuels/splitdelegation/pkg/dag"
)

func graph(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New()
	for _, e := range []struct {
		from, to string
		ratio    int64
	}{{"A", "B", 1}, {"A", "C", 2}, {"B", "D", 5}} {
		if err := g.SetEdge(e.from, e.to, big.NewInt(e.ratio)); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(graph(t), Options{})

	for _, want := range []string{
		"digraph G",
		`"A" [label="A"]`,
		`"A" -> "B" [label="33.33%"]`,
		`"A" -> "C" [label="66.67%"]`,
		`"B" -> "D" [label="100%"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s\n%s", want, dot)
		}
	}
}

func TestToDOT_Power(t *testing.T) {
	pw := map[string]big.Int{
		"A": big.Zero(),
		"B": big.Zero(),
		"C": big.NewInt(1234567),
		"D": big.NewInt(5),
	}
	dot := ToDOT(graph(t), Options{Power: pw, Highlight: "D"})

	if !strings.Contains(dot, `label="C\n1,234,567"`) {
		t.Errorf("ToDOT() missing humanized power label\n%s", dot)
	}
	if !strings.Contains(dot, `"A" [label="A\n0", fillcolor=lightgrey`) {
		t.Errorf("ToDOT() should grey out delegators with no power\n%s", dot)
	}
	if !strings.Contains(dot, `color="#d9480f"`) {
		t.Errorf("ToDOT() missing highlight\n%s", dot)
	}
}

func TestToDOT_ZeroRatio(t *testing.T) {
	g := dag.New()
	if err := g.SetEdge("A", "B", big.Zero()); err != nil {
		t.Fatal(err)
	}
	if dot := ToDOT(g, Options{}); !strings.Contains(dot, `"A" -> "B" [label="0%"]`) {
		t.Errorf("ToDOT() zero ratio edge\n%s", dot)
	}
}

func TestShort(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "0x5aAe…eAed"},
		{"alice", "alice"},
		{"0x123", "0x123"},
	}
	for _, tt := range tests {
		if got := Short(tt.in); got != tt.want {
			t.Errorf("Short(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToDOT_Detailed(t *testing.T) {
	g := dag.New()
	addr := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	if err := g.AddNode(addr); err != nil {
		t.Fatal(err)
	}
	if dot := ToDOT(g, Options{Detailed: true}); !strings.Contains(dot, `label="`+addr+`"`) {
		t.Errorf("detailed output should keep full address\n%s", dot)
	}
	if dot := ToDOT(g, Options{}); strings.Contains(dot, `label="`+addr+`"`) {
		t.Errorf("default output should shorten address\n%s", dot)
	}
}
