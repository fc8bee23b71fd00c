package transform

import (
	"slices"
	"testing"

	"github.com/matzehuels/splitdelegation/pkg/errors"
)

func TestOrder(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  []string
	}{
		{
			name: "empty",
			want: []string{},
		},
		{
			name:  "chain",
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "delegate inserted first",
			edges: [][2]string{{"b", "c"}, {"a", "b"}},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "diamond",
			edges: [][2]string{{"a", "c"}, {"a", "b"}, {"b", "d"}, {"c", "d"}},
			want:  []string{"a", "c", "b", "d"},
		},
		{
			name:  "two roots",
			edges: [][2]string{{"x", "z"}, {"y", "z"}},
			want:  []string{"x", "y", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.edges...)
			got, err := Order(g)
			if err != nil {
				t.Fatalf("Order() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Order() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrder_DelegatorBeforeDelegate(t *testing.T) {
	g := build(t,
		[2]string{"e", "d"}, [2]string{"d", "c"}, [2]string{"a", "c"},
		[2]string{"c", "b"}, [2]string{"a", "b"}, [2]string{"e", "a"},
	)
	order, err := Order(g)
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges() {
		if pos[e.From] >= pos[e.To] {
			t.Errorf("%s scheduled at %d, after its delegate %s at %d", e.From, pos[e.From], e.To, pos[e.To])
		}
	}
}

func TestOrder_Cycle(t *testing.T) {
	g := build(t, [2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "b"})

	_, err := Order(g)

	if !errors.Is(err, errors.ErrCodeCycleDetected) {
		t.Errorf("Order() error = %v, want CYCLE_DETECTED", err)
	}
	if !errors.IsInternal(err) {
		t.Error("a residual cycle should be reported as internal")
	}
}

func TestNormalize(t *testing.T) {
	g := build(t,
		[2]string{"a", "b"}, [2]string{"b", "a"},
		[2]string{"v", "a"}, [2]string{"w", "w"},
	)

	stats := Normalize(g, []string{"v", "unknown"})

	if stats.VoterEdges != 1 {
		t.Errorf("VoterEdges = %d, want 1", stats.VoterEdges)
	}
	if stats.CycleEdges != 2 {
		t.Errorf("CycleEdges = %d, want 2", stats.CycleEdges)
	}
	if stats.Pruned != 2 {
		t.Errorf("Pruned = %d, want 2", stats.Pruned)
	}
	if want := []string{"a", "b"}; !slices.Equal(g.Nodes(), want) {
		t.Errorf("Nodes() = %v, want %v", g.Nodes(), want)
	}
	if _, err := Order(g); err != nil {
		t.Errorf("Order() after Normalize() error = %v", err)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	g := build(t, [2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "a"}, [2]string{"c", "d"})
	Normalize(g, nil)
	before := g.Edges()

	stats := Normalize(g, nil)

	if stats != (Stats{}) {
		t.Errorf("second Normalize() = %+v, want zero stats", stats)
	}
	if len(g.Edges()) != len(before) {
		t.Errorf("edges changed on second Normalize(): %d -> %d", len(before), len(g.Edges()))
	}
}
