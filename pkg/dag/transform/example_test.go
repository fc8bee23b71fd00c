package transform_test

import (
	"fmt"

	"github.com/filecoin-project/go-state-types/big"

	"github.com/matzehuels/splitdelegation/pkg/dag"
	"github.com/matzehuels/splitdelegation/pkg/dag/transform"
)

func ExampleNormalize() {
	g := dag.New()
	_ = g.SetEdge("A", "B", big.NewInt(50))
	_ = g.SetEdge("A", "C", big.NewInt(50))
	_ = g.SetEdge("B", "A", big.NewInt(1)) // closes a cycle
	_ = g.SetEdge("C", "C", big.NewInt(1)) // self-delegation
	_ = g.SetEdge("D", "C", big.NewInt(1)) // D votes directly

	stats := transform.Normalize(g, []string{"D"})
	fmt.Println("voter edges:", stats.VoterEdges)
	fmt.Println("cycle edges:", stats.CycleEdges)
	fmt.Println("pruned:", stats.Pruned)
	fmt.Println("nodes:", g.Nodes())
	// Output:
	// voter edges: 1
	// cycle edges: 2
	// pruned: 1
	// nodes: [A B C]
}

func ExampleOrder() {
	g := dag.New()
	_ = g.SetEdge("B", "D", big.NewInt(100))
	_ = g.SetEdge("A", "B", big.NewInt(20))
	_ = g.SetEdge("A", "C", big.NewInt(80))

	order, err := transform.Order(g)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(order)
	// Output: [A B C D]
}
