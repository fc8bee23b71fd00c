package power

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/splitdelegation/pkg/dag"
)

// DelegatorCount holds, per address, how many delegators sit upstream of it,
// counted once per path. All is the number of distinct delegators in the
// graph.
type DelegatorCount struct {
	All    int
	Counts map[string]int
}

// Get returns the count for addr, zero when absent.
func (c DelegatorCount) Get(addr string) int { return c.Counts[addr] }

// CountDelegators runs the counting pass over order. Every scheduled node
// starts at zero; each delegator then adds its own count plus one to each of
// its delegates. Because delegators are scheduled first their counts are
// final when they are read.
func CountDelegators(g *dag.DAG, order []string) DelegatorCount {
	c := DelegatorCount{
		All:    len(g.Delegators()),
		Counts: make(map[string]int, len(order)),
	}
	for _, node := range order {
		c.Counts[node] = 0
	}
	for _, node := range order {
		for _, e := range g.Children(node) {
			c.Counts[e.To] += c.Counts[node] + 1
		}
	}
	return c
}

// MarshalJSON writes the flat form {"all": n, "0xA…": n, …} with addresses
// in ascending order.
func (c DelegatorCount) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"all":%d`, c.All)
	for _, addr := range slices.Sorted(maps.Keys(c.Counts)) {
		k, err := json.Marshal(addr)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, `,%s:%d`, k, c.Counts[addr])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flat form written by MarshalJSON.
func (c *DelegatorCount) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := DelegatorCount{All: raw["all"], Counts: make(map[string]int, len(raw))}
	for k, v := range raw {
		if k != "all" {
			out.Counts[k] = v
		}
	}
	*c = out
	return nil
}
