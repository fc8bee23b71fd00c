package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	ltree "github.com/charmbracelet/lipgloss/tree"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/spf13/cobra"

	"github.com/matzehuels/splitdelegation/pkg/address"
	"github.com/matzehuels/splitdelegation/pkg/pipeline"
	"github.com/matzehuels/splitdelegation/pkg/tree"
)

type treeOpts struct {
	file       string
	delegators bool
	maxDepth   int
	noCache    bool
	jsonOut    bool
}

// treeCommand creates the tree command.
func (c *CLI) treeCommand() *cobra.Command {
	opts := treeOpts{}

	cmd := &cobra.Command{
		Use:   "tree [space] <address>",
		Short: "Show where an address's power goes, or where it comes from",
		Long: `Tree prints the delegate tree of an address: each delegate with its weight
(percent of the parent's delegation) and the power it receives, recursively.

With --delegators it prints the mirror image: every account delegating to
the address and the power that reached it from them.`,
		Example: `  splitdelegation tree safe.eth 0xAbc...
  splitdelegation tree --file snapshot.json 0xAbc... --delegators`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeSpaces(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var space, addr string
			switch {
			case len(args) == 2:
				space, addr = args[0], args[1]
			case opts.file != "":
				addr = args[0]
			default:
				return fmt.Errorf("usage: tree <space> <address> or tree --file <snapshot> <address>")
			}
			return c.runTree(cmd.Context(), cmd.OutOrStdout(), space, address.Normalize(addr), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "snapshot file instead of a configured space")
	cmd.Flags().BoolVar(&opts.delegators, "delegators", false, "show the delegator tree")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximum tree depth (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print JSON")

	return cmd
}

func (c *CLI) treeOptions(maxDepth int) tree.Options {
	if maxDepth <= 0 {
		maxDepth = c.Config.Compute.MaxTreeDepth
	}
	return tree.Options{MaxDepth: maxDepth}
}

func (c *CLI) runTree(ctx context.Context, out io.Writer, space, addr string, opts treeOpts) error {
	res, err := c.loadResult(ctx, space, opts.file, opts.noCache)
	if err != nil {
		return err
	}
	topts := c.treeOptions(opts.maxDepth)
	scores := res.Snapshot.Scores

	var doc any
	var rendered string
	if opts.delegators {
		nodes, err := tree.Delegators(res.Graph, scores, addr, topts)
		if err != nil {
			return err
		}
		doc, rendered = nodes, delegatorTree(addr, res.Power.Power(addr), nodes).String()
	} else {
		nodes, err := tree.Delegates(res.Graph, scores, addr, topts)
		if err != nil {
			return err
		}
		own, _ := scores.Get(addr)
		doc, rendered = nodes, delegateTree(addr, own, nodes).String()
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	fmt.Fprintln(out, rendered)
	return nil
}

// printTrees prints both trees of addr, used after an interactive pick.
func (c *CLI) printTrees(res *pipeline.Result, addr string) error {
	topts := c.treeOptions(0)
	delegates, err := tree.Delegates(res.Graph, res.Snapshot.Scores, addr, topts)
	if err != nil {
		return err
	}
	delegators, err := tree.Delegators(res.Graph, res.Snapshot.Scores, addr, topts)
	if err != nil {
		return err
	}
	own, _ := res.Snapshot.Scores.Get(addr)
	printInfo("Delegates")
	fmt.Println(delegateTree(addr, own, delegates))
	printNewline()
	printInfo("Delegators")
	fmt.Println(delegatorTree(addr, res.Power.Power(addr), delegators))
	return nil
}

var (
	treeRootStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	treeWeightStyle = lipgloss.NewStyle().Foreground(colorGray)
	treeEnumStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

func treeLabel(addr string, weight int64, power big.Int) string {
	return fmt.Sprintf("%s %s %s", addr,
		treeWeightStyle.Render(formatBasisPoints(weight)),
		StyleNumber.Render(formatPower(power)))
}

func newStyledTree(root string) *ltree.Tree {
	return ltree.Root(treeRootStyle.Render(root)).
		Enumerator(ltree.RoundedEnumerator).
		EnumeratorStyle(treeEnumStyle)
}

// delegateTree renders nodes below addr; own is addr's own score.
func delegateTree(addr string, own big.Int, nodes []tree.Node) *ltree.Tree {
	t := newStyledTree(fmt.Sprintf("%s %s", addr, StyleNumber.Render(formatPower(own))))
	addDelegates(t, nodes)
	return t
}

func addDelegates(t *ltree.Tree, nodes []tree.Node) {
	for _, n := range nodes {
		label := treeLabel(n.Delegate, n.Weight, n.DelegatedPower)
		if len(n.Children) == 0 {
			t.Child(label)
			continue
		}
		sub := ltree.Root(label)
		addDelegates(sub, n.Children)
		t.Child(sub)
	}
}

// delegatorTree renders nodes above addr; vp is addr's voting power.
func delegatorTree(addr string, vp big.Int, nodes []tree.DelegatorNode) *ltree.Tree {
	t := newStyledTree(fmt.Sprintf("%s %s", addr, StyleNumber.Render(formatPower(vp))))
	addDelegators(t, nodes)
	return t
}

func addDelegators(t *ltree.Tree, nodes []tree.DelegatorNode) {
	for _, n := range nodes {
		label := treeLabel(n.Delegator, n.Weight, n.DelegatedPower)
		if len(n.Parents) == 0 {
			t.Child(label)
			continue
		}
		sub := ltree.Root(label)
		addDelegators(sub, n.Parents)
		t.Child(sub)
	}
}
