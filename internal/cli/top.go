package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/splitdelegation/pkg/stats"
)

type topOpts struct {
	file        string
	orderBy     string
	limit       int
	offset      int
	noCache     bool
	jsonOut     bool
	interactive bool
}

// topCommand creates the top command, which ranks delegates.
func (c *CLI) topCommand() *cobra.Command {
	opts := topOpts{limit: stats.DefaultLimit}

	cmd := &cobra.Command{
		Use:   "top [space]",
		Short: "Rank delegates by voting power or delegator count",
		Example: `  splitdelegation top safe.eth --limit 20
  splitdelegation top safe.eth --order-by count
  splitdelegation top --file snapshot.json --interactive`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeSpaces(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space, err := spaceArg(args, opts.file)
			if err != nil {
				return err
			}
			return c.runTop(cmd.Context(), cmd.OutOrStdout(), space, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "snapshot file to rank instead of a configured space")
	cmd.Flags().StringVar(&opts.orderBy, "order-by", "power", "ranking key: power or count")
	cmd.Flags().IntVar(&opts.limit, "limit", opts.limit, "number of delegates to show")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "number of delegates to skip")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print JSON")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick a delegate and show its tree")

	return cmd
}

func (c *CLI) runTop(ctx context.Context, out io.Writer, space string, opts topOpts) error {
	by, err := stats.ParseOrderBy(opts.orderBy)
	if err != nil {
		return err
	}
	if opts.offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	res, err := c.loadResult(ctx, space, opts.file, opts.noCache)
	if err != nil {
		return err
	}
	all := stats.Delegates(res.Power)
	ranked := stats.Rank(all, by, opts.limit, opts.offset)

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	if opts.interactive {
		if len(ranked) == 0 {
			printInfo("No delegates")
			return nil
		}
		final, err := tea.NewProgram(NewDelegateListModel(ranked, opts.offset)).Run()
		if err != nil {
			return err
		}
		m, ok := final.(DelegateListModel)
		if !ok || m.Selected == nil {
			return nil
		}
		return c.printTrees(res, m.Selected.Address)
	}

	printInfo("%s: %d delegates, ordered by %s", res.Snapshot.Space, len(all), by)
	fmt.Println(statsTable(ranked, opts.offset))
	return nil
}
