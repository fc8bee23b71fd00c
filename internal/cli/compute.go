package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/spf13/cobra"

	"github.com/matzehuels/splitdelegation/pkg/address"
	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/pipeline"
	"github.com/matzehuels/splitdelegation/pkg/power"
)

// computeOpts holds the command-line flags for the compute command.
type computeOpts struct {
	file        string
	voters      string
	noOverride  bool
	refresh     bool
	noCache     bool
	store       bool
	jsonOut     bool
	output      string
	concurrency int
}

// computeOutput is the JSON document written by compute --json.
type computeOutput struct {
	Space          string               `json:"space"`
	Snapshot       string               `json:"snapshot"`
	When           int64                `json:"when"`
	VotingPower    amount.Scores        `json:"votingPower"`
	DelegatorCount power.DelegatorCount `json:"delegatorCount"`
}

func newComputeOutput(res *pipeline.Result, voters []string) computeOutput {
	vp := amount.Scores(res.Power.VotingPower)
	if len(voters) > 0 {
		vp = amount.Scores(res.Power.For(voters))
	}
	return computeOutput{
		Space:          res.Snapshot.Space,
		Snapshot:       res.SnapshotHash,
		When:           res.Snapshot.When,
		VotingPower:    vp,
		DelegatorCount: res.Power.DelegatorCount,
	}
}

// computeCommand creates the compute command.
func (c *CLI) computeCommand() *cobra.Command {
	opts := computeOpts{}

	cmd := &cobra.Command{
		Use:               "compute [space...]",
		ValidArgsFunction: c.completeSpaces(-1),
		Short:             "Compute voting power for one or more spaces",
		Long: `Compute loads the snapshot of each space, replays its delegation actions and
prints every address's voting power.

With --voters, only the listed addresses are reported. Unless
--no-override is given, voters keep their own power: their outgoing
delegations are ignored.`,
		Example: `  splitdelegation compute safe.eth
  splitdelegation compute --file snapshot.json --voters 0xAbc...,0xDef...
  splitdelegation compute safe.eth ens.eth --json -o power.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.file == "" {
				return fmt.Errorf("a space or --file is required")
			}
			return c.runCompute(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "snapshot file to compute instead of a configured space")
	cmd.Flags().StringVar(&opts.voters, "voters", "", "comma-separated voter addresses")
	cmd.Flags().BoolVar(&opts.noOverride, "no-override", false, "let voters' delegations stand")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the result cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.store, "store", false, "persist results to the configured store")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON to this file")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "spaces computed in parallel (default from config)")

	return cmd
}

func (c *CLI) runCompute(ctx context.Context, out io.Writer, spaces []string, opts computeOpts) error {
	runner, fileSpace, err := c.newRunner(ctx, runnerOpts{file: opts.file, noCache: opts.noCache, store: opts.store})
	if err != nil {
		return err
	}
	defer runner.Close()

	if opts.file != "" {
		spaces = []string{fileSpace}
	}
	override := !opts.noOverride
	voters := address.NormalizeAll(parseList(opts.voters))
	popts := pipeline.Options{
		Voters:             voters,
		DelegationOverride: &override,
		Refresh:            opts.refresh,
	}
	concurrency := opts.concurrency
	if concurrency <= 0 {
		concurrency = c.Config.Compute.Concurrency
	}

	prog := newProgress(c.Logger)
	results, err := runner.ExecuteAll(ctx, spaces, popts, concurrency)
	if err != nil {
		return err
	}
	prog.done("computed voting power", "spaces", len(results))

	if opts.jsonOut || opts.output != "" {
		return writeComputeJSON(out, opts.output, spaces, results, voters)
	}

	for _, space := range spaces {
		res := results[space]
		printSuccess("%s", StyleTitle.Render(space))
		printStats(res)
		printKeyValue("snapshot", res.SnapshotHash[:12])
		printKeyValue("total", formatPower(res.Power.Total()))
		printKeyValue("delegators", fmt.Sprint(res.Power.DelegatorCount.All))
		printNewline()
		fmt.Println(powerTable(newComputeOutput(res, voters).VotingPower))
		printNewline()
	}
	if len(spaces) == 1 && opts.file == "" {
		printNextStep("Rank delegates", "splitdelegation top "+spaces[0])
	}
	return nil
}

func writeComputeJSON(out io.Writer, path string, spaces []string, results map[string]*pipeline.Result, voters []string) error {
	var doc any
	if len(spaces) == 1 {
		doc = newComputeOutput(results[spaces[0]], voters)
	} else {
		all := make(map[string]computeOutput, len(spaces))
		for _, s := range spaces {
			all[s] = newComputeOutput(results[s], voters)
		}
		doc = all
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printFile(path)
	return nil
}

// sortedByPower returns the addresses of vp in descending power, ties by
// address.
func sortedByPower(vp amount.Scores) []string {
	addrs := vp.Addresses()
	slices.SortStableFunc(addrs, func(a, b string) int {
		return vp[b].Cmp(vp[a].Int)
	})
	return addrs
}

// formatPower renders a power value with thousands separators.
func formatPower(v big.Int) string {
	if amount.IsNil(v) {
		return "0"
	}
	return humanizeBig(v)
}

// formatBasisPoints renders 1234 as "12.34%".
func formatBasisPoints(bp int64) string {
	return fmt.Sprintf("%d.%02d%%", bp/100, bp%100)
}

// loadResult computes the unrestricted result of one space, or of the
// snapshot file when file is set.
func (c *CLI) loadResult(ctx context.Context, space, file string, noCache bool) (*pipeline.Result, error) {
	runner, fileSpace, err := c.newRunner(ctx, runnerOpts{file: file, noCache: noCache})
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	if file != "" {
		space = fileSpace
	}
	override := c.Config.Compute.DelegationOverride
	return runner.Execute(ctx, pipeline.Options{Space: space, DelegationOverride: &override})
}
