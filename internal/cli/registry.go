package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/registry"
)

type registryOpts struct {
	file    string
	at      int64
	jsonOut bool
}

type entryOutput struct {
	Delegation []registry.Delegation `json:"delegation"`
	Expiration int64                 `json:"expiration"`
	OptOut     bool                  `json:"optOut"`
}

// registryCommand creates the registry command, which replays the action
// log of a space and prints the resulting per-account state.
func (c *CLI) registryCommand() *cobra.Command {
	opts := registryOpts{}

	cmd := &cobra.Command{
		Use:               "registry [space]",
		Short:             "Show the delegation state replayed from the action log",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeSpaces(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space, err := spaceArg(args, opts.file)
			if err != nil {
				return err
			}
			return c.runRegistry(cmd.Context(), cmd.OutOrStdout(), space, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "snapshot file instead of a configured space")
	cmd.Flags().Int64Var(&opts.at, "at", 0, "evaluation time in unix seconds (default: the snapshot's)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print JSON")

	return cmd
}

func (c *CLI) runRegistry(ctx context.Context, out io.Writer, space string, opts registryOpts) error {
	runner, fileSpace, err := c.newRunner(ctx, runnerOpts{file: opts.file, noCache: true})
	if err != nil {
		return err
	}
	defer runner.Close()
	if opts.file != "" {
		space = fileSpace
	}

	snap, err := runner.Load(ctx, space)
	if err != nil {
		return err
	}
	if len(snap.Actions) == 0 && snap.Weights != nil {
		printWarning("%s carries precomputed weights and no action log", space)
		return nil
	}
	when := snap.When
	if opts.at != 0 {
		when = opts.at
	}
	reg, err := registry.Build(snap.Actions, when)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		doc := make(map[string]entryOutput, len(reg))
		for acc, e := range reg {
			doc[acc] = entryOutput{Delegation: e.Delegation, Expiration: e.Expiration, OptOut: e.OptOut}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	printInfo("%s: %d accounts from %d actions at %s", space, len(reg), len(snap.Actions),
		time.Unix(when, 0).UTC().Format(time.RFC3339))
	rows := make([][]string, 0, len(reg))
	for _, acc := range reg.Accounts() {
		e := reg[acc]
		rows = append(rows, []string{acc, formatDelegation(e.Delegation), formatExpiration(e.Expiration), formatOptOut(e.OptOut)})
	}
	t := newTable("Account", "Delegation", "Expires", "Opted out").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeaderStyle
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(out, t.Render())
	return nil
}

func formatDelegation(dels []registry.Delegation) string {
	if len(dels) == 0 {
		return "-"
	}
	parts := make([]string, len(dels))
	for i, d := range dels {
		parts[i] = fmt.Sprintf("%s×%s", d.Delegate, amount.String(d.Ratio))
	}
	return strings.Join(parts, "\n")
}

func formatExpiration(ts int64) string {
	if ts == 0 {
		return "never"
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04")
}

func formatOptOut(v bool) string {
	if v {
		return markSuccess.glyph
	}
	return ""
}
