package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/splitdelegation/pkg/address"
	"github.com/matzehuels/splitdelegation/pkg/pipeline"
)

type graphOpts struct {
	file      string
	formats   []string
	output    string
	detailed  bool
	highlight string
	scale     float64
	noCache   bool
}

// graphCommand creates the graph command for rendering the delegation graph.
func (c *CLI) graphCommand() *cobra.Command {
	var formatsStr string
	opts := graphOpts{scale: 2}

	cmd := &cobra.Command{
		Use:   "graph [space]",
		Short: "Render the delegation graph labelled with voting power",
		Example: `  splitdelegation graph safe.eth
  splitdelegation graph safe.eth -f svg,dot -o out/safe --highlight 0xAbc...`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeSpaces(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space, err := spaceArg(args, opts.file)
			if err != nil {
				return err
			}
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runGraph(cmd.Context(), space, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "snapshot file instead of a configured space")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label edges with their ratio")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", "address to highlight")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, space string, opts graphOpts) error {
	res, err := c.loadResult(ctx, space, opts.file, opts.noCache)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Rendering graph...")
	spinner.Start()
	artifacts, err := pipeline.Render(ctx, res, pipeline.RenderOptions{
		Formats:   opts.formats,
		Detailed:  opts.detailed,
		Highlight: address.Normalize(opts.highlight),
		Scale:     opts.scale,
	})
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()

	printSuccess("Rendered %s", res.Snapshot.Space)
	printStats(res)
	for _, format := range opts.formats {
		path := outputPath(opts.output, res.Snapshot.Space, format, len(opts.formats) == 1)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// outputPath picks the file for one format. A single format written to an
// explicit output with an extension uses it verbatim; otherwise output (or
// the space) is a base path.
func outputPath(output, space, format string, single bool) string {
	if output == "" {
		return space + "." + format
	}
	if single && filepath.Ext(output) != "" {
		return output
	}
	return output + "." + format
}
