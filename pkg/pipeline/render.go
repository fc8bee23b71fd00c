package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/splitdelegation/pkg/render/nodelink"
)

// RenderOptions configures graph renderings.
type RenderOptions struct {
	Formats   []string
	Detailed  bool
	Highlight string
	// Scale of PNG output; defaults to 2.
	Scale float64
}

// Render draws the normalized delegation graph of res in every requested
// format, labelled with voting power.
func Render(ctx context.Context, res *Result, opts RenderOptions) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	if opts.Scale <= 0 {
		opts.Scale = 2
	}
	dot := nodelink.ToDOT(res.Normalized(), nodelink.Options{
		Power:     res.Power.VotingPower,
		Detailed:  opts.Detailed,
		Highlight: opts.Highlight,
	})

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
