// Package render draws delegation graphs.
//
// # Overview
//
// The [nodelink] subpackage turns a normalized delegation graph into a
// Graphviz node-link diagram: one box per address labelled with its voting
// power, one arrow per delegation labelled with the share of the delegator's
// power it carries.
//
//	dot := nodelink.ToDOT(res.Graph(), nodelink.Options{Power: res.VotingPower})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2)
//
// [nodelink]: github.com/matzehuels/splitdelegation/pkg/render/nodelink
package render
